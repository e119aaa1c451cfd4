package conflict

import (
	"fmt"

	"github.com/havenmind/syncd/models"
)

// baseImpact is the floor impact per entity type. A crisis-plan conflict
// is always at least significant; a UI-preference conflict starts (and
// usually stays) minimal.
func baseImpact(t models.EntityType) models.ImpactLevel {
	switch t {
	case models.EntityCrisisPlan, models.EntitySafetyPlan:
		return models.ImpactSignificant
	case models.EntityAssessment, models.EntityCheckIn, models.EntityJournalEntry:
		return models.ImpactModerate
	case models.EntityUIPreference:
		return models.ImpactMinimal
	default:
		return models.ImpactModerate
	}
}

// AnalyzeImpact computes the therapeutic impact of rec from its entity
// type, the crisis flags on either side, and the semantic distance
// between the divergent payloads. The record moves to StateAnalyzed.
func AnalyzeImpact(rec *models.ConflictRecord) models.ImpactLevel {
	impact := baseImpact(rec.Key.EntityType)

	crisisInvolved := rec.Context.CrisisActive
	for _, v := range rec.Versions {
		if v.CrisisActive {
			crisisInvolved = true
		}
	}

	if crisisInvolved && impact < models.ImpactSignificant {
		impact = models.ImpactSignificant
	}
	if crisisInvolved && rec.Key.EntityType == models.EntityCrisisPlan {
		impact = models.ImpactCritical
	}

	// Widely divergent payloads are one level worse: the losing side
	// discards more.
	if len(rec.Versions) >= 2 &&
		semanticDistance(rec.Versions[0].Payload, rec.Versions[1].Payload) >= 0.5 &&
		impact < models.ImpactCritical {
		impact++
	}

	rec.Impact = impact
	rec.State = models.StateAnalyzed
	return impact
}

// semanticDistance is the fraction of fields, over the union of both
// payloads, whose values differ. 0 means identical, 1 means fully
// disjoint.
func semanticDistance(a, b map[string]any) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	union := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		union[k] = struct{}{}
	}
	for k := range b {
		union[k] = struct{}{}
	}

	differing := 0
	for k := range union {
		av, aok := a[k]
		bv, bok := b[k]
		if !aok || !bok || fmt.Sprint(av) != fmt.Sprint(bv) {
			differing++
		}
	}
	return float64(differing) / float64(len(union))
}

// clinicalSpecificity scores how complete a version is from a treatment
// standpoint: populated fields count, clinically significant ones count
// double. Used by therapeutic_priority to pick the more useful record.
func clinicalSpecificity(v models.ConflictVersion) int {
	score := 0
	for field, value := range v.Payload {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		score++
		if clinicalFields[field] {
			score++
		}
	}
	return score
}

// clinicalFields carry direct treatment value; their presence outweighs
// generic fields when ranking completeness.
var clinicalFields = map[string]bool{
	"coping_strategies":  true,
	"warning_signs":      true,
	"emergency_contacts": true,
	"medications":        true,
	"safety_steps":       true,
	"phq9_score":         true,
	"gad7_score":         true,
	"risk_level":         true,
	"clinician_notes":    true,
}
