package conflict

import (
	"context"
	"fmt"
	"sort"

	"dario.cat/mergo"

	"github.com/havenmind/syncd/models"
)

// Recommendation is the advisor's proposed merged payload together with
// its confidence in the result.
type Recommendation struct {
	Merged     map[string]any
	Confidence float64
	Rationale  string
}

// MergeAdvisor proposes a field-level merge of the conflicting versions.
//
//go:generate mockgen -source=advisor.go -destination=../mock/mock_advisor.go -package=mock
type MergeAdvisor interface {
	Recommend(ctx context.Context, rec *models.ConflictRecord) (*Recommendation, error)
}

// fieldMergeAdvisor merges non-colliding fields across versions and
// resolves collisions in favor of the latest version. Confidence is the
// fraction of fields merged without collision, so a fully disjoint pair
// of edits scores 1.0 and a total overlap scores 0.
type fieldMergeAdvisor struct{}

// NewFieldMergeAdvisor returns the default structural merge advisor.
func NewFieldMergeAdvisor() MergeAdvisor {
	return fieldMergeAdvisor{}
}

func (fieldMergeAdvisor) Recommend(_ context.Context, rec *models.ConflictRecord) (*Recommendation, error) {
	if len(rec.Versions) < 2 {
		return nil, fmt.Errorf("%w: advisor needs at least two versions", models.ErrConflictUnresolved)
	}

	latest := rec.Versions[timestampWinner(rec.Versions)]

	merged := make(map[string]any, len(latest.Payload))
	for k, v := range latest.Payload {
		merged[k] = v
	}
	// Older versions fill in the fields the latest one does not carry.
	for _, v := range rec.Versions {
		if err := mergo.Merge(&merged, v.Payload); err != nil {
			return nil, fmt.Errorf("merge payloads: %w", err)
		}
	}

	union := make(map[string]struct{})
	collisions := 0
	for key := range fieldUnion(rec.Versions) {
		union[key] = struct{}{}
		if fieldCollides(rec.Versions, key) {
			collisions++
		}
	}
	confidence := 1.0
	if len(union) > 0 {
		confidence = 1 - float64(collisions)/float64(len(union))
	}

	return &Recommendation{
		Merged:     merged,
		Confidence: confidence,
		Rationale:  mergeRationale(rec.Versions, collisions, len(union)),
	}, nil
}

func fieldUnion(versions []models.ConflictVersion) map[string]struct{} {
	union := make(map[string]struct{})
	for _, v := range versions {
		for k := range v.Payload {
			union[k] = struct{}{}
		}
	}
	return union
}

// fieldCollides reports whether key carries differing non-nil values in
// more than one version.
func fieldCollides(versions []models.ConflictVersion, key string) bool {
	var seen any
	found := false
	for _, v := range versions {
		val, ok := v.Payload[key]
		if !ok || val == nil {
			continue
		}
		if !found {
			seen, found = val, true
			continue
		}
		if fmt.Sprint(val) != fmt.Sprint(seen) {
			return true
		}
	}
	return false
}

func mergeRationale(versions []models.ConflictVersion, collisions, union int) string {
	devices := make([]string, 0, len(versions))
	for _, v := range versions {
		devices = append(devices, v.DeviceID)
	}
	sort.Strings(devices)
	return fmt.Sprintf("merged %d fields from %v, %d collision(s) resolved to latest", union, devices, collisions)
}
