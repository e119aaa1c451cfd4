// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

// Resolver selects and applies a resolution strategy for analyzed
// conflicts. It mutates only the ConflictRecord it is given; detector
// state is owned by the detector.
type Resolver struct {
	advisor   MergeAdvisor
	threshold float64
	logger    *logger.Logger
}

// NewResolver constructs a Resolver. advisor may be nil, in which case
// the assisted-merge strategy is skipped entirely. threshold is the
// minimum advisor confidence; recommendations below it fall through to
// timestamp_priority.
func NewResolver(advisor MergeAdvisor, threshold float64, log *logger.Logger) *Resolver {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.7
	}
	return &Resolver{advisor: advisor, threshold: threshold, logger: log}
}

// Resolve picks the strategy for rec and records the verdict on it.
//
// Strategy order:
//  1. crisis_priority: either side crisis-flagged, that side wins.
//  2. therapeutic_priority: impact significant/critical, higher clinical
//     specificity wins, ties broken by latest timestamp.
//  3. assisted merge: advisor available and impact above minimal,
//     accepted only at or above the confidence threshold.
//  4. timestamp_priority: deterministic last-write-wins default.
//
// The outcome is deterministic for identical inputs: every comparison
// chain terminates in the device-id total order.
func (r *Resolver) Resolve(ctx context.Context, rec *models.ConflictRecord) (*models.Resolution, error) {
	if len(rec.Versions) < 2 {
		return nil, fmt.Errorf("%w: conflict %s has %d versions", models.ErrConflictUnresolved, rec.ID, len(rec.Versions))
	}
	if rec.State == models.StateDetected {
		AnalyzeImpact(rec)
	}

	res, err := r.pick(ctx, rec)
	if err != nil {
		return nil, err
	}

	res.ResolvedAt = time.Now()
	rec.Resolution = res
	rec.State = models.StateResolved

	r.logger.Info().
		Str("conflict_id", rec.ID).
		Str("entity_key", rec.Key.String()).
		Str("strategy", string(res.Strategy)).
		Str("impact", rec.Impact.String()).
		Int("winner_idx", res.WinnerIdx).
		Msg("conflict resolved")

	return res, nil
}

func (r *Resolver) pick(ctx context.Context, rec *models.ConflictRecord) (*models.Resolution, error) {
	// 1. Crisis context wins outright, regardless of timestamps.
	if idx, ok := crisisWinner(rec.Versions); ok {
		rec.State = models.StateAutoResolved
		return &models.Resolution{
			Strategy:   models.StrategyCrisisPriority,
			WinnerIdx:  idx,
			Confidence: 1,
		}, nil
	}

	// 2. High-impact conflicts keep the clinically richer version.
	if rec.Impact >= models.ImpactSignificant {
		rec.State = models.StateAutoResolved
		return &models.Resolution{
			Strategy:   models.StrategyTherapeuticPriority,
			WinnerIdx:  therapeuticWinner(rec.Versions),
			Confidence: 1,
		}, nil
	}

	// 3. Assisted merge, when available and worth the trouble.
	if r.advisor != nil && rec.Impact > models.ImpactMinimal {
		rec.State = models.StateAIRecommended
		recommendation, err := r.advisor.Recommend(ctx, rec)
		if err != nil {
			r.logger.Err(err).Str("conflict_id", rec.ID).Msg("merge advisor failed, falling through")
		} else if recommendation.Confidence >= r.threshold {
			return &models.Resolution{
				Strategy:   models.StrategyAssistedMerge,
				WinnerIdx:  -1,
				Merged:     recommendation.Merged,
				Confidence: recommendation.Confidence,
			}, nil
		}
	}

	// 4. Deterministic default.
	return &models.Resolution{
		Strategy:   models.StrategyTimestampPriority,
		WinnerIdx:  timestampWinner(rec.Versions),
		Confidence: 1,
	}, nil
}

// Apply finalizes a resolved record: the caller has durably applied the
// winning version (or merge) and the record is archived.
func (r *Resolver) Apply(rec *models.ConflictRecord) error {
	if rec.Resolution == nil || rec.State != models.StateResolved {
		return fmt.Errorf("%w: conflict %s applied before resolution", models.ErrConflictUnresolved, rec.ID)
	}
	rec.State = models.StateApplied
	return nil
}

// crisisWinner returns the index of the crisis-flagged version. When both
// sides are crisis-flagged the richer one wins, with the usual tie chain.
func crisisWinner(versions []models.ConflictVersion) (int, bool) {
	flagged := -1
	count := 0
	for i, v := range versions {
		if v.CrisisActive {
			flagged = i
			count++
		}
	}
	switch count {
	case 0:
		return 0, false
	case 1:
		return flagged, true
	default:
		return therapeuticWinner(versions), true
	}
}

// therapeuticWinner ranks by clinical specificity, then latest timestamp,
// then version number, then device id.
func therapeuticWinner(versions []models.ConflictVersion) int {
	best := 0
	for i := 1; i < len(versions); i++ {
		if betterTherapeutic(versions[i], versions[best]) {
			best = i
		}
	}
	return best
}

func betterTherapeutic(a, b models.ConflictVersion) bool {
	as, bs := clinicalSpecificity(a), clinicalSpecificity(b)
	if as != bs {
		return as > bs
	}
	return laterVersion(a, b)
}

// timestampWinner ranks by latest timestamp with deterministic
// tie-breaks.
func timestampWinner(versions []models.ConflictVersion) int {
	best := 0
	for i := 1; i < len(versions); i++ {
		if laterVersion(versions[i], versions[best]) {
			best = i
		}
	}
	return best
}

func laterVersion(a, b models.ConflictVersion) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	if a.Version != b.Version {
		return a.Version > b.Version
	}
	// Total order over device ids ends every tie chain.
	return a.DeviceID < b.DeviceID
}
