// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package sanitize

import (
	"testing"

	"github.com/havenmind/syncd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func emergencyCtx() Context {
	return Context{
		Kind:       models.KindUpload,
		EntityType: models.EntityCrisisPlan,
		Emergency:  true,
		Exemptions: []string{ExemptionEmergencyContact},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Field classification
// ─────────────────────────────────────────────────────────────────────────────

func TestSanitize_FieldDetection(t *testing.T) {
	tests := []struct {
		name        string
		payload     map[string]any
		wantRemoved []string
		wantKeptLen int
	}{
		{
			name:        "EmailFieldName → removed",
			payload:     map[string]any{"email": "user@example.com", "mood": 7},
			wantRemoved: []string{"email"},
		},
		{
			name:        "PhoneByValueShape → removed",
			payload:     map[string]any{"callback": "+1 (555) 123-4567"},
			wantRemoved: []string{"callback"},
		},
		{
			name:        "SSNFieldName → removed",
			payload:     map[string]any{"ssn": "123-45-6789"},
			wantRemoved: []string{"ssn"},
		},
		{
			name:        "CardNumberLuhnValid → removed",
			payload:     map[string]any{"stored_value": "4539 1488 0343 6467"},
			wantRemoved: []string{"stored_value"},
		},
		{
			name:        "LongNumberFailingLuhn → kept",
			payload:     map[string]any{"stored_value": "1234 5678 9012 3456"},
			wantRemoved: nil,
		},
		{
			name:        "NeutralFields → untouched",
			payload:     map[string]any{"mood": 7, "note": "slept well"},
			wantRemoved: nil,
		},
	}

	s := NewSanitizer()
	ctx := Context{Kind: models.KindUpload, EntityType: models.EntityCheckIn}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, report, err := s.Sanitize(tt.payload, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRemoved, report.Removed)
			for _, f := range tt.wantRemoved {
				assert.NotContains(t, out, f)
			}
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Idempotence: sanitize(sanitize(P)) == sanitize(P)
// ─────────────────────────────────────────────────────────────────────────────

func TestSanitize_Idempotent(t *testing.T) {
	s := NewSanitizer()
	ctx := Context{Kind: models.KindUpload, EntityType: models.EntityJournalEntry, Therapeutic: true}

	payload := map[string]any{
		"email":   "user@example.com",
		"mood":    5,
		"note":    "felt anxious, emailed therapist at doc@clinic.org about it",
		"contact": map[string]any{"phone": "555-123-4567", "relation": "sister"},
		"history": []any{"called 988", "ssn was 123-45-6789 on the form"},
	}

	once, _, err := s.Sanitize(payload, ctx)
	require.NoError(t, err)

	twice, report, err := s.Sanitize(once, ctx)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Empty(t, report.Removed, "second pass must find nothing left to remove")
	assert.Empty(t, report.Redacted, "second pass must find nothing left to redact")
}

// ─────────────────────────────────────────────────────────────────────────────
// Critical-PII invariant: never carried through, any context
// ─────────────────────────────────────────────────────────────────────────────

func TestSanitize_CriticalPIIAlwaysRemoved(t *testing.T) {
	s := NewSanitizer()

	contexts := []struct {
		name string
		ctx  Context
	}{
		{"Normal", Context{Kind: models.KindUpload, EntityType: models.EntityCheckIn}},
		{"Therapeutic", Context{Kind: models.KindUpload, EntityType: models.EntityAssessment, Therapeutic: true}},
		{"EmergencyBypass", emergencyCtx()},
	}

	payload := map[string]any{
		"ssn":         "123-45-6789",
		"card_number": "4539148803436467",
		"note":        "card 4539 1488 0343 6467 ends in 6467",
	}

	for _, tc := range contexts {
		t.Run(tc.name, func(t *testing.T) {
			out, report, err := s.Sanitize(payload, tc.ctx)
			require.NoError(t, err)

			assert.NotContains(t, out, "ssn")
			assert.NotContains(t, out, "card_number")
			assert.NotContains(t, out["note"], "4539", "embedded PAN must be redacted")
			assert.Contains(t, report.Removed, "ssn")
			assert.Contains(t, report.Removed, "card_number")
		})
	}
}

// Scenario: emergency bypass keeps contact fields but still strips the
// government-ID field.
func TestSanitize_EmergencyBypassStillBlocksGovernmentID(t *testing.T) {
	s := NewSanitizer()

	payload := map[string]any{
		"emergency_contact_phone": "555-867-5309",
		"ssn":                     "123-45-6789",
		"plan_steps":              []any{"call sister", "use box breathing"},
	}

	out, report, err := s.Sanitize(payload, emergencyCtx())
	require.NoError(t, err)

	assert.NotContains(t, out, "ssn", "government ID must be removed even under emergency bypass")
	assert.Contains(t, out, "emergency_contact_phone", "contact must survive under the named exemption")
	assert.Equal(t, ExemptionEmergencyContact, report.Kept["emergency_contact_phone"])
	assert.Contains(t, report.Removed, "ssn")
}

func TestSanitize_ExemptionInactiveOutsideEmergency(t *testing.T) {
	s := NewSanitizer()
	ctx := Context{
		Kind:       models.KindUpload,
		EntityType: models.EntityCrisisPlan,
		Emergency:  false, // exemption named but its condition does not hold
		Exemptions: []string{ExemptionEmergencyContact},
	}

	out, report, err := s.Sanitize(map[string]any{"emergency_contact_phone": "555-867-5309"}, ctx)
	require.NoError(t, err)

	assert.NotContains(t, out, "emergency_contact_phone")
	assert.Empty(t, report.Kept)
}

func TestSanitize_CriticalExemptionRejected(t *testing.T) {
	s := NewSanitizer()
	ctx := emergencyCtx()
	ctx.Exemptions = append(ctx.Exemptions, "keep-ssn-emergency")

	_, _, err := s.Sanitize(map[string]any{"mood": 3}, ctx)
	assert.ErrorIs(t, err, models.ErrPIIViolation)
}

// ─────────────────────────────────────────────────────────────────────────────
// Free-text redaction
// ─────────────────────────────────────────────────────────────────────────────

func TestSanitize_FreeTextRedaction(t *testing.T) {
	s := NewSanitizer()
	ctx := Context{Kind: models.KindUpload, EntityType: models.EntityJournalEntry}

	out, report, err := s.Sanitize(map[string]any{
		"note": "therapist is reachable at doc@clinic.org, my ssn 123-45-6789",
	}, ctx)
	require.NoError(t, err)

	got := out["note"].(string)
	assert.NotContains(t, got, "doc@clinic.org")
	assert.NotContains(t, got, "123-45-6789")
	assert.Contains(t, got, "[redacted:email]")
	assert.Contains(t, got, "[redacted:government_id]")
	assert.Contains(t, report.Redacted, "note")
}
