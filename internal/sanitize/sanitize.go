// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package sanitize

import (
	"fmt"
	"sort"

	"github.com/havenmind/syncd/models"
)

// Exemption names under which otherwise-removable PII may be kept.
const (
	// ExemptionEmergencyContact keeps contact fields (phone, email,
	// full name) during an active emergency so responders can reach the
	// user's designated contacts.
	ExemptionEmergencyContact = "emergency-contact-crisis-exception"

	// ExemptionClinicalIdentity keeps name and date-of-birth fields in a
	// therapeutic context on the clinical tier, where the treating
	// clinician requires a positively identified record.
	ExemptionClinicalIdentity = "clinical-identity-exception"
)

// Context describes the operation a payload belongs to. It controls which
// exemptions are considered during sanitization.
type Context struct {
	Kind        models.OperationKind
	EntityType  models.EntityType
	Therapeutic bool
	Emergency   bool

	// Exemptions is the set of named exemptions active for this context.
	// Unknown names are ignored; names targeting critical categories fail
	// the whole call with models.ErrPIIViolation.
	Exemptions []string
}

// Finding is one field-level detection in the report.
type Finding struct {
	Field    string   `json:"field"`
	Category Category `json:"category"`
}

// Report lists everything the sanitizer did to a payload.
type Report struct {
	// Detected is every PII finding, removed or kept.
	Detected []Finding `json:"detected"`

	// Removed is the fields that were stripped, in sorted order.
	Removed []string `json:"removed"`

	// Kept maps a retained field to the exemption that kept it.
	Kept map[string]string `json:"kept,omitempty"`

	// Redacted is the free-text fields that had embedded identifiers
	// replaced with redaction markers.
	Redacted []string `json:"redacted,omitempty"`
}

// Sanitizer classifies payload fields by sensitivity and strips or redacts
// personally identifying data. It is stateless and safe for concurrent use.
type Sanitizer struct{}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize returns a sanitized copy of payload plus a report of every
// detection. The input map is never mutated.
//
// Policy:
//   - critical categories (government ID, payment card) are always
//     removed, regardless of ctx;
//   - an exemption in ctx that would cover a critical category fails the
//     call with models.ErrPIIViolation;
//   - all other PII is removed unless a named exemption active in ctx
//     covers that field's category.
func (s *Sanitizer) Sanitize(payload map[string]any, ctx Context) (map[string]any, Report, error) {
	report := Report{Kept: make(map[string]string)}

	if err := checkExemptions(ctx.Exemptions); err != nil {
		return nil, Report{}, err
	}

	out, err := s.sanitizeMap(payload, ctx, "", &report)
	if err != nil {
		return nil, Report{}, err
	}

	sort.Slice(report.Detected, func(i, j int) bool { return report.Detected[i].Field < report.Detected[j].Field })
	sort.Strings(report.Removed)
	sort.Strings(report.Redacted)
	if len(report.Kept) == 0 {
		report.Kept = nil
	}
	return out, report, nil
}

func (s *Sanitizer) sanitizeMap(in map[string]any, ctx Context, prefix string, report *Report) (map[string]any, error) {
	out := make(map[string]any, len(in))

	for name, value := range in {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		// Nested structures are walked before field-level rules so a
		// clean container keeps its clean children.
		switch v := value.(type) {
		case map[string]any:
			child, err := s.sanitizeMap(v, ctx, path, report)
			if err != nil {
				return nil, err
			}
			out[name] = child
			continue
		case []any:
			child, err := s.sanitizeSlice(v, ctx, path, report)
			if err != nil {
				return nil, err
			}
			out[name] = child
			continue
		}

		category := classifyName(name)
		if category == "" {
			if str, ok := value.(string); ok {
				category = classifyWholeValue(str)
			}
		}

		if category == "" {
			// Clean field name and value; scan string prose for
			// embedded identifiers.
			if str, ok := value.(string); ok {
				redacted, found := redactFreeText(str)
				if len(found) > 0 {
					report.Redacted = append(report.Redacted, path)
					for _, c := range found {
						report.Detected = append(report.Detected, Finding{Field: path, Category: c})
					}
				}
				out[name] = redacted
				continue
			}
			out[name] = value
			continue
		}

		report.Detected = append(report.Detected, Finding{Field: path, Category: category})

		if category.Critical() {
			// Never carried through, even under emergency bypass.
			report.Removed = append(report.Removed, path)
			continue
		}

		if exemption := matchExemption(ctx, name, category); exemption != "" {
			report.Kept[path] = exemption
			out[name] = value
			continue
		}

		report.Removed = append(report.Removed, path)
	}

	return out, nil
}

func (s *Sanitizer) sanitizeSlice(in []any, ctx Context, prefix string, report *Report) ([]any, error) {
	out := make([]any, 0, len(in))
	for i, item := range in {
		path := fmt.Sprintf("%s[%d]", prefix, i)
		switch v := item.(type) {
		case map[string]any:
			child, err := s.sanitizeMap(v, ctx, path, report)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		case string:
			redacted, found := redactFreeText(v)
			if len(found) > 0 {
				report.Redacted = append(report.Redacted, path)
				for _, c := range found {
					report.Detected = append(report.Detected, Finding{Field: path, Category: c})
				}
			}
			out = append(out, redacted)
		default:
			out = append(out, item)
		}
	}
	return out, nil
}

// exemptionPolicy maps exemption names to the categories they may keep and
// the context condition under which they apply.
var exemptionPolicy = map[string]struct {
	categories []Category
	applies    func(ctx Context) bool
}{
	ExemptionEmergencyContact: {
		categories: []Category{CategoryPhone, CategoryEmail, CategoryFullName},
		applies:    func(ctx Context) bool { return ctx.Emergency },
	},
	ExemptionClinicalIdentity: {
		categories: []Category{CategoryFullName, CategoryDOB},
		applies:    func(ctx Context) bool { return ctx.Therapeutic },
	},
}

// checkExemptions rejects any attempt to name an exemption for a critical
// category. The policy table cannot express one, so the only way a caller
// could try is by inventing a name containing a critical category keyword;
// those are refused outright rather than ignored.
func checkExemptions(names []string) error {
	for _, name := range names {
		if _, known := exemptionPolicy[name]; known {
			continue
		}
		if classifyName(name) != "" && classifyName(name).Critical() {
			return fmt.Errorf("%w: exemption %q targets a critical category", models.ErrPIIViolation, name)
		}
	}
	return nil
}

func matchExemption(ctx Context, field string, category Category) string {
	for _, name := range ctx.Exemptions {
		policy, ok := exemptionPolicy[name]
		if !ok || !policy.applies(ctx) {
			continue
		}
		for _, c := range policy.categories {
			if c == category {
				return name
			}
		}
	}
	return ""
}
