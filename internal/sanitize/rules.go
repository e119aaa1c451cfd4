package sanitize

import (
	"regexp"
	"strings"
)

// Category names the PII class a rule detects. Categories are stable
// identifiers: they appear in sanitization reports and audit entries.
type Category string

const (
	// CategoryGovernmentID covers SSNs, passport and tax identifiers.
	// Critical: never carried through, no exemption applies.
	CategoryGovernmentID Category = "government_id"

	// CategoryPaymentCard covers full payment-card numbers (PAN).
	// Critical: never carried through, no exemption applies.
	CategoryPaymentCard Category = "payment_card"

	CategoryEmail    Category = "email"
	CategoryPhone    Category = "phone"
	CategoryFullName Category = "full_name"
	CategoryDOB      Category = "date_of_birth"
	CategoryAddress  Category = "address"
)

// Critical reports whether the category may never be bypassed, including
// under emergency access.
func (c Category) Critical() bool {
	return c == CategoryGovernmentID || c == CategoryPaymentCard
}

// rule is one detection entry: a field is flagged when its lowercased name
// contains any of nameHints, or when its string value matches valueShape.
type rule struct {
	category   Category
	nameHints  []string
	valueShape *regexp.Regexp
}

var (
	reEmail = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	rePhone = regexp.MustCompile(`\+?\d{1,3}[\s\-.]?\(?\d{3}\)?[\s\-.]?\d{3}[\s\-.]?\d{4}\b`)
	reSSN   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	// 13-19 digit runs, optionally separated; candidates are confirmed
	// with a Luhn check before they count as payment cards.
	reCardCandidate = regexp.MustCompile(`\b(?:\d[ \-]?){13,19}\b`)
	reDOB           = regexp.MustCompile(`\b(19|20)\d{2}[-/](0[1-9]|1[0-2])[-/](0[1-9]|[12]\d|3[01])\b`)
)

// detectionRules is the fixed rule table, checked in order. First match
// per field wins, except that critical categories are always checked
// first so a field cannot hide a card number behind an email hint.
var detectionRules = []rule{
	{
		category:   CategoryGovernmentID,
		nameHints:  []string{"ssn", "social_security", "tax_id", "passport_number", "national_id", "government_id"},
		valueShape: reSSN,
	},
	{
		category:   CategoryPaymentCard,
		nameHints:  []string{"card_number", "credit_card", "payment_card"},
		valueShape: reCardCandidate,
	},
	{
		category:   CategoryEmail,
		nameHints:  []string{"email", "e_mail"},
		valueShape: reEmail,
	},
	{
		category:   CategoryPhone,
		nameHints:  []string{"phone", "mobile", "telephone", "contact_number"},
		valueShape: rePhone,
	},
	{
		category:  CategoryFullName,
		nameHints: []string{"full_name", "first_name", "last_name", "legal_name"},
	},
	{
		category:   CategoryDOB,
		nameHints:  []string{"date_of_birth", "birth_date", "dob"},
		valueShape: reDOB,
	},
	{
		category:  CategoryAddress,
		nameHints: []string{"street_address", "home_address", "postal_address", "zip_code"},
	},
}

// luhnValid reports whether digits (after stripping separators) pass the
// Luhn checksum. Used to separate real PANs from arbitrary long numbers.
func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum, double := 0, false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// classifyName returns the category a field name hints at, or "" when the
// name is neutral.
func classifyName(name string) Category {
	lower := strings.ToLower(name)
	for _, r := range detectionRules {
		for _, hint := range r.nameHints {
			if strings.Contains(lower, hint) {
				return r.category
			}
		}
	}
	return ""
}

// classifyWholeValue returns the category when the entire trimmed value is
// a single identifier (e.g. a field holding just "123-45-6789"). Values
// that merely contain an identifier inside prose are handled by
// redactFreeText instead, so therapeutic narratives are redacted rather
// than dropped wholesale.
func classifyWholeValue(value string) Category {
	v := strings.TrimSpace(value)
	for _, r := range detectionRules {
		if r.valueShape == nil {
			continue
		}
		m := r.valueShape.FindString(v)
		if m != v || m == "" {
			continue
		}
		if r.category == CategoryPaymentCard && !luhnValid(m) {
			continue
		}
		return r.category
	}
	return ""
}

// redactFreeText replaces high-confidence identifiers embedded in prose
// with stable redaction markers. Markers do not re-match any rule, which
// keeps repeated sanitization idempotent.
func redactFreeText(s string) (string, []Category) {
	var found []Category

	if reSSN.MatchString(s) {
		s = reSSN.ReplaceAllString(s, "[redacted:government_id]")
		found = append(found, CategoryGovernmentID)
	}
	s = reCardCandidate.ReplaceAllStringFunc(s, func(m string) string {
		if !luhnValid(m) {
			return m
		}
		found = append(found, CategoryPaymentCard)
		return "[redacted:payment_card]"
	})
	if reEmail.MatchString(s) {
		s = reEmail.ReplaceAllString(s, "[redacted:email]")
		found = append(found, CategoryEmail)
	}
	return s, found
}
