package models

// Hotline is one always-available crisis contact.
type Hotline struct {
	Name      string `json:"name"`
	Number    string `json:"number"`
	Available string `json:"available"`
}

// GroundingTechnique is a short self-help exercise that requires no
// backend connectivity.
type GroundingTechnique struct {
	Name  string   `json:"name"`
	Steps []string `json:"steps"`
}

// EmergencyResources is the offline-safe fallback returned whenever the
// normal path fails during a crisis-flagged operation. The content is
// compiled into the binary so it is available regardless of backend
// reachability.
type EmergencyResources struct {
	Hotlines   []Hotline            `json:"hotlines"`
	Techniques []GroundingTechnique `json:"techniques"`
}

// DefaultEmergencyResources returns the fixed fallback set. Callers receive
// a fresh copy; the canonical data is never exposed for mutation.
func DefaultEmergencyResources() EmergencyResources {
	return EmergencyResources{
		Hotlines: []Hotline{
			{Name: "988 Suicide & Crisis Lifeline", Number: "988", Available: "24/7"},
			{Name: "Crisis Text Line", Number: "text HOME to 741741", Available: "24/7"},
			{Name: "SAMHSA National Helpline", Number: "1-800-662-4357", Available: "24/7"},
		},
		Techniques: []GroundingTechnique{
			{
				Name: "Box breathing",
				Steps: []string{
					"Breathe in for 4 counts",
					"Hold for 4 counts",
					"Breathe out for 4 counts",
					"Hold for 4 counts, then repeat",
				},
			},
			{
				Name: "5-4-3-2-1 grounding",
				Steps: []string{
					"Name 5 things you can see",
					"Name 4 things you can touch",
					"Name 3 things you can hear",
					"Name 2 things you can smell",
					"Name 1 thing you can taste",
				},
			},
		},
	}
}
