package models

import "time"

// Priority is the scheduling class of a sync operation. Higher values are
// served strictly before lower ones.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCrisis
	PriorityEmergency
)

// PriorityCount is the number of scheduler lanes.
const PriorityCount = 5

func (p Priority) String() string {
	switch p {
	case PriorityEmergency:
		return "emergency"
	case PriorityCrisis:
		return "crisis"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the five defined lanes.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityEmergency
}

// IsCrisis reports whether operations of this class are served by the
// reserved crisis workers.
func (p Priority) IsCrisis() bool {
	return p >= PriorityCrisis
}

// DefaultResponseTime is the SLA applied to an operation of this class when
// no CrisisEnvelope overrides it.
func (p Priority) DefaultResponseTime() time.Duration {
	switch p {
	case PriorityEmergency:
		return 100 * time.Millisecond
	case PriorityCrisis:
		return 200 * time.Millisecond
	case PriorityHigh:
		return 2 * time.Second
	case PriorityNormal:
		return 30 * time.Second
	default:
		return 5 * time.Minute
	}
}

// ParsePriority maps a wire-format priority name to its Priority value.
// Unknown names map to PriorityNormal so a malformed producer cannot starve
// its own traffic into the low lane or jump the crisis lanes.
func ParsePriority(s string) Priority {
	switch s {
	case "emergency":
		return PriorityEmergency
	case "crisis":
		return PriorityCrisis
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}
