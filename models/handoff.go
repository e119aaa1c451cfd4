package models

import "time"

// SessionType names the kinds of in-progress therapeutic sessions that can
// be transferred between devices.
type SessionType string

const (
	SessionAssessment SessionType = "assessment"
	SessionBreathing  SessionType = "breathing_exercise"
	SessionGrounding  SessionType = "grounding_exercise"
	SessionCheckIn    SessionType = "check_in"
)

// HandoffStatus is the outcome of a session-handoff offer.
type HandoffStatus string

const (
	HandoffAccepted HandoffStatus = "accepted"
	HandoffRejected HandoffStatus = "rejected"
	HandoffTimeout  HandoffStatus = "timeout"
)

// DefaultHandoffTimeout is how long the originating device waits for the
// target to accept before resuming locally.
const DefaultHandoffTimeout = 30 * time.Second

// SessionProgress is the transferable snapshot of a session's state.
type SessionProgress struct {
	Step               int            `json:"step"`
	TotalSteps         int            `json:"total_steps"`
	PercentComplete    float64        `json:"percent_complete"`
	TherapeuticContext map[string]any `json:"therapeutic_context,omitempty"`
}

// HandoffFlags carries the therapeutic-continuity requirements of the
// session being transferred.
type HandoffFlags struct {
	NeedsContinuity bool `json:"needs_continuity"`
	CanPause        bool `json:"can_pause"`
}

// HandoffMessage is the wire shape of a session-handoff offer. Token is a
// short-lived signed credential the target presents when picking up the
// session.
type HandoffMessage struct {
	SessionID      string          `json:"session_id"`
	SessionType    SessionType     `json:"session_type"`
	Progress       SessionProgress `json:"progress"`
	SourceDeviceID string          `json:"source_device_id"`
	TargetDeviceID string          `json:"target_device_id"`
	Flags          HandoffFlags    `json:"flags"`
	Token          string          `json:"token,omitempty"`
	OfferedAt      time.Time       `json:"offered_at"`
}
