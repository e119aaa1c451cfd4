package models

import "time"

// EscalationLevel identifies who is pulled in when an escalation fires.
type EscalationLevel string

const (
	EscalationAutomated         EscalationLevel = "automated"
	EscalationClinical          EscalationLevel = "clinical"
	EscalationEmergencyServices EscalationLevel = "emergency_services"
	EscalationLawEnforcement    EscalationLevel = "law_enforcement"
)

// EscalationReason is the machine-readable cause of an escalation.
type EscalationReason string

const (
	ReasonResponseTimeExceeded EscalationReason = "response_time_exceeded"
	ReasonCrisisLevelIncreased EscalationReason = "crisis_level_increased"
	ReasonUserUnresponsive     EscalationReason = "user_unresponsive"
	ReasonRetriesExhausted     EscalationReason = "retries_exhausted"
	ReasonDeadlineExpired      EscalationReason = "deadline_expired"
)

// EscalationRequest is emitted by the SLA monitor (and by the worker pool
// on crisis deadline expiry). Delivery is best-effort and asynchronous with
// respect to the operation that caused it.
type EscalationRequest struct {
	OperationID   string           `json:"operation_id"`
	Level         EscalationLevel  `json:"level"`
	Reason        EscalationReason `json:"reason"`
	Elapsed       time.Duration    `json:"elapsed"`
	Attempts      int              `json:"attempts"`
	ImmediateRisk bool             `json:"immediate_risk"`
	RaisedAt      time.Time        `json:"raised_at"`
}
