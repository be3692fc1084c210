package domain

import "time"

// AlertType distinguishes patient questions from lab result alerts.
type AlertType string

const (
	AlertTypeQuestion AlertType = "question"
	AlertTypeLab      AlertType = "lab"
)

// IsValid checks if the alert type is one of the allowed values.
func (t AlertType) IsValid() bool {
	return t == AlertTypeQuestion || t == AlertTypeLab
}

// AlertSeverity drives both task priority and the SLA deadline.
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityInfo     AlertSeverity = "info"
)

// IsValid checks if the severity is one of the allowed values.
func (s AlertSeverity) IsValid() bool {
	switch s {
	case AlertSeverityCritical, AlertSeverityWarning, AlertSeverityInfo:
		return true
	default:
		return false
	}
}

// Alert is an inbound clinical alert.
type Alert struct {
	ID          string
	Type        AlertType
	Severity    AlertSeverity
	PatientID   string
	Message     string
	CreatedAt   time.Time
	LabResultID *string
	LabTestName *string
	Reviewed    bool
}

// AlertPayload is the audit copy of an alert kept on the task it produced.
type AlertPayload struct {
	AlertType   AlertType     `json:"alert_type"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	CreatedAt   time.Time     `json:"created_at"`
	LabResultID *string       `json:"lab_result_id,omitempty"`
	LabTestName *string       `json:"lab_test_name,omitempty"`
	Reviewed    bool          `json:"reviewed"`
}

// Payload converts the alert into the form stored on its task.
func (a *Alert) Payload() AlertPayload {
	return AlertPayload{
		AlertType:   a.Type,
		Severity:    a.Severity,
		Message:     a.Message,
		CreatedAt:   a.CreatedAt,
		LabResultID: cloneString(a.LabResultID),
		LabTestName: cloneString(a.LabTestName),
		Reviewed:    a.Reviewed,
	}
}

func (p AlertPayload) clone() AlertPayload {
	p.LabResultID = cloneString(p.LabResultID)
	p.LabTestName = cloneString(p.LabTestName)
	return p
}
