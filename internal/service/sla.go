package service

import (
	"time"

	"github.com/mtlprog/clinictask/internal/domain"
)

// alertSLA is the response deadline per alert severity, measured from the
// moment the alert was raised.
var alertSLA = map[domain.AlertSeverity]time.Duration{
	domain.AlertSeverityCritical: time.Hour,
	domain.AlertSeverityWarning:  24 * time.Hour,
	domain.AlertSeverityInfo:     72 * time.Hour,
}

// AlertDueDate calculates the deadline of the task created for an alert.
func AlertDueDate(alert *domain.Alert) time.Time {
	return alert.CreatedAt.Add(alertSLA[alert.Severity])
}

// AlertPriority maps alert severity to task priority.
func AlertPriority(severity domain.AlertSeverity) domain.TaskPriority {
	switch severity {
	case domain.AlertSeverityCritical:
		return domain.TaskPriorityHigh
	case domain.AlertSeverityWarning:
		return domain.TaskPriorityNormal
	default:
		return domain.TaskPriorityLow
	}
}

// notBefore moves a deadline that already passed up to floor so a task is
// never due before it exists.
func notBefore(due, floor time.Time) time.Time {
	if due.Before(floor) {
		return floor
	}
	return due
}
