package dto

import "time"

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Type             string     `json:"type"`
	Priority         string     `json:"priority,omitempty"`
	Source           string     `json:"source,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	AssignedToUserID *string    `json:"assigned_to_user_id,omitempty"`
	PatientID        *string    `json:"patient_id,omitempty"`
}

// UpdateStatusRequest represents the request body for PATCH /tasks/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AssignTaskRequest represents the request body for PATCH /tasks/:id/assignee.
// A null or empty assignee clears the assignment.
type AssignTaskRequest struct {
	AssignedToUserID *string `json:"assigned_to_user_id"`
}

// SnoozeTaskRequest represents the request body for POST /tasks/:id/snooze.
type SnoozeTaskRequest struct {
	Until time.Time `json:"until"`
}

// AppointmentEventRequest represents the request body for POST /events/appointments.
type AppointmentEventRequest struct {
	AppointmentID string     `json:"appointment_id"`
	PatientID     string     `json:"patient_id"`
	Status        string     `json:"status"`
	OccurredAt    *time.Time `json:"occurred_at,omitempty"`
}

// InactivityEventRequest represents the request body for POST /events/inactivity.
type InactivityEventRequest struct {
	PatientID   string    `json:"patient_id"`
	LastVisitAt time.Time `json:"last_visit_at"`
}

// AlertRequest represents the request body for POST /alerts.
type AlertRequest struct {
	ID          string    `json:"id"`
	AlertType   string    `json:"alert_type"`
	Severity    string    `json:"severity"`
	PatientID   string    `json:"patient_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	LabResultID *string   `json:"lab_result_id,omitempty"`
	LabTestName *string   `json:"lab_test_name,omitempty"`
	Reviewed    bool      `json:"reviewed"`
}
