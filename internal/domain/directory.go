package domain

import "time"

// PatientRef is the slice of a patient record that task listings display.
type PatientRef struct {
	ID    string
	Name  string
	Phone string
}

// UserRef is a staff member as shown next to a task.
type UserRef struct {
	ID   string
	Name string
	Role string
}

// PatientActivity carries the last visit of a patient for inactivity sweeps.
type PatientActivity struct {
	PatientID   string
	LastVisitAt time.Time
}
