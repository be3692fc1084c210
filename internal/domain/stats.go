package domain

import "time"

// StatsPeriod bounds a statistics window.
type StatsPeriod struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the period.
func (p StatsPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// AssigneeStats holds workload figures for one staff member.
type AssigneeStats struct {
	UserID            string
	Pending           int
	CompletedInPeriod int
	CancelledInPeriod int
}

// TaskStats summarizes the task inbox of a clinic.
type TaskStats struct {
	CreatedInPeriod int
	ByStatus        map[TaskStatus]int
	OverdueCount    int
	Assignees       []AssigneeStats
}

// CompletionRate is the share of done tasks among all tasks, in percent.
func (s *TaskStats) CompletionRate() float64 {
	total := 0
	for _, count := range s.ByStatus {
		total += count
	}
	if total == 0 {
		return 0
	}
	return float64(s.ByStatus[TaskStatusDone]) / float64(total) * 100
}
