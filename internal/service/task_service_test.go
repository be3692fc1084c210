package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/clinictask/internal/config"
	"github.com/mtlprog/clinictask/internal/domain"
	"github.com/mtlprog/clinictask/internal/repository/memory"
	"github.com/mtlprog/clinictask/internal/service"
)

// TaskServiceTestSuite is the test suite for TaskService.
type TaskServiceTestSuite struct {
	engineSuite
}

func (s *TaskServiceTestSuite) TestCreateTask_Defaults() {
	task := s.createTask("Call lab", nil)

	s.Equal(domain.TaskStatusPending, task.Status)
	s.Equal(domain.TaskPriorityNormal, task.Priority)
	s.Equal(domain.TaskSourceManual, task.Source)
	s.Equal("coord-1", task.CreatedByUserID)
	s.False(task.IsSystemGenerated)
	s.Equal(s.now, task.CreatedAt)

	entries := s.activity.Entries("c1")
	s.Require().Len(entries, 1)
	s.Equal(domain.ActivityActionCreate, entries[0].Action)
	s.Equal(`create "Call lab"`, entries[0].Message)
	s.Require().NotNil(entries[0].ActorUserID)
	s.Equal("coord-1", *entries[0].ActorUserID)
}

func (s *TaskServiceTestSuite) TestCreateTask_SystemActor() {
	task, err := s.taskService.CreateTask(s.ctx, domain.SystemActor, service.CreateTaskParams{
		ClinicID: "c1",
		Title:    "Assistant suggestion",
		Type:     domain.TaskTypeOther,
		Source:   domain.TaskSourceAI,
	})
	s.Require().NoError(err)

	s.Equal(domain.SystemActor.Name, task.CreatedByUserID)
	s.True(task.IsSystemGenerated)
	s.Equal(domain.TaskSourceAI, task.Source)
	s.True(s.activity.Entries("c1")[0].IsSystemEvent())
}

func (s *TaskServiceTestSuite) TestCreateTask_Rejections() {
	cases := []struct {
		name   string
		params service.CreateTaskParams
	}{
		{"missing clinic", service.CreateTaskParams{Title: "x", Type: domain.TaskTypeOther}},
		{"blank title", service.CreateTaskParams{ClinicID: "c1", Title: "  ", Type: domain.TaskTypeOther}},
		{"unknown type", service.CreateTaskParams{ClinicID: "c1", Title: "x", Type: "surgery"}},
		{"unknown priority", service.CreateTaskParams{ClinicID: "c1", Title: "x", Type: domain.TaskTypeOther, Priority: "urgent"}},
		{"alert source", service.CreateTaskParams{ClinicID: "c1", Title: "x", Type: domain.TaskTypeLabs, Source: domain.TaskSourceAlert}},
		{"due before creation", service.CreateTaskParams{
			ClinicID: "c1", Title: "x", Type: domain.TaskTypeOther, DueDate: ptr(s.now.Add(-time.Minute)),
		}},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.taskService.CreateTask(s.ctx, s.staff, tc.params)
			s.ErrorIs(err, domain.ErrValidation)
		})
	}
	s.Empty(s.activity.Entries("c1"))
}

func (s *TaskServiceTestSuite) TestUpdateStatus_TerminalIsFinal() {
	task := s.createTask("Send referral", nil)

	done, err := s.taskService.UpdateStatus(s.ctx, s.staff, "c1", task.ID, domain.TaskStatusDone)
	s.Require().NoError(err)
	s.Equal(domain.TaskStatusDone, done.Status)

	_, err = s.taskService.UpdateStatus(s.ctx, s.staff, "c1", task.ID, domain.TaskStatusPending)
	s.ErrorIs(err, domain.ErrIllegalState)

	_, err = s.taskService.UpdateStatus(s.ctx, s.staff, "c1", task.ID, domain.TaskStatusCancelled)
	s.ErrorIs(err, domain.ErrIllegalState)

	again, err := s.taskService.UpdateStatus(s.ctx, s.staff, "c1", task.ID, domain.TaskStatusDone)
	s.Require().NoError(err)
	s.Equal(domain.TaskStatusDone, again.Status)

	_, err = s.taskService.UpdateStatus(s.ctx, s.staff, "c1", task.ID, "reopened")
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.taskService.UpdateStatus(s.ctx, s.staff, "c1", "missing", domain.TaskStatusDone)
	s.ErrorIs(err, domain.ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestAssign() {
	task := s.createTask("Book scan", nil)

	assigned, err := s.taskService.Assign(s.ctx, s.staff, "c1", task.ID, ptr("nurse-1"))
	s.Require().NoError(err)
	s.True(assigned.IsAssignedTo("nurse-1"))

	cleared, err := s.taskService.Assign(s.ctx, s.staff, "c1", task.ID, ptr(""))
	s.Require().NoError(err)
	s.Nil(cleared.AssignedToUserID)

	_, err = s.taskService.UpdateStatus(s.ctx, s.staff, "c1", task.ID, domain.TaskStatusCancelled)
	s.Require().NoError(err)

	reassigned, err := s.taskService.Assign(s.ctx, s.staff, "c1", task.ID, ptr("coord-1"))
	s.Require().NoError(err)
	s.True(reassigned.IsAssignedTo("coord-1"))
	s.Equal(domain.TaskStatusCancelled, reassigned.Status)
}

func (s *TaskServiceTestSuite) TestSnooze() {
	task := s.createTask("Recall patient", ptr(s.now.Add(time.Hour)))
	until := s.now.Add(48 * time.Hour)

	snoozed, err := s.taskService.Snooze(s.ctx, s.staff, "c1", task.ID, until)
	s.Require().NoError(err)
	s.Equal(until, *snoozed.DueDate)
	s.Equal(until, *snoozed.SnoozedUntil)

	_, err = s.taskService.Snooze(s.ctx, s.staff, "c1", task.ID, s.now)
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *TaskServiceTestSuite) TestSnooze_TerminalTaskUnchanged() {
	due := s.now.Add(time.Hour)
	task := s.createTask("Archive scan", &due)
	_, err := s.taskService.UpdateStatus(s.ctx, s.staff, "c1", task.ID, domain.TaskStatusDone)
	s.Require().NoError(err)
	before := len(s.activity.Entries("c1"))

	got, err := s.taskService.Snooze(s.ctx, s.staff, "c1", task.ID, s.now.Add(72*time.Hour))
	s.Require().NoError(err)
	s.Equal(domain.TaskStatusDone, got.Status)
	s.Equal(due, *got.DueDate)
	s.Nil(got.SnoozedUntil)
	s.Len(s.activity.Entries("c1"), before)
}

func (s *TaskServiceTestSuite) TestCrossClinicAccess() {
	task := s.createTask("Clinic one only", nil)

	_, err := s.taskService.GetTask(s.ctx, "c2", task.ID)
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.taskService.UpdateStatus(s.ctx, s.staff, "c2", task.ID, domain.TaskStatusDone)
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.policy.NextAttempt(s.ctx, s.staff, "c2", task.ID)
	s.ErrorIs(err, domain.ErrValidation)

	detail, err := s.taskService.GetTask(s.ctx, "c1", task.ID)
	s.Require().NoError(err)
	s.Equal(domain.TaskStatusPending, detail.Task.Status)
}

func (s *TaskServiceTestSuite) TestGetTask_IncludesActivity() {
	task := s.createTask("Audit me", nil)
	_, err := s.taskService.Assign(s.ctx, s.staff, "c1", task.ID, ptr("nurse-1"))
	s.Require().NoError(err)

	detail, err := s.taskService.GetTask(s.ctx, "c1", task.ID)
	s.Require().NoError(err)
	s.Require().Len(detail.Activity, 2)
	s.Equal(domain.ActivityActionCreate, detail.Activity[0].Action)
	s.Equal(domain.ActivityActionAssign, detail.Activity[1].Action)
}

func (s *TaskServiceTestSuite) TestListTasks_OrderAndEnrichment() {
	start := s.now
	s.setClock(start.Add(-3 * time.Hour))
	overdue := s.createTask("Overdue", ptr(start.Add(-time.Hour)))
	s.setClock(start)

	soonLow, err := s.taskService.CreateTask(s.ctx, s.staff, service.CreateTaskParams{
		ClinicID: "c1", Title: "Soon low", Type: domain.TaskTypeOther,
		Priority: domain.TaskPriorityLow, DueDate: ptr(start.Add(time.Hour)),
	})
	s.Require().NoError(err)
	soonHigh, err := s.taskService.CreateTask(s.ctx, s.staff, service.CreateTaskParams{
		ClinicID: "c1", Title: "Soon high", Type: domain.TaskTypeOther,
		Priority: domain.TaskPriorityHigh, DueDate: ptr(start.Add(time.Hour)),
		PatientID: ptr("patient-1"), AssignedToUserID: ptr("nurse-1"),
	})
	s.Require().NoError(err)
	undated := s.createTask("Undated", nil)

	page, err := s.taskService.ListTasks(s.ctx, "c1", domain.TaskFilter{}, domain.Page{})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 4)

	ids := make([]string, len(page.Items))
	for i, item := range page.Items {
		ids[i] = item.Task.ID
	}
	s.Equal([]string{overdue.ID, soonHigh.ID, soonLow.ID, undated.ID}, ids)
	s.True(page.Items[0].IsOverdue)
	s.False(page.Items[1].IsOverdue)

	enriched := page.Items[1]
	s.Equal("Sara Ali", enriched.PatientName)
	s.Equal("+971500000001", enriched.PatientPhone)
	s.Equal("Triage Nurse", enriched.AssignedToName)
	s.Equal("Coordinator", enriched.CreatedByName)
	s.Equal(domain.DefaultPageLimit, page.Limit)
}

func (s *TaskServiceTestSuite) TestListTasks_ArchiveHidesOldTerminalTasks() {
	s.deps.Archive = config.ArchivePolicy{HideTerminalAfterDays: 30}.Predicate(s.clock)
	s.rebuild()

	finished := s.createTask("Finished long ago", nil)
	open := s.createTask("Still open", nil)
	_, err := s.taskService.UpdateStatus(s.ctx, s.staff, "c1", finished.ID, domain.TaskStatusDone)
	s.Require().NoError(err)

	page, err := s.taskService.ListTasks(s.ctx, "c1", domain.TaskFilter{}, domain.Page{})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	s.setClock(s.now.AddDate(0, 0, 31))

	page, err = s.taskService.ListTasks(s.ctx, "c1", domain.TaskFilter{}, domain.Page{})
	s.Require().NoError(err)
	s.Equal(1, page.Total)
	s.Require().Len(page.Items, 1)
	s.Equal(open.ID, page.Items[0].Task.ID)

	detail, err := s.taskService.GetTask(s.ctx, "c1", finished.ID)
	s.Require().NoError(err)
	s.Equal(domain.TaskStatusDone, detail.Task.Status)
}

// failingListStore breaks listing only.
type failingListStore struct {
	*memory.TaskStore
}

func (failingListStore) List(context.Context, domain.TaskQuery) (*domain.TaskPage, error) {
	return nil, errors.New("connection reset")
}

func (s *TaskServiceTestSuite) TestListTasks_RepositoryErrorIsReturned() {
	s.deps.Tasks = failingListStore{TaskStore: s.tasks}
	s.rebuild()

	page, err := s.taskService.ListTasks(s.ctx, "c1", domain.TaskFilter{}, domain.Page{})
	s.Error(err)
	s.Nil(page)
}

func (s *TaskServiceTestSuite) TestActivityFailureDoesNotFailMutation() {
	s.deps.Activity = brokenActivityLog{}
	s.rebuild()

	task := s.createTask("Logged or not", nil)
	_, err := s.taskService.UpdateStatus(s.ctx, s.staff, "c1", task.ID, domain.TaskStatusDone)
	s.NoError(err)
}

func (s *TaskServiceTestSuite) TestHasOpenFollowUpTask() {
	open, err := s.taskService.HasOpenFollowUpTask(s.ctx, "c1", "appt-1", domain.FollowUpKindNoShow)
	s.Require().NoError(err)
	s.False(open)

	_, _, err = s.policy.HandleAppointmentStatusChange(s.ctx, service.AppointmentEvent{
		ClinicID: "c1", PatientID: "patient-1", AppointmentID: "appt-1", NewStatus: "no_show",
	})
	s.Require().NoError(err)

	open, err = s.taskService.HasOpenFollowUpTask(s.ctx, "c1", "appt-1", domain.FollowUpKindNoShow)
	s.Require().NoError(err)
	s.True(open)

	open, err = s.taskService.HasOpenFollowUpTask(s.ctx, "c1", "appt-1", domain.FollowUpKindCancelled)
	s.Require().NoError(err)
	s.False(open)

	_, err = s.taskService.HasOpenFollowUpTask(s.ctx, "c1", "appt-1", "missed")
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *TaskServiceTestSuite) TestStats() {
	done, err := s.taskService.CreateTask(s.ctx, s.staff, service.CreateTaskParams{
		ClinicID: "c1", Title: "Done one", Type: domain.TaskTypeOther, AssignedToUserID: ptr("nurse-1"),
	})
	s.Require().NoError(err)
	_, err = s.taskService.CreateTask(s.ctx, s.staff, service.CreateTaskParams{
		ClinicID: "c1", Title: "Pending one", Type: domain.TaskTypeOther, AssignedToUserID: ptr("nurse-1"),
		DueDate: ptr(s.now.Add(time.Hour)),
	})
	s.Require().NoError(err)
	_, err = s.taskService.UpdateStatus(s.ctx, s.staff, "c1", done.ID, domain.TaskStatusDone)
	s.Require().NoError(err)

	s.setClock(s.now.Add(2 * time.Hour))

	summary, err := s.taskService.Stats(s.ctx, "c1", s.now.AddDate(0, 0, -7))
	s.Require().NoError(err)
	s.Equal(2, summary.Stats.CreatedInPeriod)
	s.Equal(1, summary.Stats.OverdueCount)
	s.InDelta(50.0, summary.CompletionRate, 0.001)
	s.Require().Len(summary.Assignees, 1)
	s.Equal("Triage Nurse", summary.Assignees[0].Name)
	s.Equal(1, summary.Assignees[0].Pending)
	s.Equal(1, summary.Assignees[0].CompletedInPeriod)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
