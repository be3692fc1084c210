package service_test

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/clinictask/internal/domain"
	"github.com/mtlprog/clinictask/internal/service"
)

// FollowUpPolicyTestSuite is the test suite for FollowUpPolicy.
type FollowUpPolicyTestSuite struct {
	engineSuite
}

func (s *FollowUpPolicyTestSuite) cancelled(appointmentID string) *domain.Task {
	task, created, err := s.policy.HandleAppointmentStatusChange(s.ctx, service.AppointmentEvent{
		ClinicID:      "c1",
		PatientID:     "patient-1",
		AppointmentID: appointmentID,
		NewStatus:     "cancelled",
		OccurredAt:    s.clock(),
	})
	s.Require().NoError(err)
	s.Require().True(created)
	return task
}

func (s *FollowUpPolicyTestSuite) TestCreateFollowUp_ConcurrentCallsCreateOnce() {
	const callers = 16
	var (
		created atomic.Int32
		ids     [callers]string
	)

	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			task, isNew, err := s.policy.CreateFollowUp(s.ctx, domain.SystemActor, service.FollowUpRequest{
				ClinicID:  "c1",
				PatientID: "patient-1",
				EntityID:  "appt-7",
				Kind:      domain.FollowUpKindNoShow,
				DueAt:     s.now.Add(24 * time.Hour),
			})
			if err != nil {
				return err
			}
			if isNew {
				created.Add(1)
			}
			ids[i] = task.ID
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(int32(1), created.Load())
	for _, id := range ids {
		s.Equal(ids[0], id)
	}
	s.Len(s.pendingFollowUps("c1"), 1)
	s.Len(s.activity.Entries("c1"), 1)
}

// TestLineage_EndToEnd walks a cancelled appointment through every attempt.
func (s *FollowUpPolicyTestSuite) TestLineage_EndToEnd() {
	t1 := s.cancelled("appt-1")
	s.Equal(time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC), *t1.DueDate)
	s.Equal(1, t1.FollowUp.Attempt)
	s.Equal(domain.EntityTypeAppointment, t1.Entity.Type)
	s.Equal("Reschedule cancelled appointment", t1.Title)
	s.True(t1.IsAssignedTo("coord-1"))
	s.True(t1.IsSystemGenerated)
	s.Equal(domain.SystemActor.Name, t1.CreatedByUserID)

	s.setClock(time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC))

	second, err := s.policy.NextAttempt(s.ctx, s.staff, "c1", t1.ID)
	s.Require().NoError(err)
	s.False(second.Exhausted)
	s.Equal(domain.TaskStatusDone, second.Previous.Status)
	t2 := second.Next
	s.Require().NotNil(t2)
	s.Equal(2, t2.FollowUp.Attempt)
	s.Equal(time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC), *t2.DueDate)
	s.Equal("Reschedule cancelled appointment (attempt 2)", t2.Title)
	s.Equal(t1.Entity.ID, t2.Entity.ID)
	s.Equal("coord-1", t2.CreatedByUserID)

	third, err := s.policy.NextAttempt(s.ctx, s.staff, "c1", t2.ID)
	s.Require().NoError(err)
	s.True(third.Exhausted)
	s.Nil(third.Next)
	s.Equal(domain.TaskStatusDone, third.Previous.Status)

	s.True(s.directory.IsCold("c1", "patient-1"))
	s.Equal(1, s.directory.ColdMarks("c1", "patient-1"))
	s.Empty(s.pendingFollowUps("c1"))

	_, err = s.policy.NextAttempt(s.ctx, s.staff, "c1", t2.ID)
	s.ErrorIs(err, domain.ErrIllegalState)
	s.Equal(1, s.directory.ColdMarks("c1", "patient-1"))
}

func (s *FollowUpPolicyTestSuite) TestNextAttempt_ConcurrentAdvanceSucceedsOnce() {
	t1 := s.cancelled("appt-2")

	const callers = 8
	var succeeded, illegal atomic.Int32
	var g errgroup.Group
	for range callers {
		g.Go(func() error {
			_, err := s.policy.NextAttempt(s.ctx, s.staff, "c1", t1.ID)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrIllegalState):
				illegal.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(int32(1), succeeded.Load())
	s.Equal(int32(callers-1), illegal.Load())

	open := s.pendingFollowUps("c1")
	s.Require().Len(open, 1)
	s.Equal(2, open[0].FollowUp.Attempt)
}

func (s *FollowUpPolicyTestSuite) TestNextAttempt_ConcurrentEscalationMarksColdOnce() {
	s.rules.setReactivation("c1", domain.ReactivationRules{
		MaxAttempts:              1,
		DaysBetweenAttempts:      3,
		MarkColdAfterMaxAttempts: true,
		InactivityDaysThreshold:  90,
	})
	t1 := s.cancelled("appt-3")

	var g errgroup.Group
	for range 6 {
		g.Go(func() error {
			_, err := s.policy.NextAttempt(s.ctx, s.staff, "c1", t1.ID)
			if err != nil && !errors.Is(err, domain.ErrIllegalState) {
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(1, s.directory.ColdMarks("c1", "patient-1"))
	s.Empty(s.pendingFollowUps("c1"))
}

func (s *FollowUpPolicyTestSuite) TestNextAttempt_NoColdMarkWhenDisabled() {
	s.rules.setReactivation("c1", domain.ReactivationRules{
		MaxAttempts:             1,
		DaysBetweenAttempts:     3,
		InactivityDaysThreshold: 90,
	})
	t1 := s.cancelled("appt-4")

	result, err := s.policy.NextAttempt(s.ctx, s.staff, "c1", t1.ID)
	s.Require().NoError(err)
	s.True(result.Exhausted)
	s.False(s.directory.IsCold("c1", "patient-1"))
}

func (s *FollowUpPolicyTestSuite) TestNextAttempt_RejectsTaskOutsideLineage() {
	task := s.createTask("Manual task", nil)

	_, err := s.policy.NextAttempt(s.ctx, s.staff, "c1", task.ID)
	s.ErrorIs(err, domain.ErrIllegalState)

	detail, err := s.taskService.GetTask(s.ctx, "c1", task.ID)
	s.Require().NoError(err)
	s.Equal(domain.TaskStatusPending, detail.Task.Status)
}

func (s *FollowUpPolicyTestSuite) TestNextAttempt_ConfigErrorLeavesTaskOpen() {
	t1 := s.cancelled("appt-5")
	s.rules.fail(fmt.Errorf("%w: rules service timeout", domain.ErrConfigFetch))

	_, err := s.policy.NextAttempt(s.ctx, s.staff, "c1", t1.ID)
	s.ErrorIs(err, domain.ErrConfigFetch)

	open := s.pendingFollowUps("c1")
	s.Require().Len(open, 1)
	s.Equal(t1.ID, open[0].ID)
}

func (s *FollowUpPolicyTestSuite) TestNextAttempt_InvalidRulesAreConfigErrors() {
	t1 := s.cancelled("appt-6")
	s.rules.setReactivation("c1", domain.ReactivationRules{MaxAttempts: 0, DaysBetweenAttempts: 3, InactivityDaysThreshold: 90})

	_, err := s.policy.NextAttempt(s.ctx, s.staff, "c1", t1.ID)
	s.ErrorIs(err, domain.ErrConfigFetch)
	s.Len(s.pendingFollowUps("c1"), 1)
}

func (s *FollowUpPolicyTestSuite) TestNextAttempt_ColdMarkFailureAbortsAdvance() {
	s.rules.setReactivation("c1", domain.ReactivationRules{
		MaxAttempts:              1,
		DaysBetweenAttempts:      3,
		MarkColdAfterMaxAttempts: true,
		InactivityDaysThreshold:  90,
	})
	task, _, err := s.policy.CreateFollowUp(s.ctx, domain.SystemActor, service.FollowUpRequest{
		ClinicID:  "c1",
		PatientID: "patient-unknown",
		EntityID:  "appt-8",
		Kind:      domain.FollowUpKindCancelled,
		DueAt:     s.now,
	})
	s.Require().NoError(err)

	_, err = s.policy.NextAttempt(s.ctx, s.staff, "c1", task.ID)
	s.ErrorIs(err, domain.ErrPatientNotFound)

	detail, err := s.taskService.GetTask(s.ctx, "c1", task.ID)
	s.Require().NoError(err)
	s.Equal(domain.TaskStatusPending, detail.Task.Status)
}

func (s *FollowUpPolicyTestSuite) TestHandleAppointmentStatusChange() {
	task, created, err := s.policy.HandleAppointmentStatusChange(s.ctx, service.AppointmentEvent{
		ClinicID: "c1", PatientID: "patient-1", AppointmentID: "appt-1", NewStatus: "completed",
	})
	s.Require().NoError(err)
	s.Nil(task)
	s.False(created)

	_, _, err = s.policy.HandleAppointmentStatusChange(s.ctx, service.AppointmentEvent{
		ClinicID: "c1", PatientID: "patient-1", AppointmentID: "appt-1",
	})
	s.ErrorIs(err, domain.ErrValidation)

	_, _, err = s.policy.HandleAppointmentStatusChange(s.ctx, service.AppointmentEvent{
		ClinicID: "c1", AppointmentID: "appt-1", NewStatus: "no_show",
	})
	s.ErrorIs(err, domain.ErrValidation)

	// An event reported late would be due in the past; the deadline is clamped to now.
	task, created, err = s.policy.HandleAppointmentStatusChange(s.ctx, service.AppointmentEvent{
		ClinicID:      "c1",
		PatientID:     "patient-1",
		AppointmentID: "appt-9",
		NewStatus:     "no_show",
		OccurredAt:    s.now.AddDate(0, 0, -10),
	})
	s.Require().NoError(err)
	s.True(created)
	s.Equal(s.now, *task.DueDate)
	s.Equal("Contact patient after missed appointment", task.Title)
	s.Equal(domain.FollowUpKindNoShow, task.FollowUp.Kind)

	_, _, err = s.policy.HandleAppointmentStatusChange(s.ctx, service.AppointmentEvent{
		ClinicID: "c2", PatientID: "patient-1", AppointmentID: "appt-1", NewStatus: "cancelled",
	})
	s.ErrorIs(err, domain.ErrConfigFetch)
}

func (s *FollowUpPolicyTestSuite) TestHandlePatientInactive() {
	rules := domain.ReactivationRules{InactivityDaysThreshold: 90}
	cutoff := rules.InactiveSince(s.now)

	task, created, err := s.policy.HandlePatientInactive(s.ctx, service.InactivityEvent{
		ClinicID: "c1", PatientID: "patient-2", LastVisitAt: cutoff,
	})
	s.Require().NoError(err)
	s.Nil(task)
	s.False(created)

	task, created, err = s.policy.HandlePatientInactive(s.ctx, service.InactivityEvent{
		ClinicID: "c1", PatientID: "patient-1", LastVisitAt: cutoff.Add(-time.Second),
	})
	s.Require().NoError(err)
	s.True(created)
	s.Equal(domain.EntityTypePatient, task.Entity.Type)
	s.Equal("patient-1", task.Entity.ID)
	s.Equal(s.now.AddDate(0, 0, 3), *task.DueDate)
	s.Equal("Reactivate inactive patient", task.Title)

	_, _, err = s.policy.HandlePatientInactive(s.ctx, service.InactivityEvent{ClinicID: "c1", PatientID: "patient-1"})
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *FollowUpPolicyTestSuite) TestProcessInactivePatients() {
	result, err := s.policy.ProcessInactivePatients(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(service.SweepResult{Scanned: 2, Created: 2}, *result)

	again, err := s.policy.ProcessInactivePatients(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(service.SweepResult{Scanned: 2, Existing: 2}, *again)

	open := s.pendingFollowUps("c1")
	s.Require().Len(open, 2)
	patients := []string{*open[0].PatientID, *open[1].PatientID}
	s.ElementsMatch([]string{"patient-1", "patient-3"}, patients)

	s.Require().NoError(s.directory.MarkPatientCold(s.ctx, "c1", "patient-3"))
	third, err := s.policy.ProcessInactivePatients(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(1, third.Scanned)
}

func (s *FollowUpPolicyTestSuite) TestRouting() {
	s.rules.followUp["c1"] = domain.FollowUpRules{AutoAssignRole: "pharmacist"}
	task, _, err := s.policy.CreateFollowUp(s.ctx, domain.SystemActor, service.FollowUpRequest{
		ClinicID: "c1", PatientID: "patient-1", EntityID: "appt-10", Kind: domain.FollowUpKindCancelled, DueAt: s.now,
	})
	s.Require().NoError(err)
	s.Nil(task.AssignedToUserID)

	s.rules.followUp["c1"] = domain.FollowUpRules{}
	task, _, err = s.policy.CreateFollowUp(s.ctx, domain.SystemActor, service.FollowUpRequest{
		ClinicID: "c1", PatientID: "patient-1", EntityID: "appt-11", Kind: domain.FollowUpKindCancelled, DueAt: s.now,
	})
	s.Require().NoError(err)
	s.Nil(task.AssignedToUserID)
}

func TestFollowUpPolicyTestSuite(t *testing.T) {
	suite.Run(t, new(FollowUpPolicyTestSuite))
}
