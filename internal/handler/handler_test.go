package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/clinictask/internal/config"
	"github.com/mtlprog/clinictask/internal/domain"
	"github.com/mtlprog/clinictask/internal/handler"
	"github.com/mtlprog/clinictask/internal/handler/dto"
	"github.com/mtlprog/clinictask/internal/middleware"
	"github.com/mtlprog/clinictask/internal/repository/memory"
	"github.com/mtlprog/clinictask/internal/service"
)

const testRules = `
clinics:
  c1:
    follow_up:
      auto_assign_role: coordinator
      triage_user_id: nurse-1
    reactivation:
      max_attempts: 2
      days_between_attempts: 3
      mark_cold_after_max_attempts: true
      inactivity_days_threshold: 90
  c2:
    follow_up:
      auto_assign_role: ""
`

type HandlerTestSuite struct {
	suite.Suite
	mux       *http.ServeMux
	now       time.Time
	directory *memory.Directory
}

func (s *HandlerTestSuite) SetupTest() {
	s.now = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	rules, err := config.ParseRules([]byte(testRules))
	s.Require().NoError(err)

	s.directory = memory.NewDirectory()
	s.directory.AddUser("c1", domain.UserRef{ID: "coord-1", Name: "Coordinator", Role: "coordinator"})
	s.directory.AddUser("c1", domain.UserRef{ID: "nurse-1", Name: "Triage Nurse", Role: "nurse"})
	s.directory.AddPatient("c1", domain.PatientRef{ID: "patient-1", Name: "Sara Ali", Phone: "+971500000001"},
		s.now.AddDate(0, 0, -200))

	h := handler.New(handler.Config{
		Deps: service.Dependencies{
			Tasks:    memory.NewTaskStore(clock),
			Activity: memory.NewActivityLog(clock),
			Rules:    rules,
			Patients: s.directory,
			Staff:    s.directory,
			Now:      clock,
		},
		Clinics: rules.ClinicIDs(),
	})

	s.mux = http.NewServeMux()
	h.RegisterRoutes(s.mux)
}

func (s *HandlerTestSuite) makeRequest(method, path, clinicID string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if clinicID != "" {
		req.Header.Set(middleware.HeaderClinicID, clinicID)
		req.Header.Set(middleware.HeaderUserID, "coord-1")
		req.Header.Set(middleware.HeaderUserName, "Coordinator")
	}

	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](s *HandlerTestSuite, w *httptest.ResponseRecorder) T {
	var v T
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&v))
	return v
}

func (s *HandlerTestSuite) createTask(req dto.CreateTaskRequest) dto.TaskDetail {
	w := s.makeRequest("POST", "/api/v1/tasks", "c1", req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.TaskDetail](s, w)
}

func (s *HandlerTestSuite) TestHealthz() {
	w := s.makeRequest("GET", "/healthz", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestScope_MissingClinic() {
	w := s.makeRequest("GET", "/api/v1/tasks", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	resp := decode[dto.ErrorResponse](s, w)
	s.Equal("MISSING_SCOPE", resp.Error.Code)
}

func (s *HandlerTestSuite) TestScope_UnknownClinic() {
	w := s.makeRequest("GET", "/api/v1/tasks", "c9", nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerTestSuite) TestCreateTask_Success() {
	patientID := "patient-1"
	task := s.createTask(dto.CreateTaskRequest{
		Title:     "Call about insurance",
		Type:      "billing",
		PatientID: &patientID,
	})

	s.NotEmpty(task.ID)
	s.Equal("pending", task.Status)
	s.Equal("normal", task.Priority)
	s.Equal("manual", task.Source)
	s.Equal("coord-1", task.CreatedByUserID)
	s.False(task.IsSystemGenerated)

	w := s.makeRequest("GET", "/api/v1/tasks/"+task.ID, "c1", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	detail := decode[dto.TaskDetailResponse](s, w)
	s.Equal(task.ID, detail.Task.ID)
	s.Require().Len(detail.Activity, 1)
	s.Equal("create", detail.Activity[0].Action)
	s.Contains(detail.Activity[0].Message, "Call about insurance")
}

func (s *HandlerTestSuite) TestCreateTask_Validation() {
	w := s.makeRequest("POST", "/api/v1/tasks", "c1", dto.CreateTaskRequest{Title: "No type"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.makeRequest("POST", "/api/v1/tasks", "c1", dto.CreateTaskRequest{Title: "Forged", Type: "labs", Source: "alert"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	req := httptest.NewRequest("POST", "/api/v1/tasks", bytes.NewBufferString("{"))
	req.Header.Set(middleware.HeaderClinicID, "c1")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerTestSuite) TestGetTask_OtherClinic() {
	task := s.createTask(dto.CreateTaskRequest{Title: "Scan review", Type: "scan"})

	w := s.makeRequest("GET", "/api/v1/tasks/"+task.ID, "c2", nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.makeRequest("GET", "/api/v1/tasks/does-not-exist", "c1", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestListTasks_OverdueFirstAndFilters() {
	past := s.now.Add(-time.Hour)
	future := s.now.Add(48 * time.Hour)

	s.now = s.now.Add(-2 * time.Hour)
	overdue := s.createTask(dto.CreateTaskRequest{Title: "Overdue labs", Type: "labs", DueDate: &past})
	s.now = s.now.Add(2 * time.Hour)
	later := s.createTask(dto.CreateTaskRequest{Title: "Later billing", Type: "billing", Priority: "high", DueDate: &future})
	undated := s.createTask(dto.CreateTaskRequest{Title: "Undated other", Type: "other"})

	w := s.makeRequest("GET", "/api/v1/tasks", "c1", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	list := decode[dto.TasksListResponse](s, w)
	s.Require().Len(list.Tasks, 3)
	s.Equal(3, list.Total)
	s.Equal(overdue.ID, list.Tasks[0].ID)
	s.True(list.Tasks[0].IsOverdue)
	s.Equal(later.ID, list.Tasks[1].ID)
	s.Equal(undated.ID, list.Tasks[2].ID)
	s.Equal("Coordinator", list.Tasks[0].CreatedByName)

	w = s.makeRequest("GET", "/api/v1/tasks?type=billing,other&q=LATER", "c1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	list = decode[dto.TasksListResponse](s, w)
	s.Require().Len(list.Tasks, 1)
	s.Equal(later.ID, list.Tasks[0].ID)

	w = s.makeRequest("GET", "/api/v1/tasks?limit=1&offset=1", "c1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	list = decode[dto.TasksListResponse](s, w)
	s.Len(list.Tasks, 1)
	s.True(list.HasMore)

	w = s.makeRequest("GET", "/api/v1/tasks?status=open", "c1", nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.makeRequest("GET", "/api/v1/tasks?limit=abc", "c1", nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerTestSuite) TestUpdateStatus_TerminalIsFinal() {
	task := s.createTask(dto.CreateTaskRequest{Title: "Send report", Type: "other"})

	w := s.makeRequest("PATCH", "/api/v1/tasks/"+task.ID+"/status", "c1", dto.UpdateStatusRequest{Status: "done"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("done", decode[dto.TaskDetail](s, w).Status)

	w = s.makeRequest("PATCH", "/api/v1/tasks/"+task.ID+"/status", "c1", dto.UpdateStatusRequest{Status: "pending"})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("ILLEGAL_STATE", decode[dto.ErrorResponse](s, w).Error.Code)

	w = s.makeRequest("PATCH", "/api/v1/tasks/"+task.ID+"/status", "c1", dto.UpdateStatusRequest{Status: "archived"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerTestSuite) TestAssignAndSnooze() {
	task := s.createTask(dto.CreateTaskRequest{Title: "Book scan", Type: "scan"})

	assignee := "nurse-1"
	w := s.makeRequest("PATCH", "/api/v1/tasks/"+task.ID+"/assignee", "c1", dto.AssignTaskRequest{AssignedToUserID: &assignee})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NotNil(decode[dto.TaskDetail](s, w).AssignedToUserID)

	w = s.makeRequest("PATCH", "/api/v1/tasks/"+task.ID+"/assignee", "c1", dto.AssignTaskRequest{})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Nil(decode[dto.TaskDetail](s, w).AssignedToUserID)

	until := s.now.Add(24 * time.Hour)
	w = s.makeRequest("POST", "/api/v1/tasks/"+task.ID+"/snooze", "c1", dto.SnoozeTaskRequest{Until: until})
	s.Require().Equal(http.StatusOK, w.Code)
	snoozed := decode[dto.TaskDetail](s, w)
	s.Require().NotNil(snoozed.DueDate)
	s.True(until.Equal(*snoozed.DueDate))

	w = s.makeRequest("POST", "/api/v1/tasks/"+task.ID+"/snooze", "c1", dto.SnoozeTaskRequest{Until: s.now.Add(-time.Minute)})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerTestSuite) TestAppointmentEvent_OpensLineageOnce() {
	event := dto.AppointmentEventRequest{AppointmentID: "appt-1", PatientID: "patient-1", Status: "no_show"}

	w := s.makeRequest("POST", "/api/v1/events/appointments", "c1", event)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	first := decode[dto.FollowUpEventResponse](s, w)
	s.True(first.Created)
	s.Require().NotNil(first.Task)
	s.Require().NotNil(first.Task.FollowUp)
	s.Equal(1, first.Task.FollowUp.Attempt)
	s.Require().NotNil(first.Task.AssignedToUserID)
	s.Equal("coord-1", *first.Task.AssignedToUserID)
	s.Require().NotNil(first.Task.DueDate)
	s.True(s.now.AddDate(0, 0, 3).Equal(*first.Task.DueDate))

	w = s.makeRequest("POST", "/api/v1/events/appointments", "c1", event)
	s.Require().Equal(http.StatusOK, w.Code)
	second := decode[dto.FollowUpEventResponse](s, w)
	s.False(second.Created)
	s.Equal(first.Task.ID, second.Task.ID)

	w = s.makeRequest("GET", "/api/v1/follow-ups/open?entity_id=appt-1&kind=no_show", "c1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(decode[dto.OpenFollowUpResponse](s, w).Open)

	w = s.makeRequest("POST", "/api/v1/events/appointments", "c1",
		dto.AppointmentEventRequest{AppointmentID: "appt-2", PatientID: "patient-1", Status: "completed"})
	s.Require().Equal(http.StatusOK, w.Code)
	ignored := decode[dto.FollowUpEventResponse](s, w)
	s.Nil(ignored.Task)
	s.False(ignored.Created)
}

func (s *HandlerTestSuite) TestAppointmentEvent_MissingRules() {
	w := s.makeRequest("POST", "/api/v1/events/appointments", "c2",
		dto.AppointmentEventRequest{AppointmentID: "appt-1", PatientID: "patient-1", Status: "cancelled"})
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal("CONFIG_UNAVAILABLE", decode[dto.ErrorResponse](s, w).Error.Code)
}

func (s *HandlerTestSuite) TestNextAttempt_AdvancesThenEscalates() {
	w := s.makeRequest("POST", "/api/v1/events/inactivity", "c1",
		dto.InactivityEventRequest{PatientID: "patient-1", LastVisitAt: s.now.AddDate(0, 0, -200)})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	first := decode[dto.FollowUpEventResponse](s, w).Task

	w = s.makeRequest("POST", "/api/v1/tasks/"+first.ID+"/next-attempt", "c1", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	advanced := decode[dto.NextAttemptResponse](s, w)
	s.False(advanced.Exhausted)
	s.Equal("done", advanced.Previous.Status)
	s.Require().NotNil(advanced.Next)
	s.Equal(2, advanced.Next.FollowUp.Attempt)

	w = s.makeRequest("POST", "/api/v1/tasks/"+first.ID+"/next-attempt", "c1", nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.makeRequest("POST", "/api/v1/tasks/"+advanced.Next.ID+"/next-attempt", "c1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	exhausted := decode[dto.NextAttemptResponse](s, w)
	s.True(exhausted.Exhausted)
	s.Nil(exhausted.Next)
	s.True(s.directory.IsCold("c1", "patient-1"))
}

func (s *HandlerTestSuite) TestNextAttempt_ManualTaskIsIllegal() {
	task := s.createTask(dto.CreateTaskRequest{Title: "Plain task", Type: "follow_up"})

	w := s.makeRequest("POST", "/api/v1/tasks/"+task.ID+"/next-attempt", "c1", nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlerTestSuite) TestIngestAlert() {
	labID := "lab-9"
	testName := "HbA1c"
	raised := s.now.Add(-10 * time.Minute)

	w := s.makeRequest("POST", "/api/v1/alerts", "c1", dto.AlertRequest{
		ID:          "alert-1",
		AlertType:   "lab",
		Severity:    "critical",
		PatientID:   "patient-1",
		Message:     "Value out of range",
		CreatedAt:   raised,
		LabResultID: &labID,
		LabTestName: &testName,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	task := decode[dto.TaskDetail](s, w)
	s.Equal("labs", task.Type)
	s.Equal("high", task.Priority)
	s.Equal("alert", task.Source)
	s.Equal("Review lab result: HbA1c", task.Title)
	s.Require().NotNil(task.DueDate)
	s.True(raised.Add(time.Hour).Equal(*task.DueDate))
	s.Require().NotNil(task.AssignedToUserID)
	s.Equal("nurse-1", *task.AssignedToUserID)
	s.Require().NotNil(task.SourcePayload)
	s.Equal(domain.AlertSeverityCritical, task.SourcePayload.Severity)
	s.Require().NotNil(task.Entity)
	s.Equal("lab_result", task.Entity.Type)

	w = s.makeRequest("POST", "/api/v1/alerts", "c1", dto.AlertRequest{ID: "alert-2", AlertType: "lab", Severity: "urgent"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerTestSuite) TestGetStats() {
	task := s.createTask(dto.CreateTaskRequest{Title: "Finish", Type: "other"})
	s.createTask(dto.CreateTaskRequest{Title: "Open", Type: "other"})
	w := s.makeRequest("PATCH", "/api/v1/tasks/"+task.ID+"/status", "c1", dto.UpdateStatusRequest{Status: "done"})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.makeRequest("GET", "/api/v1/stats?period=day", "c1", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	stats := decode[dto.StatsResponse](s, w)
	s.Equal("day", stats.Period)
	s.Equal(2, stats.Clinic.TasksCreated)
	s.Equal(1, stats.Clinic.TasksByStatus["done"])
	s.InDelta(50.0, stats.Clinic.CompletionRatePercent, 0.001)

	w = s.makeRequest("GET", "/api/v1/stats?period=year", "c1", nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
