package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mtlprog/clinictask/internal/domain"
)

// RulesFile is the on-disk shape of the clinic rules file.
type RulesFile struct {
	Archive ArchivePolicy           `yaml:"archive"`
	Clinics map[string]ClinicConfig `yaml:"clinics"`
}

// ClinicConfig holds the rules and optional directory seed of one clinic.
type ClinicConfig struct {
	FollowUp     *FollowUpConfig     `yaml:"follow_up"`
	Reactivation *ReactivationConfig `yaml:"reactivation"`
	Staff        []StaffSeed         `yaml:"staff"`
	Patients     []PatientSeed       `yaml:"patients"`
}

// FollowUpConfig routes automatically created tasks.
type FollowUpConfig struct {
	AutoAssignRole string `yaml:"auto_assign_role"`
	TriageUserID   string `yaml:"triage_user_id"`
}

// ReactivationConfig bounds follow-up lineages.
type ReactivationConfig struct {
	MaxAttempts              int  `yaml:"max_attempts"`
	DaysBetweenAttempts      int  `yaml:"days_between_attempts"`
	MarkColdAfterMaxAttempts bool `yaml:"mark_cold_after_max_attempts"`
	InactivityDaysThreshold  int  `yaml:"inactivity_days_threshold"`
}

// StaffSeed is a staff member loaded into the directory at startup.
type StaffSeed struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// PatientSeed is a patient loaded into the directory at startup.
type PatientSeed struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Phone       string    `yaml:"phone"`
	LastVisitAt time.Time `yaml:"last_visit_at"`
}

// Rules serves per-clinic configuration loaded from a RulesFile.
// A clinic or section missing from the file is a domain.ErrConfigFetch;
// no defaults are substituted.
type Rules struct {
	file RulesFile
}

// LoadRules reads and validates a rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates rules from YAML.
func ParseRules(data []byte) (*Rules, error) {
	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	if file.Archive.HideTerminalAfterDays < 0 {
		return nil, fmt.Errorf("archive.hide_terminal_after_days must be >= 0, got %d", file.Archive.HideTerminalAfterDays)
	}
	for clinicID, clinic := range file.Clinics {
		if clinic.Reactivation == nil {
			continue
		}
		rules := clinic.Reactivation.toDomain()
		if err := rules.Validate(); err != nil {
			return nil, fmt.Errorf("clinic %s: reactivation: %w", clinicID, err)
		}
	}

	return &Rules{file: file}, nil
}

// FollowUpRules returns the routing rules of a clinic.
func (r *Rules) FollowUpRules(_ context.Context, clinicID string) (*domain.FollowUpRules, error) {
	clinic, ok := r.file.Clinics[clinicID]
	if !ok || clinic.FollowUp == nil {
		return nil, fmt.Errorf("%w: no follow-up rules for clinic %s", domain.ErrConfigFetch, clinicID)
	}
	return &domain.FollowUpRules{
		AutoAssignRole: clinic.FollowUp.AutoAssignRole,
		TriageUserID:   clinic.FollowUp.TriageUserID,
	}, nil
}

// ReactivationRules returns the lineage bounds of a clinic.
func (r *Rules) ReactivationRules(_ context.Context, clinicID string) (*domain.ReactivationRules, error) {
	clinic, ok := r.file.Clinics[clinicID]
	if !ok || clinic.Reactivation == nil {
		return nil, fmt.Errorf("%w: no reactivation rules for clinic %s", domain.ErrConfigFetch, clinicID)
	}
	rules := clinic.Reactivation.toDomain()
	return &rules, nil
}

// ClinicIDs lists the configured clinics in a stable order.
func (r *Rules) ClinicIDs() []string {
	ids := make([]string, 0, len(r.file.Clinics))
	for id := range r.file.Clinics {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clinic returns the raw configuration of a clinic.
func (r *Rules) Clinic(clinicID string) (ClinicConfig, bool) {
	clinic, ok := r.file.Clinics[clinicID]
	return clinic, ok
}

// Archive returns the archive policy.
func (r *Rules) Archive() ArchivePolicy {
	return r.file.Archive
}

func (c *ReactivationConfig) toDomain() domain.ReactivationRules {
	return domain.ReactivationRules{
		MaxAttempts:              c.MaxAttempts,
		DaysBetweenAttempts:      c.DaysBetweenAttempts,
		MarkColdAfterMaxAttempts: c.MarkColdAfterMaxAttempts,
		InactivityDaysThreshold:  c.InactivityDaysThreshold,
	}
}

// ArchivePolicy hides old terminal tasks from active listings.
type ArchivePolicy struct {
	HideTerminalAfterDays int `yaml:"hide_terminal_after_days"`
}

// Predicate returns the archive check, or nil when archiving is disabled.
func (p ArchivePolicy) Predicate(now func() time.Time) func(*domain.Task) bool {
	if p.HideTerminalAfterDays <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return func(t *domain.Task) bool {
		if !t.Status.IsTerminal() {
			return false
		}
		return t.UpdatedAt.Before(now().AddDate(0, 0, -p.HideTerminalAfterDays))
	}
}
