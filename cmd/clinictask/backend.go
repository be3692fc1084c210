package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/clinictask/internal/config"
	"github.com/mtlprog/clinictask/internal/database"
	"github.com/mtlprog/clinictask/internal/domain"
	"github.com/mtlprog/clinictask/internal/handler"
	"github.com/mtlprog/clinictask/internal/repository"
	"github.com/mtlprog/clinictask/internal/repository/memory"
	"github.com/mtlprog/clinictask/internal/service"
)

// backend is a storage choice wired into service dependencies.
type backend struct {
	name   string
	deps   service.Dependencies
	health handler.HealthChecker
	close  func()
}

func (b *backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// openBackend builds the selected store and seeds its directory from rules.
func openBackend(ctx context.Context, store, databaseURL string, rules *config.Rules) (*backend, error) {
	now := time.Now
	archive := rules.Archive().Predicate(now)

	switch store {
	case config.StoreMemory:
		directory := memory.NewDirectory()
		seedMemoryDirectory(directory, rules)

		return &backend{
			name: store,
			deps: service.Dependencies{
				Tasks:    memory.NewTaskStore(now),
				Activity: memory.NewActivityLog(now),
				Rules:    rules,
				Patients: directory,
				Staff:    directory,
				Archive:  archive,
				Now:      now,
			},
		}, nil

	case config.StorePostgres:
		db, err := database.New(ctx, databaseURL, database.DefaultPoolConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(ctx, db.Pool()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		directory := repository.NewDirectoryRepository(db.Pool())
		if err := seedDirectory(ctx, directory, rules); err != nil {
			db.Close()
			return nil, err
		}

		return &backend{
			name: store,
			deps: service.Dependencies{
				Tasks:    repository.NewTaskRepository(db.Pool()),
				Activity: repository.NewActivityRepository(db.Pool()),
				Rules:    rules,
				Patients: directory,
				Staff:    directory,
				Archive:  archive,
				Now:      now,
			},
			health: db.Pool(),
			close:  db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store %q, must be %s or %s", store, config.StoreMemory, config.StorePostgres)
	}
}

func seedMemoryDirectory(directory *memory.Directory, rules *config.Rules) {
	for _, clinicID := range rules.ClinicIDs() {
		clinic, _ := rules.Clinic(clinicID)
		for _, staff := range clinic.Staff {
			directory.AddUser(clinicID, domain.UserRef{ID: staff.ID, Name: staff.Name, Role: staff.Role})
		}
		for _, patient := range clinic.Patients {
			directory.AddPatient(clinicID, domain.PatientRef{ID: patient.ID, Name: patient.Name, Phone: patient.Phone}, patient.LastVisitAt)
		}
	}
}

func seedDirectory(ctx context.Context, directory *repository.DirectoryRepository, rules *config.Rules) error {
	for _, clinicID := range rules.ClinicIDs() {
		clinic, _ := rules.Clinic(clinicID)
		for _, staff := range clinic.Staff {
			user := domain.UserRef{ID: staff.ID, Name: staff.Name, Role: staff.Role}
			if err := directory.UpsertUser(ctx, clinicID, user); err != nil {
				return fmt.Errorf("seed staff: %w", err)
			}
		}
		for _, patient := range clinic.Patients {
			ref := domain.PatientRef{ID: patient.ID, Name: patient.Name, Phone: patient.Phone}
			if err := directory.UpsertPatient(ctx, clinicID, ref, patient.LastVisitAt); err != nil {
				return fmt.Errorf("seed patients: %w", err)
			}
		}
	}
	return nil
}
