// Package repository provides the PostgreSQL persistence layer.
package repository

import (
	"context"
	"errors"

	"github.com/safecase-systems/safecase/internal/models"
)

var (
	ErrCaseNotFound     = errors.New("case not found")
	ErrCaseExists       = errors.New("incident already has a case")
	ErrIncidentNotFound = errors.New("incident not found")
	ErrStatusNotFound   = errors.New("status not found")
	ErrUserNotFound     = errors.New("user not found")
)

// Repository defines the interface for incident and case persistence
type Repository interface {
	// Incident operations
	CreateSurvivor(ctx context.Context, name string) (*models.Survivor, error)
	CreateIncident(ctx context.Context, inc *models.Incident) error
	GetIncidentByID(ctx context.Context, id int64) (*models.Incident, error)
	ListIncidents(ctx context.Context, page, limit int) ([]*models.Incident, int, error)

	// Case operations. ListCases and ExportCases share the same
	// predicate construction so the export is the flattened form of
	// the listing, modulo pagination.
	CreateCase(ctx context.Context, c *models.Case) error
	GetCaseByID(ctx context.Context, id int64) (*models.Case, error)
	ListCases(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, int, error)
	ExportCases(ctx context.Context, filter models.CaseFilter) ([]*models.Case, error)
	UpdateCase(ctx context.Context, id int64, req *models.UpdateCaseRequest) error
	AddCaseNote(ctx context.Context, note *models.CaseNote) error
	ListCaseNotes(ctx context.Context, caseID int64) ([]*models.CaseNote, error)

	// CountOrphanedCases reports cases whose incident or survivor no
	// longer resolves. Such rows are a data-integrity fault, not a
	// normal empty state.
	CountOrphanedCases(ctx context.Context) (int, error)

	// Reference data
	ListStatuses(ctx context.Context) ([]*models.Status, error)
	GetStatusByID(ctx context.Context, id int64) (*models.Status, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User, passwordHash string) error
	GetCaseStats(ctx context.Context) (*models.CaseStats, error)

	// Utility
	Close() error
}
