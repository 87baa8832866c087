// Package service implements the case management business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safecase-systems/safecase/internal/cache"
	"github.com/safecase-systems/safecase/internal/events"
	"github.com/safecase-systems/safecase/internal/logging"
	"github.com/safecase-systems/safecase/internal/metrics"
	"github.com/safecase-systems/safecase/internal/models"
	"github.com/safecase-systems/safecase/internal/repository"
)

// ErrValidation marks request payloads that fail business validation.
var ErrValidation = errors.New("validation failed")

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// Service coordinates the repository, the event bus and the stats cache.
type Service struct {
	repo   repository.Repository
	events *events.Publisher
	stats  *cache.StatsCache
	logger *logging.Logger
}

// New creates a Service. The publisher and cache are nil-safe no-ops
// when the corresponding backends are disabled.
func New(repo repository.Repository, pub *events.Publisher, stats *cache.StatsCache, logger *logging.Logger) *Service {
	return &Service{
		repo:   repo,
		events: pub,
		stats:  stats,
		logger: logger,
	}
}

// ReportIncident records a survivor and their incident report.
func (s *Service) ReportIncident(ctx context.Context, req models.CreateIncidentRequest) (*models.Incident, error) {
	if req.SurvivorName == "" {
		return nil, fmt.Errorf("%w: survivor_name is required", ErrValidation)
	}
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	survivor, err := s.repo.CreateSurvivor(ctx, req.SurvivorName)
	if err != nil {
		return nil, fmt.Errorf("creating survivor: %w", err)
	}

	incident := &models.Incident{
		SurvivorID:  survivor.ID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ContactInfo: req.ContactInfo,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("creating incident: %w", err)
	}
	incident.Survivor = survivor

	metrics.IncidentsReported.Inc()
	s.events.IncidentReported(ctx, incident)
	s.logger.InfoContext(ctx, "incident reported",
		"incident_id", incident.ID,
		"survivor_id", survivor.ID)

	return incident, nil
}

// GetIncident returns a single incident with its survivor.
func (s *Service) GetIncident(ctx context.Context, id int64) (*models.Incident, error) {
	return s.repo.GetIncidentByID(ctx, id)
}

// ListIncidents returns one page of reported incidents, newest first.
func (s *Service) ListIncidents(ctx context.Context, page, limit int) ([]*models.Incident, int, error) {
	page, limit = clampPage(page, limit)
	return s.repo.ListIncidents(ctx, page, limit)
}

// OpenCase opens a case for an incident. An incident can have at most one
// case; a second attempt returns repository.ErrCaseExists.
func (s *Service) OpenCase(ctx context.Context, req models.CreateCaseRequest) (*models.Case, error) {
	if req.IncidentID == 0 {
		return nil, fmt.Errorf("%w: incident_id is required", ErrValidation)
	}
	if req.StatusID == 0 {
		return nil, fmt.Errorf("%w: status_id is required", ErrValidation)
	}
	if _, err := s.repo.GetStatusByID(ctx, req.StatusID); err != nil {
		return nil, err
	}

	var assignedTo *int64
	if req.AssignedTo != 0 {
		if _, err := s.repo.GetUserByID(ctx, req.AssignedTo); err != nil {
			return nil, err
		}
		id := req.AssignedTo
		assignedTo = &id
	}

	now := time.Now().UTC()
	c := &models.Case{
		IncidentID: req.IncidentID,
		StatusID:   req.StatusID,
		AssignedTo: assignedTo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateCase(ctx, c); err != nil {
		return nil, err
	}

	created, err := s.repo.GetCaseByID(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("loading created case: %w", err)
	}

	metrics.CasesCreated.Inc()
	s.events.CaseCreated(ctx, created)
	s.stats.Invalidate(ctx)
	s.logger.InfoContext(ctx, "case opened",
		logging.CaseID(created.ID),
		"incident_id", created.IncidentID)

	return created, nil
}

// GetCase returns a case with its incident, survivor, status and assignee.
func (s *Service) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	return s.repo.GetCaseByID(ctx, id)
}

// ListCases returns one page of cases matching the filter, newest first.
// Page and limit are clamped to sane bounds before querying.
func (s *Service) ListCases(ctx context.Context, req models.ListCasesRequest) (*models.ListCasesResponse, error) {
	req.Page, req.Limit = clampPage(req.Page, req.Limit)

	s.warnOnOrphans(ctx)

	cases, total, err := s.repo.ListCases(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}

	totalPages := total / req.Limit
	if total%req.Limit != 0 {
		totalPages++
	}

	return &models.ListCasesResponse{
		Cases: cases,
		Pagination: models.Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// ExportCases returns every case matching the filter, newest first. The
// filter semantics are identical to ListCases; only pagination differs.
func (s *Service) ExportCases(ctx context.Context, filter models.CaseFilter) ([]*models.Case, error) {
	s.warnOnOrphans(ctx)

	cases, err := s.repo.ExportCases(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("exporting cases: %w", err)
	}

	metrics.ExportsTotal.Inc()
	metrics.ExportRows.Add(float64(len(cases)))
	s.logger.InfoContext(ctx, "cases exported", "rows", len(cases))

	return cases, nil
}

// UpdateCase applies a partial update and returns the fresh row.
func (s *Service) UpdateCase(ctx context.Context, id int64, req models.UpdateCaseRequest) (*models.Case, error) {
	if req.StatusID == nil && req.AssignedTo == nil && req.ResolutionNotes == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if req.StatusID != nil {
		if _, err := s.repo.GetStatusByID(ctx, *req.StatusID); err != nil {
			return nil, err
		}
	}
	if req.AssignedTo != nil && *req.AssignedTo != 0 {
		if _, err := s.repo.GetUserByID(ctx, *req.AssignedTo); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateCase(ctx, id, &req); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetCaseByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading updated case: %w", err)
	}

	metrics.CasesUpdated.Inc()
	s.events.CaseUpdated(ctx, updated)
	s.stats.Invalidate(ctx)
	s.logger.InfoContext(ctx, "case updated", logging.CaseID(id))

	return updated, nil
}

// AddCaseNote appends a progress note to a case's timeline.
func (s *Service) AddCaseNote(ctx context.Context, caseID, authorID int64, req models.AddCaseNoteRequest) (*models.CaseNote, error) {
	if req.Note == "" {
		return nil, fmt.Errorf("%w: note is required", ErrValidation)
	}
	if _, err := s.repo.GetCaseByID(ctx, caseID); err != nil {
		return nil, err
	}

	note := &models.CaseNote{
		CaseID:    caseID,
		AuthorID:  authorID,
		Note:      req.Note,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AddCaseNote(ctx, note); err != nil {
		return nil, fmt.Errorf("adding note: %w", err)
	}
	return note, nil
}

// ListCaseNotes returns a case's notes, newest first.
func (s *Service) ListCaseNotes(ctx context.Context, caseID int64) ([]*models.CaseNote, error) {
	if _, err := s.repo.GetCaseByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.repo.ListCaseNotes(ctx, caseID)
}

// GetCaseStats returns aggregate case counts, served from cache when warm.
func (s *Service) GetCaseStats(ctx context.Context) (*models.CaseStats, error) {
	if stats, ok := s.stats.Get(ctx); ok {
		return stats, nil
	}

	stats, err := s.repo.GetCaseStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	s.stats.Set(ctx, stats)

	return stats, nil
}

// ListStatuses returns the configured case statuses.
func (s *Service) ListStatuses(ctx context.Context) ([]*models.Status, error) {
	return s.repo.ListStatuses(ctx)
}

// ListUsers returns the staff users that cases can be assigned to.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

// warnOnOrphans logs when cases reference missing incidents or survivors.
// Such rows are excluded from listings and exports by the join conditions,
// so the counts visible to clients stay consistent across both paths.
func (s *Service) warnOnOrphans(ctx context.Context) {
	n, err := s.repo.CountOrphanedCases(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "orphan check failed", logging.Error(err))
		return
	}
	if n > 0 {
		s.logger.WarnContext(ctx, "cases with unresolved references excluded from results", "count", n)
	}
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
