package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/safecase-systems/safecase/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// CreateSurvivor creates a survivor record
func (r *PostgresRepository) CreateSurvivor(ctx context.Context, name string) (*models.Survivor, error) {
	s := &models.Survivor{Name: name, CreatedAt: time.Now()}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO survivors (name, created_at) VALUES ($1, $2) RETURNING id`,
		s.Name, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create survivor: %w", err)
	}

	return s, nil
}

// CreateIncident creates a new incident report
func (r *PostgresRepository) CreateIncident(ctx context.Context, inc *models.Incident) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO incidents (survivor_id, title, description, location, latitude, longitude, contact_info, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		inc.SurvivorID, inc.Title, inc.Description, inc.Location,
		inc.Latitude, inc.Longitude, inc.ContactInfo, inc.CreatedAt,
	).Scan(&inc.ID)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}

	return nil
}

// GetIncidentByID retrieves an incident with its survivor
func (r *PostgresRepository) GetIncidentByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := `
		SELECT i.id, i.survivor_id, i.title, i.description, i.location,
		       i.latitude, i.longitude, i.contact_info, i.created_at,
		       s.id, s.name, s.created_at
		FROM incidents i
		JOIN survivors s ON s.id = i.survivor_id
		WHERE i.id = $1
	`

	inc := &models.Incident{Survivor: &models.Survivor{}}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&inc.ID, &inc.SurvivorID, &inc.Title, &inc.Description, &inc.Location,
		&inc.Latitude, &inc.Longitude, &inc.ContactInfo, &inc.CreatedAt,
		&inc.Survivor.ID, &inc.Survivor.Name, &inc.Survivor.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}

	return inc, nil
}

// ListIncidents retrieves a paginated list of incident reports, most recent first
func (r *PostgresRepository) ListIncidents(ctx context.Context, page, limit int) ([]*models.Incident, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count incidents: %w", err)
	}

	offset := (page - 1) * limit
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.survivor_id, i.title, i.description, i.location,
		       i.latitude, i.longitude, i.contact_info, i.created_at,
		       s.id, s.name, s.created_at
		FROM incidents i
		JOIN survivors s ON s.id = i.survivor_id
		ORDER BY i.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := []*models.Incident{}
	for rows.Next() {
		inc := &models.Incident{Survivor: &models.Survivor{}}
		if err := rows.Scan(
			&inc.ID, &inc.SurvivorID, &inc.Title, &inc.Description, &inc.Location,
			&inc.Latitude, &inc.Longitude, &inc.ContactInfo, &inc.CreatedAt,
			&inc.Survivor.ID, &inc.Survivor.Name, &inc.Survivor.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return incidents, total, nil
}

// caseColumns is the shared projection for case queries. The incident,
// survivor and status joins are required relations; the assignee join is
// optional.
const caseColumns = `
	c.id, c.incident_id, c.status_id, c.assigned_to, c.resolution_notes, c.created_at, c.updated_at,
	i.id, i.survivor_id, i.title, i.description, i.location, i.latitude, i.longitude, i.contact_info, i.created_at,
	s.id, s.name, s.created_at,
	st.id, st.name, st."group",
	u.id, u.name, u.email
`

const caseJoins = `
	FROM cases c
	JOIN incidents i ON i.id = c.incident_id
	JOIN survivors s ON s.id = i.survivor_id
	JOIN statuses st ON st.id = c.status_id
	LEFT JOIN users u ON u.id = c.assigned_to
`

// scanCase reads one joined case row into a fully resolved Case.
func scanCase(row pgx.Row) (*models.Case, error) {
	c := &models.Case{
		Incident: &models.Incident{Survivor: &models.Survivor{}},
		Status:   &models.Status{},
	}

	var assigneeID *int64
	var assigneeName, assigneeEmail *string

	err := row.Scan(
		&c.ID, &c.IncidentID, &c.StatusID, &c.AssignedTo, &c.ResolutionNotes, &c.CreatedAt, &c.UpdatedAt,
		&c.Incident.ID, &c.Incident.SurvivorID, &c.Incident.Title, &c.Incident.Description,
		&c.Incident.Location, &c.Incident.Latitude, &c.Incident.Longitude, &c.Incident.ContactInfo, &c.Incident.CreatedAt,
		&c.Incident.Survivor.ID, &c.Incident.Survivor.Name, &c.Incident.Survivor.CreatedAt,
		&c.Status.ID, &c.Status.Name, &c.Status.Group,
		&assigneeID, &assigneeName, &assigneeEmail,
	)
	if err != nil {
		return nil, err
	}

	if assigneeID != nil {
		c.Assignee = &models.User{ID: *assigneeID}
		if assigneeName != nil {
			c.Assignee.Name = *assigneeName
		}
		if assigneeEmail != nil {
			c.Assignee.Email = *assigneeEmail
		}
	}

	return c, nil
}

// CreateCase accepts an incident into casework. Each incident may have at
// most one case; a second insert returns ErrCaseExists.
func (r *PostgresRepository) CreateCase(ctx context.Context, c *models.Case) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cases (incident_id, status_id, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		c.IncidentID, c.StatusID, c.AssignedTo, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation on incident_id
				return ErrCaseExists
			case "23503": // foreign_key_violation
				return ErrIncidentNotFound
			}
		}
		return fmt.Errorf("failed to create case: %w", err)
	}

	return nil
}

// GetCaseByID retrieves a case with all relations resolved
func (r *PostgresRepository) GetCaseByID(ctx context.Context, id int64) (*models.Case, error) {
	query := `SELECT` + caseColumns + caseJoins + `WHERE c.id = $1`

	c, err := scanCase(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	return c, nil
}

// ListCases retrieves a filtered, paginated page of cases ordered by
// creation time descending.
func (r *PostgresRepository) ListCases(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, int, error) {
	whereClause, args := composePredicates(buildCasePredicates(req.Filter))

	countQuery := `SELECT COUNT(*)` + caseJoins + whereClause
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cases: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	query := fmt.Sprintf(
		`SELECT%s%s%s ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d`,
		caseColumns, caseJoins, whereClause, len(args)+1, len(args)+2,
	)
	args = append(args, req.Limit, offset)

	cases, err := r.queryCases(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return cases, total, nil
}

// ExportCases retrieves every case matching the filter, using the same
// predicate construction and ordering as ListCases but without pagination.
func (r *PostgresRepository) ExportCases(ctx context.Context, filter models.CaseFilter) ([]*models.Case, error) {
	whereClause, args := composePredicates(buildCasePredicates(filter))
	query := `SELECT` + caseColumns + caseJoins + whereClause + ` ORDER BY c.created_at DESC`

	return r.queryCases(ctx, query, args...)
}

func (r *PostgresRepository) queryCases(ctx context.Context, query string, args ...any) ([]*models.Case, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	cases := []*models.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return cases, nil
}

// UpdateCase updates case fields via a dynamically built SET clause
func (r *PostgresRepository) UpdateCase(ctx context.Context, id int64, req *models.UpdateCaseRequest) error {
	setClauses := []string{"updated_at = $1"}
	args := []any{time.Now()}
	argPos := 2

	if req.StatusID != nil {
		setClauses = append(setClauses, fmt.Sprintf("status_id = $%d", argPos))
		args = append(args, *req.StatusID)
		argPos++
	}
	if req.AssignedTo != nil {
		setClauses = append(setClauses, fmt.Sprintf("assigned_to = $%d", argPos))
		args = append(args, *req.AssignedTo)
		argPos++
	}
	if req.ResolutionNotes != nil {
		setClauses = append(setClauses, fmt.Sprintf("resolution_notes = $%d", argPos))
		args = append(args, *req.ResolutionNotes)
		argPos++
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE cases SET %s WHERE id = $%d`, joinStrings(setClauses, ", "), argPos)

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrStatusNotFound
		}
		return fmt.Errorf("failed to update case: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCaseNotFound
	}

	return nil
}

// AddCaseNote appends a progress note to a case
func (r *PostgresRepository) AddCaseNote(ctx context.Context, note *models.CaseNote) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO case_notes (case_id, author_id, note, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		note.CaseID, note.AuthorID, note.Note, note.CreatedAt,
	).Scan(&note.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrCaseNotFound
		}
		return fmt.Errorf("failed to add case note: %w", err)
	}

	return nil
}

// ListCaseNotes retrieves all notes for a case, most recent first
func (r *PostgresRepository) ListCaseNotes(ctx context.Context, caseID int64) ([]*models.CaseNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, case_id, author_id, note, created_at
		FROM case_notes
		WHERE case_id = $1
		ORDER BY created_at DESC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list case notes: %w", err)
	}
	defer rows.Close()

	notes := []*models.CaseNote{}
	for rows.Next() {
		n := &models.CaseNote{}
		if err := rows.Scan(&n.ID, &n.CaseID, &n.AuthorID, &n.Note, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan case note: %w", err)
		}
		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return notes, nil
}

// CountOrphanedCases counts cases whose incident or survivor fails to
// resolve. Foreign keys make this unreachable in normal operation; a
// non-zero count indicates a data-integrity fault.
func (r *PostgresRepository) CountOrphanedCases(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM cases c
		LEFT JOIN incidents i ON i.id = c.incident_id
		LEFT JOIN survivors s ON s.id = i.survivor_id
		WHERE i.id IS NULL OR s.id IS NULL
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orphaned cases: %w", err)
	}

	return count, nil
}

// ListStatuses retrieves all case statuses
func (r *PostgresRepository) ListStatuses(ctx context.Context) ([]*models.Status, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, "group" FROM statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	statuses := []*models.Status{}
	for rows.Next() {
		s := &models.Status{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Group); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return statuses, nil
}

// GetStatusByID retrieves a single status
func (r *PostgresRepository) GetStatusByID(ctx context.Context, id int64) (*models.Status, error) {
	s := &models.Status{}
	err := r.pool.QueryRow(ctx, `SELECT id, name, "group" FROM statuses WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Group)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return s, nil
}

// ListUsers retrieves all staff users for assignment
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

// GetUserByID retrieves a single user
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	err := r.pool.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// CreateUser creates a staff user with a bcrypt password hash
func (r *PostgresRepository) CreateUser(ctx context.Context, u *models.User, passwordHash string) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, u.Name, u.Email, passwordHash, time.Now()).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetCaseStats summarizes the caseload by status for the dashboard
func (r *PostgresRepository) GetCaseStats(ctx context.Context) (*models.CaseStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT st.name, st."group", COUNT(*)
		FROM cases c
		JOIN statuses st ON st.id = c.status_id
		GROUP BY st.id, st.name, st."group"
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get case stats: %w", err)
	}
	defer rows.Close()

	stats := &models.CaseStats{ByStatus: make(map[string]int)}
	for rows.Next() {
		var status models.Status
		var count int
		if err := rows.Scan(&status.Name, &status.Group, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}

		stats.Total += count
		switch status.Group {
		case models.StatusGroupOpen:
			stats.Open += count
		case models.StatusGroupClosed:
			stats.Closed += count
		}
		stats.ByStatus[status.DisplayName()] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Helper function to join strings
func joinStrings(strs []string, sep string) string {
	if len(strs) == 0 {
		return ""
	}
	result := strs[0]
	for i := 1; i < len(strs); i++ {
		result += sep + strs[i]
	}
	return result
}
