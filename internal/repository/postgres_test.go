package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/safecase-systems/safecase/internal/models"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations
func setupTestDatabase(t *testing.T) *PostgresRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("safecase_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	m, err := migrate.New("file://../../migrations", connStr)
	if err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

// seedCase creates a survivor, incident and case in one step.
func seedCase(t *testing.T, repo *PostgresRepository, survivorName, title, description string, statusID int64, assignedTo *int64, createdAt time.Time) *models.Case {
	t.Helper()
	ctx := context.Background()

	survivor, err := repo.CreateSurvivor(ctx, survivorName)
	require.NoError(t, err)

	inc := &models.Incident{
		SurvivorID:  survivor.ID,
		Title:       title,
		Description: description,
		CreatedAt:   createdAt,
	}
	require.NoError(t, repo.CreateIncident(ctx, inc))

	c := &models.Case{
		IncidentID: inc.ID,
		StatusID:   statusID,
		AssignedTo: assignedTo,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, repo.CreateCase(ctx, c))
	return c
}

func seedUser(t *testing.T, repo *PostgresRepository, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email}
	require.NoError(t, repo.CreateUser(context.Background(), u, "x"))
	return u
}

func listAll(t *testing.T, repo *PostgresRepository, filter models.CaseFilter) []*models.Case {
	t.Helper()
	cases, _, err := repo.ListCases(context.Background(), &models.ListCasesRequest{
		Page: 1, Limit: 100, Filter: filter,
	})
	require.NoError(t, err)
	return cases
}

func TestCaseLifecycle(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	staff := seedUser(t, repo, "Sam Okafor", "sam@example.org")
	c := seedCase(t, repo, "Jordan Rivera", "Stalking incident", "Followed home twice", 1, &staff.ID, time.Now().UTC())

	got, err := repo.GetCaseByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stalking incident", got.Incident.Title)
	assert.Equal(t, "Jordan Rivera", got.Incident.Survivor.Name)
	assert.Equal(t, "Case: Open", got.Status.Name)
	require.NotNil(t, got.Assignee)
	assert.Equal(t, "Sam Okafor", got.Assignee.Name)

	// Only one case per incident.
	dup := &models.Case{IncidentID: c.IncidentID, StatusID: 1, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	assert.ErrorIs(t, repo.CreateCase(ctx, dup), ErrCaseExists)

	// Partial update keeps untouched fields.
	notes := "safety plan in place"
	closed := int64(3)
	require.NoError(t, repo.UpdateCase(ctx, c.ID, &models.UpdateCaseRequest{
		StatusID:        &closed,
		ResolutionNotes: &notes,
	}))

	got, err = repo.GetCaseByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Case: Closed", got.Status.Name)
	require.NotNil(t, got.ResolutionNotes)
	assert.Equal(t, notes, *got.ResolutionNotes)
	require.NotNil(t, got.Assignee)
}

func TestCreateCaseForMissingIncident(t *testing.T) {
	repo := setupTestDatabase(t)

	c := &models.Case{IncidentID: 424242, StatusID: 1, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	assert.ErrorIs(t, repo.CreateCase(context.Background(), c), ErrIncidentNotFound)
}

func TestListCasesFiltering(t *testing.T) {
	repo := setupTestDatabase(t)

	staff := seedUser(t, repo, "Sam Okafor", "sam@example.org")
	other := seedUser(t, repo, "Alex Kim", "alex@example.org")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	open := seedCase(t, repo, "Jordan Rivera", "Harassment at workplace", "Repeated incidents", 1, &staff.ID, base.Add(3*time.Hour))
	progress := seedCase(t, repo, "Casey O'Neil", "Threatening messages", "Via text message", 2, &other.ID, base.Add(2*time.Hour))
	closed := seedCase(t, repo, "Riley Chen", "Stalking incident", "Resolved with order", 3, nil, base.Add(time.Hour))

	t.Run("no filter returns all newest first", func(t *testing.T) {
		cases := listAll(t, repo, models.CaseFilter{})
		require.Len(t, cases, 3)
		assert.Equal(t, open.ID, cases[0].ID)
		assert.Equal(t, progress.ID, cases[1].ID)
		assert.Equal(t, closed.ID, cases[2].ID)
	})

	t.Run("status group", func(t *testing.T) {
		cases := listAll(t, repo, models.CaseFilter{Status: "open"})
		require.Len(t, cases, 2)

		cases = listAll(t, repo, models.CaseFilter{Status: "closed"})
		require.Len(t, cases, 1)
		assert.Equal(t, closed.ID, cases[0].ID)
	})

	t.Run("status id", func(t *testing.T) {
		cases := listAll(t, repo, models.CaseFilter{Status: "2"})
		require.Len(t, cases, 1)
		assert.Equal(t, progress.ID, cases[0].ID)
	})

	t.Run("unrecognized status matches everything", func(t *testing.T) {
		cases := listAll(t, repo, models.CaseFilter{Status: "bogus"})
		assert.Len(t, cases, 3)
	})

	t.Run("assigned to", func(t *testing.T) {
		cases := listAll(t, repo, models.CaseFilter{AssignedTo: "all"})
		assert.Len(t, cases, 3)

		cases = listAll(t, repo, models.CaseFilter{AssignedTo: strconv.FormatInt(staff.ID, 10)})
		require.Len(t, cases, 1)
		assert.Equal(t, open.ID, cases[0].ID)
	})

	t.Run("search is case-insensitive across title, description and survivor", func(t *testing.T) {
		cases := listAll(t, repo, models.CaseFilter{Search: "HARASS"})
		require.Len(t, cases, 1)
		assert.Equal(t, open.ID, cases[0].ID)

		cases = listAll(t, repo, models.CaseFilter{Search: "text message"})
		require.Len(t, cases, 1)
		assert.Equal(t, progress.ID, cases[0].ID)

		cases = listAll(t, repo, models.CaseFilter{Search: "riley"})
		require.Len(t, cases, 1)
		assert.Equal(t, closed.ID, cases[0].ID)
	})

	t.Run("search handles quotes safely", func(t *testing.T) {
		cases := listAll(t, repo, models.CaseFilter{Search: "O'Neil"})
		require.Len(t, cases, 1)
		assert.Equal(t, progress.ID, cases[0].ID)
	})

	t.Run("search wildcards are literal", func(t *testing.T) {
		// A bare % would match every row if it reached LIKE unescaped.
		cases := listAll(t, repo, models.CaseFilter{Search: "%"})
		assert.Empty(t, cases)

		cases = listAll(t, repo, models.CaseFilter{Search: "_"})
		assert.Empty(t, cases)
	})

	t.Run("combined filters intersect", func(t *testing.T) {
		cases := listAll(t, repo, models.CaseFilter{Status: "open", AssignedTo: strconv.FormatInt(other.ID, 10), Search: "message"})
		require.Len(t, cases, 1)
		assert.Equal(t, progress.ID, cases[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		cases, total, err := repo.ListCases(context.Background(), &models.ListCasesRequest{
			Page: 2, Limit: 2, Filter: models.CaseFilter{},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, cases, 1)
		assert.Equal(t, closed.ID, cases[0].ID)
	})

	t.Run("export matches the unpaginated listing", func(t *testing.T) {
		filter := models.CaseFilter{Status: "open"}
		listed := listAll(t, repo, filter)

		exported, err := repo.ExportCases(context.Background(), filter)
		require.NoError(t, err)

		require.Len(t, exported, len(listed))
		for i := range listed {
			assert.Equal(t, listed[i].ID, exported[i].ID)
		}
	})
}

func TestGetCaseStats(t *testing.T) {
	repo := setupTestDatabase(t)

	seedCase(t, repo, "A", "t1", "d", 1, nil, time.Now())
	seedCase(t, repo, "B", "t2", "d", 1, nil, time.Now())
	seedCase(t, repo, "C", "t3", "d", 3, nil, time.Now())

	stats, err := repo.GetCaseStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Open)
	assert.Equal(t, 1, stats.Closed)
	assert.Equal(t, 2, stats.ByStatus["Open"])
	assert.Equal(t, 1, stats.ByStatus["Closed"])
}

func TestCountOrphanedCasesCleanDatabase(t *testing.T) {
	repo := setupTestDatabase(t)

	seedCase(t, repo, "A", "t1", "d", 1, nil, time.Now())

	n, err := repo.CountOrphanedCases(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCaseNotes(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	staff := seedUser(t, repo, "Sam Okafor", "sam@example.org")
	c := seedCase(t, repo, "Jordan", "title", "desc", 1, &staff.ID, time.Now())

	first := &models.CaseNote{CaseID: c.ID, AuthorID: staff.ID, Note: "initial contact made", CreatedAt: time.Now().Add(-time.Hour)}
	second := &models.CaseNote{CaseID: c.ID, AuthorID: staff.ID, Note: "follow-up scheduled", CreatedAt: time.Now()}
	require.NoError(t, repo.AddCaseNote(ctx, first))
	require.NoError(t, repo.AddCaseNote(ctx, second))

	notes, err := repo.ListCaseNotes(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "follow-up scheduled", notes[0].Note)

	missing := &models.CaseNote{CaseID: 424242, AuthorID: staff.ID, Note: "x", CreatedAt: time.Now()}
	assert.ErrorIs(t, repo.AddCaseNote(ctx, missing), ErrCaseNotFound)
}
