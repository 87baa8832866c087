// Command case-seeder fills a SafeCase database with demo data for
// local development and UI work.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"

	"github.com/safecase-systems/safecase/internal/config"
	"github.com/safecase-systems/safecase/internal/models"
	"github.com/safecase-systems/safecase/internal/repository"
)

var (
	configPath = flag.String("config", "", "path to config file")
	users      = flag.Int("users", 5, "number of staff users to create")
	incidents  = flag.Int("incidents", 50, "number of incident reports to create")
	caseRatio  = flag.Float64("case-ratio", 0.7, "fraction of incidents that get a case")
	password   = flag.String("password", "safecase-demo", "password for seeded staff users")
)

var incidentTitles = []string{
	"Harassment at workplace",
	"Domestic violence report",
	"Stalking incident",
	"Threatening messages received",
	"Assault report",
	"Unsafe living situation",
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())
	ctx := context.Background()

	repo, err := repository.NewPostgresRepository(ctx, cfg.Database.Postgres.ConnString())
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer repo.Close()

	statuses, err := repo.ListStatuses(ctx)
	if err != nil {
		log.Fatalf("Failed to list statuses: %v", err)
	}
	if len(statuses) == 0 {
		log.Fatal("No statuses found; run migrations first")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	log.Printf("Seeding %d users, %d incidents (case ratio %.2f)", *users, *incidents, *caseRatio)

	staff := make([]*models.User, 0, *users)
	for i := 0; i < *users; i++ {
		u := &models.User{
			Name:  gofakeit.Name(),
			Email: gofakeit.Email(),
		}
		if err := repo.CreateUser(ctx, u, string(hash)); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		staff = append(staff, u)
	}

	created := 0
	for i := 0; i < *incidents; i++ {
		survivor, err := repo.CreateSurvivor(ctx, gofakeit.Name())
		if err != nil {
			log.Fatalf("Failed to create survivor: %v", err)
		}

		contact := gofakeit.Phone()
		inc := &models.Incident{
			SurvivorID:  survivor.ID,
			Title:       incidentTitles[rand.Intn(len(incidentTitles))],
			Description: gofakeit.Paragraph(1, 3, 12, " "),
			Location:    fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.StateAbr()),
			ContactInfo: &contact,
			CreatedAt:   gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
		}
		if err := repo.CreateIncident(ctx, inc); err != nil {
			log.Fatalf("Failed to create incident: %v", err)
		}

		if rand.Float64() >= *caseRatio {
			continue
		}

		c := &models.Case{
			IncidentID: inc.ID,
			StatusID:   statuses[rand.Intn(len(statuses))].ID,
			CreatedAt:  inc.CreatedAt.Add(time.Duration(rand.Intn(72)) * time.Hour),
		}
		c.UpdatedAt = c.CreatedAt
		// Leave roughly a quarter of cases unassigned.
		if rand.Float64() < 0.75 {
			assignee := staff[rand.Intn(len(staff))].ID
			c.AssignedTo = &assignee
		}
		if err := repo.CreateCase(ctx, c); err != nil {
			log.Fatalf("Failed to create case: %v", err)
		}
		created++

		if c.AssignedTo != nil && rand.Float64() < 0.5 {
			note := &models.CaseNote{
				CaseID:    c.ID,
				AuthorID:  *c.AssignedTo,
				Note:      gofakeit.Sentence(12),
				CreatedAt: c.CreatedAt.Add(24 * time.Hour),
			}
			if err := repo.AddCaseNote(ctx, note); err != nil {
				log.Fatalf("Failed to add case note: %v", err)
			}
		}
	}

	log.Printf("Done: %d users, %d incidents, %d cases", len(staff), *incidents, created)
}
