// Command seed populates the database with demo data: one demo account, a
// spread of leads with uneven attribute coverage (so the tri-state filters
// and null-aware sorts have something to bite on), contacts, and a starter
// list.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/intakt/hunter/backend/internal/auth"
	"github.com/intakt/hunter/backend/internal/config"
	"github.com/intakt/hunter/backend/internal/database"
	"github.com/intakt/hunter/backend/internal/lists"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/models"
)

func main() {
	leadCount := flag.Int("leads", 120, "number of leads to create")
	email := flag.String("email", "demo@hunter.local", "demo account email")
	password := flag.String("password", "demo-password", "demo account password")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	if cfg.Degraded() {
		logger.Log.Error("no database configured; set DATABASE_URL")
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Error("database connection failed", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Log.Error("migrations failed", zap.Error(err))
		os.Exit(1)
	}

	authSvc := auth.NewService(db, []byte(cfg.JWTSecret), nil)
	resp, err := authSvc.Register(auth.RegisterRequest{
		Email:     *email,
		Password:  *password,
		FirstName: "Demo",
		LastName:  "User",
	})
	if err != nil {
		// Re-running the seeder against an existing account is fine.
		var user models.User
		if dbErr := db.Where("LOWER(email) = LOWER(?)", *email).First(&user).Error; dbErr != nil {
			logger.Log.Error("failed to create demo user", zap.Error(err))
			os.Exit(1)
		}
		resp = &auth.AuthResponse{User: user}
	}
	userID := resp.User.ID

	gofakeit.Seed(0)

	placeIDs := make([]string, 0, *leadCount)
	for i := 0; i < *leadCount; i++ {
		lead := fakeLead(userID, i)
		if err := db.Create(&lead).Error; err != nil {
			logger.Log.Error("failed to create lead", zap.Error(err))
			os.Exit(1)
		}
		placeIDs = append(placeIDs, lead.PlaceID)

		// Roughly a third of leads get contacts.
		if i%3 == 0 {
			for j := 0; j < gofakeit.Number(1, 4); j++ {
				contact := fakeContact(lead.PlaceID)
				if err := db.Create(&contact).Error; err != nil {
					logger.Log.Error("failed to create contact", zap.Error(err))
					os.Exit(1)
				}
			}
		}
	}

	ctx := context.Background()
	listsSvc := lists.NewService(db)
	starter, err := listsSvc.Create(ctx, userID, "Warm prospects", ptr("Leads worth a first call"))
	if err != nil {
		logger.Log.Error("failed to create starter list", zap.Error(err))
		os.Exit(1)
	}
	firstTen := placeIDs
	if len(firstTen) > 10 {
		firstTen = firstTen[:10]
	}
	if _, err := listsSvc.AddLeads(ctx, starter.ID, firstTen); err != nil {
		logger.Log.Error("failed to populate starter list", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("seeded %d leads for %s\n", *leadCount, *email)
}

// fakeLead builds a lead with deliberately patchy data. Every few rows drop
// the website, socials, rating, or review count so the null paths show up in
// a seeded environment.
func fakeLead(userID string, i int) models.Lead {
	lead := models.Lead{
		PlaceID:   "seed-" + uuid.NewString(),
		UserID:    userID,
		Title:     ptr(gofakeit.Company()),
		Category:  ptr(gofakeit.BuzzWord()),
		Address:   ptr(gofakeit.Street()),
		City:      ptr(gofakeit.City()),
		Phone:     ptr(gofakeit.Phone()),
		CreatedAt: time.Now().Add(-time.Duration(i) * time.Hour),
	}

	if i%4 != 0 {
		lead.Website = ptr("https://" + gofakeit.DomainName())
	}
	if i%5 != 0 {
		lead.Rating = ptr(gofakeit.Float64Range(1, 5))
		lead.ReviewCount = ptr(gofakeit.Number(0, 2500))
	}
	if i%3 != 0 {
		lead.Facebook = ptr("https://facebook.com/" + gofakeit.Username())
	}
	if i%6 == 0 {
		lead.Instagram = ptr("https://instagram.com/" + gofakeit.Username())
	}
	if i%7 == 0 {
		t := true
		lead.Contacted = &t
	}

	return lead
}

func fakeContact(placeID string) models.LeadContact {
	return models.LeadContact{
		PlaceID:   placeID,
		FullName:  ptr(gofakeit.Name()),
		Title:     ptr(gofakeit.JobTitle()),
		Email:     ptr(gofakeit.Email()),
		Phone:     ptr(gofakeit.Phone()),
		Seniority: ptr(gofakeit.RandomString([]string{"junior", "senior", "director", "vp", "c-level"})),
		Source:    ptr("seed"),
	}
}

func ptr[T any](v T) *T {
	return &v
}
