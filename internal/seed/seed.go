// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"peerhaven/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumAccounts     int
	NumPosts        int
	NumHelpRequests int
	ShouldClean     bool
}

var reportReasons = []string{
	"Spam", "Harassment", "Hate speech", "Self-harm risk", "Misinformation", "Off-topic",
}

// Seed populates the database with demo data across every role so the
// moderation queue, helper workflow and help-request pool have content.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d accounts and %d posts...", opts.NumAccounts, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	gofakeit.Seed(time.Now().UnixNano())

	accounts, err := createAccounts(db, opts.NumAccounts)
	if err != nil {
		return fmt.Errorf("failed to create accounts: %w", err)
	}
	log.Printf("✓ %d accounts created", len(accounts))

	posts, err := createPosts(db, accounts, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	reports, err := createReports(db, accounts, posts)
	if err != nil {
		return fmt.Errorf("failed to create reports: %w", err)
	}
	log.Printf("✓ %d reports filed", reports)

	requests, err := createHelpRequests(db, accounts, opts.NumHelpRequests)
	if err != nil {
		return fmt.Errorf("failed to create help requests: %w", err)
	}
	log.Printf("✓ %d help requests created", requests)

	applications, err := createApplications(db, accounts)
	if err != nil {
		return fmt.Errorf("failed to create helper applications: %w", err)
	}
	log.Printf("✓ %d helper applications created", applications)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE help_messages, help_requests, helper_applications, audit_log_entries, reports, posts, accounts RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

// createAccounts spreads accounts across the role ladder so every
// workflow has actors: mostly users, a few peer helpers, one counselor,
// one moderator and one admin.
func createAccounts(db *gorm.DB, count int) ([]models.Account, error) {
	if count < 6 {
		count = 6
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	accounts := make([]models.Account, 0, count)
	for i := 0; i < count; i++ {
		role := models.RoleUser
		switch {
		case i == 0:
			role = models.RoleAdmin
		case i == 1:
			role = models.RoleModerator
		case i == 2:
			role = models.RoleCounselor
		case i < 2+count/5:
			role = models.RolePeerHelper
		}

		account := models.Account{
			Username: gofakeit.Username(),
			Email:    gofakeit.Email(),
			Password: string(hashed),
			Role:     role,
			Status:   models.StatusActive,
		}
		accounts = append(accounts, account)
	}

	if err := db.CreateInBatches(&accounts, 100).Error; err != nil {
		return nil, err
	}

	// One temporarily banned account so the lazy expiry sweep has work to do.
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	banned := accounts[len(accounts)-1]
	expiry := time.Now().Add(time.Duration(r.Intn(48)+1) * time.Hour)
	if err := db.Model(&models.Account{}).Where("id = ?", banned.ID).Updates(map[string]any{
		"status":         models.StatusBanned,
		"ban_expires_at": expiry,
	}).Error; err != nil {
		return nil, err
	}

	return accounts, nil
}

func createPosts(db *gorm.DB, accounts []models.Account, count int) ([]models.Post, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := accounts[r.Intn(len(accounts))]
		post := models.Post{
			Title:     gofakeit.Sentence(5),
			Content:   gofakeit.Paragraph(1, 3, 5, "\n"),
			AccountID: author.ID,
		}
		daysBack := r.Intn(60)
		post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(r.Intn(24))*time.Hour)
		posts = append(posts, post)
	}
	if err := db.CreateInBatches(&posts, 100).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// createReports files a handful of reports, piling several onto the
// first few posts so the queue shows aggregation and high-risk flags.
func createReports(db *gorm.DB, accounts []models.Account, posts []models.Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	var reports []models.Report
	for i, post := range posts {
		var n int
		switch {
		case i == 0:
			n = models.HighRiskReportThreshold + 1
		case i < 4:
			n = r.Intn(models.HighRiskReportThreshold) + 1
		default:
			continue
		}
		for j := 0; j < n; j++ {
			reporter := accounts[r.Intn(len(accounts))]
			reports = append(reports, models.Report{
				PostID:     post.ID,
				ReporterID: reporter.ID,
				Reason:     reportReasons[r.Intn(len(reportReasons))],
				Status:     models.ReportStatusPending,
			})
		}
	}

	if len(reports) == 0 {
		return 0, nil
	}
	if err := db.CreateInBatches(&reports, 100).Error; err != nil {
		return 0, err
	}
	return len(reports), nil
}

func createHelpRequests(db *gorm.DB, accounts []models.Account, count int) (int, error) {
	if count <= 0 {
		count = 8
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	var helpers []models.Account
	for _, a := range accounts {
		if a.Role == models.RolePeerHelper {
			helpers = append(helpers, a)
		}
	}

	requests := make([]models.HelpRequest, 0, count)
	for i := 0; i < count; i++ {
		requester := accounts[r.Intn(len(accounts))]
		req := models.HelpRequest{
			RequesterID: requester.ID,
			Title:       gofakeit.Sentence(4),
			Description: gofakeit.Paragraph(1, 2, 6, "\n"),
			Status:      models.HelpRequestStatusPending,
		}

		// a mix of lifecycle stages
		if len(helpers) > 0 && i%3 != 0 {
			helper := helpers[r.Intn(len(helpers))]
			req.AssignedHelperID = &helper.ID
			req.Status = models.HelpRequestStatusAssigned
			if i%3 == 2 {
				accepted := time.Now().Add(-time.Duration(r.Intn(72)) * time.Hour)
				req.Status = models.HelpRequestStatusInProgress
				req.AcceptedAt = &accepted
			}
		}
		requests = append(requests, req)
	}

	if err := db.CreateInBatches(&requests, 100).Error; err != nil {
		return 0, err
	}
	return len(requests), nil
}

func createApplications(db *gorm.DB, accounts []models.Account) (int, error) {
	var applications []models.HelperApplication
	for _, a := range accounts {
		if a.Role != models.RoleUser {
			continue
		}
		if len(applications) >= 3 {
			break
		}
		applications = append(applications, models.HelperApplication{
			AccountID:  a.ID,
			Motivation: gofakeit.Paragraph(1, 2, 8, " "),
			Experience: gofakeit.Sentence(10),
			Status:     models.ApplicationStatusPending,
		})
	}

	if len(applications) == 0 {
		return 0, nil
	}
	if err := db.Create(&applications).Error; err != nil {
		return 0, err
	}
	return len(applications), nil
}
