package main

import (
	"log"
	"os"
	"strings"

	"evote/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others.
		// Portfolios and candidates first so votes can reference them.
		if err := db.AutoMigrate(&models.Portfolio{}); err != nil {
			log.Printf("migration warning (portfolios): %v", err)
		}
		if err := db.AutoMigrate(&models.Candidate{}); err != nil {
			log.Printf("migration warning (candidates): %v", err)
		}
		if err := db.AutoMigrate(&models.Electorate{}); err != nil {
			log.Printf("migration warning (electorates): %v", err)
		}
		if err := db.AutoMigrate(&models.VotingToken{}); err != nil {
			log.Printf("migration warning (voting_tokens): %v", err)
		}
		if err := db.AutoMigrate(&models.VotingSession{}); err != nil {
			log.Printf("migration warning (voting_sessions): %v", err)
		}
		if err := db.AutoMigrate(&models.Vote{}); err != nil {
			log.Printf("migration warning (votes): %v", err)
		}
		if err := ensureVoteUniqueIndex(); err != nil {
			log.Printf("warning: ensuring votes unique index failed: %v", err)
		}
	}
}

// ensureVoteUniqueIndex creates the partial unique index that makes
// "(electorate_id, portfolio_id) at most one valid vote" a storage-layer
// guarantee rather than an application-level check. Concurrent casts for the
// same pair hit this index; the loser surfaces as a unique violation.
func ensureVoteUniqueIndex() error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_electorate_portfolio_valid
		ON votes (electorate_id, portfolio_id)
		WHERE is_valid`).Error
}
