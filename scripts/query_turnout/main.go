package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type tallyRow struct {
	Portfolio string
	Candidate string
	Votes     int64
}

func main() {
	watch := flag.Int("watch", 0, "seconds between refreshes; 0 prints once")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	for {
		var total, voted int64
		db.Table("electorates").Where("is_deleted = ?", false).Count(&total)
		db.Table("electorates").Where("is_deleted = ? AND has_voted = ?", false, true).Count(&voted)
		pct := 0.0
		if total > 0 {
			pct = float64(voted) / float64(total) * 100
		}
		fmt.Printf("[%s] turnout %d/%d (%.2f%%)\n", time.Now().Format("15:04:05"), voted, total, pct)

		var rows []tallyRow
		err := db.Table("votes").
			Select("portfolios.name AS portfolio, candidates.name AS candidate, COUNT(votes.id) AS votes").
			Joins("JOIN portfolios ON portfolios.id = votes.portfolio_id").
			Joins("JOIN candidates ON candidates.id = votes.candidate_id").
			Where("votes.is_valid = ?", true).
			Group("portfolios.name, portfolios.voting_order, candidates.name").
			Order("portfolios.voting_order, votes DESC").
			Scan(&rows).Error
		if err != nil {
			log.Fatalf("tally query: %v", err)
		}
		for _, row := range rows {
			fmt.Printf("  %-24s %-24s %d\n", row.Portfolio, row.Candidate, row.Votes)
		}

		if *watch <= 0 {
			return
		}
		time.Sleep(time.Duration(*watch) * time.Second)
	}
}
