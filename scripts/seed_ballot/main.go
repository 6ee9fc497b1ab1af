package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"evote/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// Loads the ballot from a CSV with columns:
//
//	portfolio,voting_order,candidate,manifesto
//
// Portfolios are created on first sight and reused for later rows, so a
// multi-candidate race is one row per candidate with the same portfolio
// name. Candidates already present under their portfolio are skipped.
func main() {
	file := flag.String("file", "", "path to the ballot CSV")
	skipHeader := flag.Bool("skip-header", true, "treat the first row as a header")
	dry := flag.Bool("dry-run", true, "dry-run: don't write to DB")
	flag.Parse()
	if *file == "" {
		log.Fatal("--file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open ballot: %v", err)
	}
	defer f.Close()

	gdb := mustDBFromEnv()

	portfolios := map[string]*models.Portfolio{}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read ballot line %d: %v", line+1, err)
		}
		line++
		if line == 1 && *skipHeader {
			continue
		}
		if len(rec) < 3 {
			log.Printf("line %d: need portfolio,voting_order,candidate; skipping", line)
			continue
		}
		pname := strings.TrimSpace(rec[0])
		cname := strings.TrimSpace(rec[2])
		if pname == "" || cname == "" {
			continue
		}

		p, ok := portfolios[pname]
		if !ok {
			p = &models.Portfolio{}
			err := gdb.Where("name = ?", pname).First(p).Error
			if err == gorm.ErrRecordNotFound {
				p = &models.Portfolio{Name: pname, IsActive: true, MaxCandidates: 1}
				if order, err := strconv.Atoi(strings.TrimSpace(rec[1])); err == nil {
					p.VotingOrder = order
				}
				if *dry {
					fmt.Printf("DRY: would create portfolio %q order=%d\n", pname, p.VotingOrder)
				} else if err := gdb.Create(p).Error; err != nil {
					log.Fatalf("create portfolio %q: %v", pname, err)
				} else {
					fmt.Printf("created portfolio %q id=%s\n", pname, p.ID)
				}
			} else if err != nil {
				log.Fatalf("lookup portfolio %q: %v", pname, err)
			}
			portfolios[pname] = p
		}

		var existing models.Candidate
		err = gdb.Where("portfolio_id = ? AND name = ?", p.ID, cname).First(&existing).Error
		if err == nil {
			fmt.Printf("EXISTS: candidate %q under %q\n", cname, pname)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Fatalf("lookup candidate %q: %v", cname, err)
		}

		cand := models.Candidate{Name: cname, PortfolioID: p.ID, IsActive: true}
		if len(rec) > 3 {
			cand.Manifesto = strings.TrimSpace(rec[3])
		}
		if *dry {
			fmt.Printf("DRY: would create candidate %q under %q\n", cname, pname)
			continue
		}
		if err := gdb.Create(&cand).Error; err != nil {
			log.Printf("create candidate %q failed: %v", cname, err)
			continue
		}
		fmt.Printf("created candidate %q id=%s\n", cname, cand.ID)
	}
}
