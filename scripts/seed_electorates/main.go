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
	"evote/pkg/studentid"

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

// Loads the voter roll from a CSV with columns:
//
//	student_id,program,year_level,email,phone_number
//
// Student IDs may use either slash or hyphen form; both are normalized to
// the stored hyphen form. Rows whose student ID already exists are skipped.
func main() {
	file := flag.String("file", "", "path to the voter roll CSV")
	skipHeader := flag.Bool("skip-header", true, "treat the first row as a header")
	dry := flag.Bool("dry-run", true, "dry-run: don't write to DB")
	flag.Parse()
	if *file == "" {
		log.Fatal("--file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open roll: %v", err)
	}
	defer f.Close()

	gdb := mustDBFromEnv()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	line := 0
	created, skipped := 0, 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read roll line %d: %v", line+1, err)
		}
		line++
		if line == 1 && *skipHeader {
			continue
		}
		if len(rec) < 1 || strings.TrimSpace(rec[0]) == "" {
			continue
		}

		sid := studentid.ToStorage(rec[0])
		var existing models.Electorate
		err = gdb.Where("student_id = ?", sid).First(&existing).Error
		if err == nil {
			fmt.Printf("EXISTS: %s (id=%s)\n", sid, existing.ID)
			skipped++
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Fatalf("lookup %s: %v", sid, err)
		}

		e := models.Electorate{StudentID: sid}
		if len(rec) > 1 {
			e.Program = strings.TrimSpace(rec[1])
		}
		if len(rec) > 2 {
			if y, err := strconv.Atoi(strings.TrimSpace(rec[2])); err == nil {
				e.YearLevel = y
			}
		}
		if len(rec) > 3 {
			e.Email = strings.TrimSpace(rec[3])
		}
		if len(rec) > 4 {
			e.PhoneNumber = strings.TrimSpace(rec[4])
		}

		if *dry {
			fmt.Printf("DRY: would create electorate %s program=%q year=%d\n", sid, e.Program, e.YearLevel)
			created++
			continue
		}
		if err := gdb.Create(&e).Error; err != nil {
			log.Printf("create %s failed: %v", sid, err)
			continue
		}
		fmt.Printf("created electorate %s id=%s\n", sid, e.ID)
		created++
	}
	fmt.Printf("done: %d created, %d skipped\n", created, skipped)
}
