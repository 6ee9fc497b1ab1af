package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load ./.env if present without overwriting already-set variables.
	_ = godotenv.Load()
	cfg = loadConfig()

	if err := loadStaffRoster(); err != nil {
		log.Printf("staff roster warning: %v", err)
	}
	if cfg.StaffUsersFile != "" {
		if err := watchStaffRosterFile(cfg.StaffUsersFile); err != nil {
			log.Printf("staff roster watch warning: %v", err)
		}
	}

	// Lightweight migrate command: `./evote migrate` runs AutoMigrate and
	// exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration completed")
		return
	}

	initDB()

	r := gin.Default()

	setupRoutes(r)

	r.Run(":" + cfg.Port)
}
