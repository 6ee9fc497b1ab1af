package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Staff credentials live in deployment configuration, not the database:
// ADMIN_USERS / EC_OFFICIAL_USERS / POLLING_AGENT_USERS hold comma-separated
// username:argon2hash pairs, and STAFF_USERS_FILE may point at a roster file
// with one "username:role:argon2hash" line per entry. The file is watched so
// edits take effect without a restart.

type StaffUser struct {
	Username     string
	PasswordHash string
	Role         string
	Permissions  []string
}

const (
	RoleAdmin        = "admin"
	RoleECOfficial   = "ec_official"
	RolePollingAgent = "polling_agent"
)

// Permission sets are statically fixed per role.
var rolePermissions = map[string][]string{
	RoleAdmin: {
		"manage_portfolios",
		"manage_candidates",
		"manage_elections",
		"manage_electorates",
		"generate_tokens",
		"view_results",
		"manage_users",
	},
	RoleECOfficial: {
		"generate_tokens",
		"view_electorates",
		"verify_voters",
	},
	RolePollingAgent: {
		"view_results",
		"view_statistics",
	},
}

func knownRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

var (
	staffMu    sync.RWMutex
	staffUsers map[string]StaffUser
)

// loadStaffRoster rebuilds the in-memory roster from env plus the optional
// roster file. Called at startup and again on every file change.
func loadStaffRoster() error {
	users := make(map[string]StaffUser)
	parseStaffEnv(os.Getenv("ADMIN_USERS"), RoleAdmin, users)
	parseStaffEnv(os.Getenv("EC_OFFICIAL_USERS"), RoleECOfficial, users)
	parseStaffEnv(os.Getenv("POLLING_AGENT_USERS"), RolePollingAgent, users)

	var fileErr error
	if cfg.StaffUsersFile != "" {
		fileErr = parseStaffFile(cfg.StaffUsersFile, users)
	}

	staffMu.Lock()
	staffUsers = users
	staffMu.Unlock()
	return fileErr
}

// parseStaffEnv splits a username:hash list. Argon2 hashes contain commas in
// their parameter block, so a plain comma split would shred them: a comma
// only starts a new entry when followed by a username and a colon.
func parseStaffEnv(raw, role string, into map[string]StaffUser) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	var entries []string
	current := ""
	for _, seg := range strings.Split(raw, ",") {
		if current == "" {
			current = seg
			continue
		}
		if startsNewEntry(seg) {
			entries = append(entries, current)
			current = seg
		} else {
			current += "," + seg
		}
	}
	if current != "" {
		entries = append(entries, current)
	}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		name, hash, ok := strings.Cut(entry, ":")
		if !ok || name == "" || hash == "" {
			continue
		}
		into[name] = StaffUser{
			Username:     name,
			PasswordHash: hash,
			Role:         role,
			Permissions:  rolePermissions[role],
		}
	}
}

func startsNewEntry(seg string) bool {
	name, _, ok := strings.Cut(seg, ":")
	if !ok || name == "" {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

// parseStaffFile reads "username:role:argon2hash" lines. Lines starting with
// # and blank lines are ignored.
func parseStaffFile(path string, into map[string]StaffUser) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open staff roster: %w", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			log.Printf("staff roster: skipping malformed line")
			continue
		}
		name, role, hash := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
		if !knownRole(role) {
			log.Printf("staff roster: unknown role %q for %q, skipped", role, name)
			continue
		}
		into[name] = StaffUser{
			Username:     name,
			PasswordHash: hash,
			Role:         role,
			Permissions:  rolePermissions[role],
		}
	}
	return scanner.Err()
}

// watchStaffRosterFile reloads the roster on writes so a removed or demoted
// staff account stops authorizing outstanding credentials immediately.
func watchStaffRosterFile(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if err := loadStaffRoster(); err != nil {
						log.Printf("staff roster reload failed: %v", err)
					} else {
						log.Printf("staff roster reloaded")
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("staff roster watcher error: %v", err)
			}
		}
	}()
	return nil
}

func findStaffUser(username string) (StaffUser, bool) {
	staffMu.RLock()
	defer staffMu.RUnlock()
	u, ok := staffUsers[username]
	return u, ok
}
