package main

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleHash = "$argon2id$v=19$m=65536,t=3,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"

func TestParseStaffEnvPreservesArgonHashes(t *testing.T) {
	// argon2 parameter blocks contain commas; the entry split must not
	// shred them
	raw := "alice:" + sampleHash + ",bob:" + sampleHash
	users := make(map[string]StaffUser)
	parseStaffEnv(raw, RoleAdmin, users)

	if len(users) != 2 {
		t.Fatalf("expected 2 users got %d", len(users))
	}
	for _, name := range []string{"alice", "bob"} {
		u, ok := users[name]
		if !ok {
			t.Fatalf("missing user %q", name)
		}
		if u.PasswordHash != sampleHash {
			t.Fatalf("hash mangled for %q: %q", name, u.PasswordHash)
		}
		if u.Role != RoleAdmin {
			t.Fatalf("expected admin role got %q", u.Role)
		}
	}
}

func TestParseStaffEnvEmpty(t *testing.T) {
	users := make(map[string]StaffUser)
	parseStaffEnv("", RoleECOfficial, users)
	parseStaffEnv("   ", RoleECOfficial, users)
	if len(users) != 0 {
		t.Fatalf("expected no users got %d", len(users))
	}
}

func TestParseStaffFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "staff.conf")
	content := "# roster\n" +
		"carol:ec_official:" + sampleHash + "\n" +
		"\n" +
		"malformed-line\n" +
		"dave:no_such_role:" + sampleHash + "\n" +
		"erin:polling_agent:" + sampleHash + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	users := make(map[string]StaffUser)
	if err := parseStaffFile(path, users); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users (malformed and unknown-role lines skipped) got %d", len(users))
	}
	if users["carol"].Role != RoleECOfficial {
		t.Fatalf("carol role = %q", users["carol"].Role)
	}
	if got := users["erin"].Permissions; len(got) == 0 || got[0] != "view_results" {
		t.Fatalf("polling agent permissions wrong: %v", got)
	}
}

func TestLoadStaffRosterMergesEnvAndFile(t *testing.T) {
	t.Setenv("ADMIN_USERS", "root:"+sampleHash)
	t.Setenv("EC_OFFICIAL_USERS", "")
	t.Setenv("POLLING_AGENT_USERS", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "staff.conf")
	if err := os.WriteFile(path, []byte("frank:polling_agent:"+sampleHash+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	oldCfg := cfg
	defer func() { cfg = oldCfg }()
	cfg.StaffUsersFile = path

	if err := loadStaffRoster(); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, ok := findStaffUser("root"); !ok {
		t.Fatal("env user missing from roster")
	}
	if u, ok := findStaffUser("frank"); !ok || u.Role != RolePollingAgent {
		t.Fatalf("file user missing or wrong role: %+v ok=%v", u, ok)
	}
}
