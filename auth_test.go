package main

import (
	"testing"
	"time"

	"evote/models"
	"evote/pkg/passhash"

	"github.com/google/uuid"
)

func setupCredentialTest(t *testing.T) {
	t.Helper()
	oldCfg := cfg
	t.Cleanup(func() { cfg = oldCfg })
	cfg = Config{
		JWTSecret:     []byte("test-secret"),
		TokenLength:   8,
		SessionTTL:    20 * time.Minute,
		StaffTokenTTL: 8 * time.Hour,
	}
	staffMu.Lock()
	oldStaff := staffUsers
	staffUsers = map[string]StaffUser{}
	staffMu.Unlock()
	t.Cleanup(func() {
		staffMu.Lock()
		staffUsers = oldStaff
		staffMu.Unlock()
	})
}

func setStaffUser(u StaffUser) {
	staffMu.Lock()
	staffUsers[u.Username] = u
	staffMu.Unlock()
}

func TestStaffCredentialRoundTrip(t *testing.T) {
	setupCredentialTest(t)
	u := StaffUser{Username: "ec1", PasswordHash: "x", Role: RoleECOfficial, Permissions: rolePermissions[RoleECOfficial]}
	setStaffUser(u)

	credential, err := issueStaffCredential(u)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	got, err := AuthorizeStaff(credential)
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if got.Username != "ec1" || got.Role != RoleECOfficial {
		t.Fatalf("unexpected staff user: %+v", got)
	}
	if _, err := AuthorizeStaff(credential, RoleAdmin); err != errForbidden {
		t.Fatalf("expected errForbidden for role mismatch got %v", err)
	}
}

func TestVoterCredentialRejectedOnStaffPath(t *testing.T) {
	setupCredentialTest(t)
	electorate := &models.Electorate{ID: uuid.New(), StudentID: "MLS-0201-19"}
	session := &models.VotingSession{ID: uuid.New(), ExpiresAt: time.Now().UTC().Add(20 * time.Minute)}

	credential, err := issueVoterCredential(electorate, session)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	// a voting-session credential must never grant staff capabilities
	if _, err := AuthorizeStaff(credential); err != errInvalidCredentials {
		t.Fatalf("expected errInvalidCredentials got %v", err)
	}
}

func TestStaffCredentialRejectedOnVoterPath(t *testing.T) {
	setupCredentialTest(t)
	u := StaffUser{Username: "ec1", PasswordHash: "x", Role: RoleECOfficial, Permissions: rolePermissions[RoleECOfficial]}
	setStaffUser(u)

	credential, err := issueStaffCredential(u)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	// an admin-access credential must never resolve to a voter
	if _, _, err := resolveVoter(credential, "127.0.0.1"); err != errInvalidCredentials {
		t.Fatalf("expected errInvalidCredentials got %v", err)
	}
	if _, err := VerifySession(credential, "127.0.0.1"); err != errInvalidSession {
		t.Fatalf("expected errInvalidSession got %v", err)
	}
}

func TestStaleRoleRejectedAfterConfigChange(t *testing.T) {
	setupCredentialTest(t)
	u := StaffUser{Username: "shifty", Role: RoleAdmin, Permissions: rolePermissions[RoleAdmin]}
	setStaffUser(u)
	credential, err := issueStaffCredential(u)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// demote the user in configuration; the old credential still carries
	// the admin role claim
	setStaffUser(StaffUser{Username: "shifty", Role: RolePollingAgent, Permissions: rolePermissions[RolePollingAgent]})
	if _, err := AuthorizeStaff(credential); err != errForbidden {
		t.Fatalf("expected errForbidden for stale role got %v", err)
	}
}

func TestRemovedUserCredentialRejected(t *testing.T) {
	setupCredentialTest(t)
	u := StaffUser{Username: "gone", Role: RoleAdmin, Permissions: rolePermissions[RoleAdmin]}
	credential, err := issueStaffCredential(u)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := AuthorizeStaff(credential); err != errInvalidCredentials {
		t.Fatalf("expected errInvalidCredentials got %v", err)
	}
}

func TestExpiredStaffCredentialRejected(t *testing.T) {
	setupCredentialTest(t)
	cfg.StaffTokenTTL = -time.Minute
	u := StaffUser{Username: "late", Role: RoleAdmin, Permissions: rolePermissions[RoleAdmin]}
	setStaffUser(u)
	credential, err := issueStaffCredential(u)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := AuthorizeStaff(credential); err != errInvalidCredentials {
		t.Fatalf("expected errInvalidCredentials for expired credential got %v", err)
	}
}

func TestStaffLoginUniformFailure(t *testing.T) {
	setupCredentialTest(t)
	hash, err := passhash.Hash("right-password")
	if err != nil {
		t.Fatal(err)
	}
	setStaffUser(StaffUser{Username: "known", PasswordHash: hash, Role: RoleAdmin, Permissions: rolePermissions[RoleAdmin]})

	_, _, errUnknown := StaffLogin("nobody", "whatever")
	_, _, errWrongPw := StaffLogin("known", "wrong-password")
	if errUnknown != errInvalidCredentials || errWrongPw != errInvalidCredentials {
		t.Fatalf("both failures must be errInvalidCredentials, got %v / %v", errUnknown, errWrongPw)
	}

	credential, staff, err := StaffLogin("known", "right-password")
	if err != nil {
		t.Fatalf("valid login failed: %v", err)
	}
	if credential == "" || staff.Role != RoleAdmin {
		t.Fatalf("unexpected login result: %q %+v", credential, staff)
	}
}
