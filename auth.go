package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"evote/models"
	"evote/pkg/passhash"
	"evote/pkg/votetoken"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Credentials carry an explicit type claim so a voting-session token can
// never be replayed on staff endpoints or vice versa.
const (
	claimTypeVotingSession = "voting_session"
	claimTypeAdminAccess   = "admin_access"
)

// apiError pairs a stable machine-checkable reason string with the HTTP
// status class it belongs to. Handlers surface these verbatim; anything else
// is logged and returned as a generic internal error.
type apiError struct {
	Status int
	Reason string
}

func (e *apiError) Error() string { return e.Reason }

var (
	errEmptyToken         = &apiError{400, "token cannot be empty"}
	errInvalidTokenFormat = &apiError{400, "invalid token format"}
	// deliberately identical for unknown and wrong tokens (no enumeration)
	errInvalidToken       = &apiError{401, "invalid token"}
	errTokenExpired       = &apiError{401, "token expired"}
	errTokenRevoked       = &apiError{401, "token revoked"}
	errVoterNotFound      = &apiError{404, "voter not found"}
	errInvalidCredentials = &apiError{401, "invalid credentials"}
	errInvalidSession     = &apiError{401, "invalid session"}
	errForbidden          = &apiError{403, "forbidden"}
)

// dummyStaffHash keeps staff login constant-work when the username is
// unknown: the password is still run through argon2 before rejecting.
var dummyStaffHash string

func init() {
	h, err := passhash.Hash("decoy-password-never-matches")
	if err != nil {
		log.Fatalf("failed to prepare decoy hash: %v", err)
	}
	dummyStaffHash = h
}

// newOpaqueToken generates a random 32-byte hex string for session rows.
func newOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// VerifyVotingToken runs the authentication state machine for a presented
// voting token: normalize, hash-lookup, expiry/revocation checks, voter
// resolution, usage bump, session creation, credential issuance. ip and
// userAgent are recorded best-effort on the session row.
func VerifyVotingToken(raw, ip, userAgent string) (string, *models.Electorate, *models.VotingSession, error) {
	codec := votetoken.NewCodec(cfg.TokenLength)
	clean, err := codec.Validate(raw)
	if errors.Is(err, votetoken.ErrEmpty) {
		return "", nil, nil, errEmptyToken
	}
	if err != nil {
		return "", nil, nil, errInvalidTokenFormat
	}

	var tok models.VotingToken
	if err := db.Where("token_hash = ?", votetoken.Hash(clean)).First(&tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, nil, errInvalidToken
		}
		return "", nil, nil, err
	}

	now := time.Now().UTC()
	if now.After(tok.ExpiresAt.UTC()) {
		return "", nil, nil, errTokenExpired
	}
	if tok.Revoked {
		return "", nil, nil, errTokenRevoked
	}
	// a consumed single-use token presents the same as a revoked one
	if !tok.IsActive {
		return "", nil, nil, errTokenRevoked
	}

	var electorate models.Electorate
	if err := db.First(&electorate, "id = ?", tok.ElectorateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, nil, errVoterNotFound
		}
		return "", nil, nil, err
	}
	if electorate.IsDeleted {
		return "", nil, nil, errVoterNotFound
	}

	sessionToken, err := newOpaqueToken()
	if err != nil {
		return "", nil, nil, err
	}
	session := &models.VotingSession{
		ElectorateID:   &electorate.ID,
		SessionToken:   sessionToken,
		IPAddress:      ip,
		UserAgent:      userAgent,
		LoginMethod:    "offline_token",
		IsValid:        true,
		LastActivityAt: now,
		ExpiresAt:      now.Add(cfg.SessionTTL),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		usage := map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": now,
		}
		if cfg.TokenSingleUse {
			usage["is_active"] = false
		}
		// compare-and-set on is_active: two concurrent presentations of
		// one single-use token race here, and only the one that flips the
		// flag mints a session
		res := tx.Model(&models.VotingToken{}).
			Where("id = ? AND is_active = ?", tok.ID, true).
			Updates(usage)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errTokenRevoked
		}
		// at most one valid session per electorate: older ones are
		// terminated, never deleted
		if err := tx.Model(&models.VotingSession{}).
			Where("electorate_id = ? AND is_valid = ?", electorate.ID, true).
			Updates(map[string]interface{}{
				"is_valid":           false,
				"terminated_at":      now,
				"termination_reason": "superseded by new login",
			}).Error; err != nil {
			return err
		}
		return tx.Create(session).Error
	})
	if err != nil {
		return "", nil, nil, err
	}

	credential, err := issueVoterCredential(&electorate, session)
	if err != nil {
		return "", nil, nil, err
	}
	return credential, &electorate, session, nil
}

func issueVoterCredential(e *models.Electorate, s *models.VotingSession) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        e.ID.String(),
		"session_id": s.ID.String(),
		"type":       claimTypeVotingSession,
		"iat":        now.Unix(),
		"exp":        s.ExpiresAt.Unix(),
	})
	return token.SignedString(cfg.JWTSecret)
}

func issueStaffCredential(u StaffUser) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         u.Username,
		"role":        u.Role,
		"permissions": u.Permissions,
		"type":        claimTypeAdminAccess,
		"iat":         now.Unix(),
		"exp":         now.Add(cfg.StaffTokenTTL).Unix(),
	})
	return token.SignedString(cfg.JWTSecret)
}

// parseCredential verifies signature and expiry and returns the claims.
func parseCredential(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return cfg.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidCredentials
	}
	return claims, nil
}

// SessionStatus is the verify-session read model.
type SessionStatus struct {
	Valid        bool   `json:"valid"`
	ElectorateID string `json:"electorate_id"`
	SessionID    string `json:"session_id"`
	ExpiresIn    int64  `json:"expires_in"`
}

// VerifySession resolves the session referenced by a voter credential and
// reports the remaining lifetime in seconds, floored at zero.
func VerifySession(credential, ip string) (*SessionStatus, error) {
	claims, err := parseCredential(credential)
	if err != nil {
		return nil, errInvalidSession
	}
	if t, _ := claims["type"].(string); t != claimTypeVotingSession {
		return nil, errInvalidSession
	}
	sid, _ := claims["session_id"].(string)
	sessionID, err := uuid.Parse(sid)
	if err != nil {
		return nil, errInvalidSession
	}

	var session models.VotingSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidSession
		}
		return nil, err
	}
	if !session.IsValid {
		return nil, errInvalidSession
	}
	now := time.Now().UTC()
	if now.After(session.ExpiresAt.UTC()) {
		session.Terminate("session expired")
		db.Save(&session)
		return nil, errInvalidSession
	}

	session.TouchActivity(ip)
	db.Save(&session)

	remaining := int64(session.ExpiresAt.UTC().Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	sub, _ := claims["sub"].(string)
	return &SessionStatus{
		Valid:        true,
		ElectorateID: sub,
		SessionID:    session.ID.String(),
		ExpiresIn:    remaining,
	}, nil
}

// StaffLogin verifies a staff password against the configured roster. Bad
// username and bad password both cost one argon2 verification and yield the
// same error.
func StaffLogin(username, password string) (string, StaffUser, error) {
	u, ok := findStaffUser(username)
	if !ok {
		passhash.Verify(dummyStaffHash, password)
		return "", StaffUser{}, errInvalidCredentials
	}
	if !passhash.Verify(u.PasswordHash, password) {
		return "", StaffUser{}, errInvalidCredentials
	}
	credential, err := issueStaffCredential(u)
	if err != nil {
		return "", StaffUser{}, err
	}
	return credential, u, nil
}

// AuthorizeStaff validates a staff credential: claim type, known role, and
// that the role still matches current configuration (catches credentials
// issued before a roster change). allowedRoles narrows access further; with
// none given any staff role is accepted.
func AuthorizeStaff(credential string, allowedRoles ...string) (StaffUser, error) {
	claims, err := parseCredential(credential)
	if err != nil {
		return StaffUser{}, errInvalidCredentials
	}
	if t, _ := claims["type"].(string); t != claimTypeAdminAccess {
		return StaffUser{}, errInvalidCredentials
	}
	username, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if username == "" || !knownRole(role) {
		return StaffUser{}, errForbidden
	}
	u, ok := findStaffUser(username)
	if !ok {
		return StaffUser{}, errInvalidCredentials
	}
	if u.Role != role {
		return StaffUser{}, errForbidden
	}
	if len(allowedRoles) > 0 {
		allowed := false
		for _, r := range allowedRoles {
			if u.Role == r {
				allowed = true
				break
			}
		}
		if !allowed {
			return StaffUser{}, errForbidden
		}
	}
	return u, nil
}

// resolveVoter loads the electorate referenced by a voter credential and
// validates the bound session (terminating it when expired or mismatched).
func resolveVoter(credential, ip string) (*models.Electorate, *uuid.UUID, error) {
	claims, err := parseCredential(credential)
	if err != nil {
		return nil, nil, errInvalidCredentials
	}
	if t, _ := claims["type"].(string); t != claimTypeVotingSession {
		return nil, nil, errInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	voterID, err := uuid.Parse(sub)
	if err != nil {
		return nil, nil, errInvalidCredentials
	}

	var electorate models.Electorate
	if err := db.First(&electorate, "id = ?", voterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errVoterNotFound
		}
		return nil, nil, err
	}
	if electorate.IsDeleted {
		return nil, nil, errVoterNotFound
	}

	var sessionID *uuid.UUID
	if sid, _ := claims["session_id"].(string); sid != "" {
		id, err := uuid.Parse(sid)
		if err != nil {
			return nil, nil, errInvalidCredentials
		}
		if err := validateVoterSession(id, electorate.ID, ip); err != nil {
			return nil, nil, err
		}
		sessionID = &id
	}
	return &electorate, sessionID, nil
}

func validateVoterSession(sessionID, electorateID uuid.UUID, ip string) error {
	var session models.VotingSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errInvalidSession
		}
		return err
	}
	now := time.Now().UTC()
	if !session.IsValid {
		return errInvalidSession
	}
	if now.After(session.ExpiresAt.UTC()) {
		session.Terminate("session expired")
		db.Save(&session)
		return errInvalidSession
	}
	if session.ElectorateID == nil || *session.ElectorateID != electorateID {
		session.Terminate("session mismatch")
		session.SuspiciousActivity = true
		db.Save(&session)
		return errInvalidSession
	}
	session.TouchActivity(ip)
	db.Save(&session)
	return nil
}
