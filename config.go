package main

import (
	"os"
	"strconv"
	"time"
)

// Config holds deployment settings read from the environment (a local .env
// file is loaded first when present). Defaults match the reference
// single-campus deployment: 8-char tokens valid 24h, 20-minute sessions.
type Config struct {
	Port      string
	JWTSecret []byte

	TokenLength         int
	TokenTTL            time.Duration
	SessionTTL          time.Duration
	TokenSingleUse      bool
	AllowRegenAfterVote bool

	StaffTokenTTL  time.Duration
	StaffUsersFile string

	AuthRateMax    int
	AuthRateWindow time.Duration
	VoteRateMax    int
	VoteRateWindow time.Duration
}

var cfg Config

func loadConfig() Config {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	c := Config{
		Port:                envStr("PORT", "8000"),
		JWTSecret:           []byte(secret),
		TokenLength:         envInt("VOTING_TOKEN_LENGTH", 8),
		TokenTTL:            time.Duration(envInt("VOTING_TOKEN_EXPIRE_HOURS", 24)) * time.Hour,
		SessionTTL:          time.Duration(envInt("SESSION_EXPIRE_MINUTES", 20)) * time.Minute,
		TokenSingleUse:      envBool("TOKEN_SINGLE_USE", true),
		AllowRegenAfterVote: envBool("ALLOW_REGEN_AFTER_VOTE", false),
		StaffTokenTTL:       time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 480)) * time.Minute,
		StaffUsersFile:      os.Getenv("STAFF_USERS_FILE"),
		AuthRateMax:         envInt("RATE_LIMIT_AUTH_REQUESTS", 10),
		AuthRateWindow:      time.Duration(envInt("RATE_LIMIT_AUTH_WINDOW", 300)) * time.Second,
		VoteRateMax:         envInt("RATE_LIMIT_VOTE_REQUESTS", 5),
		VoteRateWindow:      time.Duration(envInt("RATE_LIMIT_VOTE_WINDOW", 60)) * time.Second,
	}
	// only the two supported printable profiles
	if c.TokenLength != 4 && c.TokenLength != 8 {
		c.TokenLength = 8
	}
	return c
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
