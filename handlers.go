package main

import (
	"log"
	"net/http"
	"strings"

	"evote/pkg/ratelimit"
	"evote/pkg/studentid"

	"github.com/gin-gonic/gin"
)

var (
	authLimiter *ratelimit.Limiter
	voteLimiter *ratelimit.Limiter
)

func setupRoutes(r *gin.Engine) {
	authLimiter = ratelimit.New(cfg.AuthRateMax, cfg.AuthRateWindow)
	voteLimiter = ratelimit.New(cfg.VoteRateMax, cfg.VoteRateWindow)

	r.Use(corsMiddleware())

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/verify-id", rateLimitMiddleware(authLimiter), verifyIDHandler)
	auth.GET("/verify-session", verifySessionHandler)
	auth.POST("/login", rateLimitMiddleware(authLimiter), adminLoginHandler)
	staffAuth := auth.Group("/admin")
	staffAuth.Use(staffAuthMiddleware())
	staffAuth.GET("/verify", adminVerifyHandler)
	staffAuth.POST("/logout", adminLogoutHandler)

	voting := api.Group("/voting")
	voting.Use(voterAuthMiddleware())
	voting.GET("/ballot", ballotHandler)
	voting.POST("/vote", rateLimitMiddleware(voteLimiter), castVoteHandler)
	voting.GET("/my-votes", myVotesHandler)
	voting.GET("/status", votingStatusHandler)

	// role pins track the per-role permission sets: token issuance needs
	// generate_tokens (admin, ec_official), results need view_results
	// (admin, polling_agent)
	admin := api.Group("/admin")
	admin.POST("/generate-tokens/all", staffAuthMiddleware(RoleAdmin, RoleECOfficial), generateAllTokensHandler)
	admin.POST("/generate-tokens/bulk", staffAuthMiddleware(RoleAdmin, RoleECOfficial), generateBulkTokensHandler)
	admin.POST("/generate-tokens/portfolio/:portfolio_id", staffAuthMiddleware(RoleAdmin, RoleECOfficial), generatePortfolioTokensHandler)
	// regeneration for one voter is open to any staff role
	admin.POST("/regenerate-token/:electorate_id", staffAuthMiddleware(), regenerateTokenHandler)
	admin.GET("/voters", staffAuthMiddleware(RoleAdmin, RoleECOfficial), listVotersHandler)
	admin.GET("/voters/:voter_id", staffAuthMiddleware(RoleAdmin, RoleECOfficial), getVoterHandler)
	admin.GET("/statistics", staffAuthMiddleware(), statisticsHandler)
	admin.GET("/results", staffAuthMiddleware(RoleAdmin, RolePollingAgent), resultsHandler)
	admin.GET("/recent-activity", staffAuthMiddleware(RoleAdmin), recentActivityHandler)
}

// abortWithError maps apiError values to their status and stable reason
// string; anything else is logged and hidden behind a generic 500.
func abortWithError(c *gin.Context, err error) {
	if apiErr, ok := err.(*apiError); ok {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr.Reason})
		return
	}
	log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// bearerToken reads the credential from the Authorization header, falling
// back to a ?token= query parameter for transports that cannot set custom
// headers.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return c.Query("token")
}

func rateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, please try again later"})
			return
		}
		c.Next()
	}
}

// staffAuthMiddleware authenticates a staff credential and optionally pins
// the route to a set of roles. The staff user is stored in the request
// context.
func staffAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := bearerToken(c)
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		staff, err := AuthorizeStaff(credential, allowedRoles...)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set("staff", staff)
		c.Next()
	}
}

// voterAuthMiddleware authenticates a voting-session credential, validates
// the bound session and stores the electorate in the request context.
func voterAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := bearerToken(c)
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		electorate, sessionID, err := resolveVoter(credential, c.ClientIP())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set("electorate", electorate)
		if sessionID != nil {
			c.Set("session_id", *sessionID)
		}
		c.Next()
	}
}

// corsMiddleware is permissive plumbing for the trusted-LAN deployment.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// verifyIDHandler exchanges a voting token for a session credential.
func verifyIDHandler(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	credential, electorate, session, err := VerifyVotingToken(req.Token, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": credential,
		"token_type":   "bearer",
		"valid":        true,
		"electorate": gin.H{
			"id":         electorate.ID,
			"student_id": studentid.ToDisplay(electorate.StudentID),
			"program":    electorate.Program,
			"year_level": electorate.YearLevel,
			"has_voted":  electorate.HasVoted,
		},
		"session_id": session.ID,
		"expires_in": int64(cfg.SessionTTL.Seconds()),
		"message":    "Token verified",
	})
}

func verifySessionHandler(c *gin.Context) {
	credential := bearerToken(c)
	if credential == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
		return
	}
	status, err := VerifySession(credential, c.ClientIP())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func adminLoginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	credential, staff, err := StaffLogin(req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": credential,
		"token_type":   "bearer",
		"expires_in":   int64(cfg.StaffTokenTTL.Seconds()),
		"username":     staff.Username,
		"role":         staff.Role,
		"permissions":  staff.Permissions,
		"is_admin":     staff.Role == RoleAdmin,
	})
}

func adminVerifyHandler(c *gin.Context) {
	staff := c.MustGet("staff").(StaffUser)
	c.JSON(http.StatusOK, gin.H{
		"valid":       true,
		"username":    staff.Username,
		"role":        staff.Role,
		"permissions": staff.Permissions,
		"is_admin":    staff.Role == RoleAdmin,
	})
}

func adminLogoutHandler(c *gin.Context) {
	staff := c.MustGet("staff").(StaffUser)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out", "username": staff.Username})
}
