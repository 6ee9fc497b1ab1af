package main

import (
	"net/http"
	"strconv"
	"time"

	"evote/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func generateAllTokensHandler(c *gin.Context) {
	// exclude_voted defaults to true when the body is empty or omits it
	var req struct {
		ExcludeVoted *bool `json:"exclude_voted"`
	}
	_ = c.ShouldBindJSON(&req)
	excludeVoted := true
	if req.ExcludeVoted != nil {
		excludeVoted = *req.ExcludeVoted
	}

	result, err := IssueForAll(excludeVoted)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateBulkTokensHandler(c *gin.Context) {
	var req struct {
		ElectorateIDs []uuid.UUID `json:"electorate_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := IssueForElectorates(req.ElectorateIDs, false)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generatePortfolioTokensHandler(c *gin.Context) {
	portfolioID, err := uuid.Parse(c.Param("portfolio_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid portfolio id"})
		return
	}
	var portfolio models.Portfolio
	if err := db.First(&portfolio, "id = ?", portfolioID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
		return
	}
	result, err := IssueForPortfolio(portfolioID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func regenerateTokenHandler(c *gin.Context) {
	electorateID, err := uuid.Parse(c.Param("electorate_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid electorate id"})
		return
	}
	result, err := RegenerateSingle(electorateID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if result.GeneratedTokens == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Failed to regenerate token",
		})
		return
	}
	issued := result.Tokens[0]
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Token regenerated successfully",
		"student_id": issued.StudentID,
		"token":      issued.Token,
		"expires_at": issued.ExpiresAt,
	})
}

func listVotersHandler(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := db.Model(&models.Electorate{}).Where("is_deleted = ?", false)
	if hv := c.Query("has_voted"); hv != "" {
		voted, err := strconv.ParseBool(hv)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid has_voted filter"})
			return
		}
		q = q.Where("has_voted = ?", voted)
	}

	var voters []models.Electorate
	if err := q.Order("student_id asc").Offset(skip).Limit(limit).Find(&voters).Error; err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, voters)
}

func getVoterHandler(c *gin.Context) {
	voterID, err := uuid.Parse(c.Param("voter_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid voter id"})
		return
	}
	var voter models.Electorate
	if err := db.First(&voter, "id = ? AND is_deleted = ?", voterID, false).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "voter not found"})
		return
	}
	c.JSON(http.StatusOK, voter)
}

func statisticsHandler(c *gin.Context) {
	tokenStats, err := GetTokenStatistics()
	if err != nil {
		abortWithError(c, err)
		return
	}
	var totalVotes, validVotes, activeSessions int64
	db.Model(&models.Vote{}).Count(&totalVotes)
	db.Model(&models.Vote{}).Where("is_valid = ?", true).Count(&validVotes)
	db.Model(&models.VotingSession{}).
		Where("is_valid = ? AND expires_at > ?", true, time.Now().UTC()).
		Count(&activeSessions)

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokenStats,
		"voting": gin.H{
			"total_votes":     totalVotes,
			"valid_votes":     validVotes,
			"active_sessions": activeSessions,
		},
		"timestamp": time.Now().UTC(),
	})
}

// resultsHandler tallies valid votes per candidate grouped by portfolio.
func resultsHandler(c *gin.Context) {
	type row struct {
		PortfolioID   uuid.UUID
		PortfolioName string
		CandidateID   uuid.UUID
		CandidateName string
		Votes         int64
	}
	rows, err := db.Model(&models.Vote{}).
		Select(`votes.portfolio_id as portfolio_id,
			portfolios.name as portfolio_name,
			votes.candidate_id as candidate_id,
			candidates.name as candidate_name,
			count(votes.id) as votes`).
		Joins("JOIN portfolios ON portfolios.id = votes.portfolio_id").
		Joins("JOIN candidates ON candidates.id = votes.candidate_id").
		Where("votes.is_valid = ?", true).
		Group("votes.portfolio_id, portfolios.name, votes.candidate_id, candidates.name").
		Order("portfolios.name asc, votes desc").
		Rows()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer rows.Close()

	type candidateResult struct {
		CandidateID uuid.UUID `json:"candidate_id"`
		Name        string    `json:"name"`
		Votes       int64     `json:"votes"`
	}
	type portfolioResult struct {
		PortfolioID uuid.UUID         `json:"portfolio_id"`
		Name        string            `json:"name"`
		TotalVotes  int64             `json:"total_votes"`
		Candidates  []candidateResult `json:"candidates"`
	}

	var results []portfolioResult
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.PortfolioID, &r.PortfolioName, &r.CandidateID, &r.CandidateName, &r.Votes); err != nil {
			abortWithError(c, err)
			return
		}
		i, ok := index[r.PortfolioID]
		if !ok {
			i = len(results)
			index[r.PortfolioID] = i
			results = append(results, portfolioResult{PortfolioID: r.PortfolioID, Name: r.PortfolioName})
		}
		results[i].Candidates = append(results[i].Candidates, candidateResult{
			CandidateID: r.CandidateID,
			Name:        r.CandidateName,
			Votes:       r.Votes,
		})
		results[i].TotalVotes += r.Votes
	}
	if results == nil {
		results = []portfolioResult{}
	}
	c.JSON(http.StatusOK, results)
}

func recentActivityHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var votes []models.Vote
	if err := db.Order("voted_at desc").Limit(limit).Find(&votes).Error; err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recent_votes":       votes,
		"total_recent_votes": len(votes),
		"timestamp":          time.Now().UTC(),
	})
}
