package main

import (
	"net/http"

	"evote/models"
	"evote/pkg/studentid"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func currentElectorate(c *gin.Context) *models.Electorate {
	return c.MustGet("electorate").(*models.Electorate)
}

// ballotHandler returns the active portfolios in voting order, each with its
// active candidates.
func ballotHandler(c *gin.Context) {
	var portfolios []models.Portfolio
	err := db.Where("is_active = ?", true).
		Preload("Candidates", "is_active = ?", true).
		Order("voting_order asc").
		Find(&portfolios).Error
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolios)
}

func castVoteHandler(c *gin.Context) {
	electorate := currentElectorate(c)
	var req struct {
		Votes []VoteRequest `json:"votes" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var sessionID *uuid.UUID
	if v, ok := c.Get("session_id"); ok {
		id := v.(uuid.UUID)
		sessionID = &id
	}

	result, err := CastVotes(electorate, sessionID, req.Votes, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func myVotesHandler(c *gin.Context) {
	electorate := currentElectorate(c)
	votes, err := VotesByElectorate(electorate.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, votes)
}

func votingStatusHandler(c *gin.Context) {
	electorate := currentElectorate(c)
	votes, err := VotesByElectorate(electorate.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student_id": studentid.ToDisplay(electorate.StudentID),
		"has_voted":  electorate.HasVoted,
		"voted_at":   electorate.VotedAt,
		"votes_cast": len(votes),
		"can_vote":   !electorate.HasVoted,
	})
}
