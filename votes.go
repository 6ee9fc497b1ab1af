package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"evote/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteLedger: best-effort batch casting. Duplicate portfolios inside one
// batch abort the whole request before any write; otherwise each pair is
// checked and inserted independently and failures are reported per pair.

var errDuplicatePortfolio = &apiError{409, "duplicate portfolio in batch"}

type VoteRequest struct {
	PortfolioID uuid.UUID `json:"portfolio_id" binding:"required"`
	CandidateID uuid.UUID `json:"candidate_id" binding:"required"`
}

type FailedVote struct {
	PortfolioID string `json:"portfolio_id"`
	CandidateID string `json:"candidate_id"`
	Error       string `json:"error"`
}

type CastResult struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	VotesCast   int          `json:"votes_cast"`
	FailedVotes []FailedVote `json:"failed_votes"`
}

// CastVotes records one decision per portfolio for the electorate. The
// partial unique index on votes backstops the already-voted pre-check, so a
// concurrent duplicate surfaces as a unique violation, not a second row.
func CastVotes(electorate *models.Electorate, sessionID *uuid.UUID, requests []VoteRequest, ip, userAgent string) (*CastResult, error) {
	seen := make(map[uuid.UUID]bool, len(requests))
	for _, r := range requests {
		if seen[r.PortfolioID] {
			return nil, errDuplicatePortfolio
		}
		seen[r.PortfolioID] = true
	}

	result := &CastResult{FailedVotes: []FailedVote{}}
	now := time.Now().UTC()

	for _, r := range requests {
		reason, err := checkVotePair(electorate.ID, r)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			result.FailedVotes = append(result.FailedVotes, FailedVote{
				PortfolioID: r.PortfolioID.String(),
				CandidateID: r.CandidateID.String(),
				Error:       reason,
			})
			continue
		}
		vote := models.Vote{
			ElectorateID:    electorate.ID,
			PortfolioID:     r.PortfolioID,
			CandidateID:     r.CandidateID,
			VotingSessionID: sessionID,
			IPAddress:       ip,
			UserAgent:       userAgent,
			VotedAt:         now,
			IsValid:         true,
		}
		if err := db.Create(&vote).Error; err != nil {
			reason := "vote could not be recorded"
			if isUniqueConstraintError(err) {
				// lost a race against a concurrent cast for the same portfolio
				reason = "already voted for this portfolio"
			}
			result.FailedVotes = append(result.FailedVotes, FailedVote{
				PortfolioID: r.PortfolioID.String(),
				CandidateID: r.CandidateID.String(),
				Error:       reason,
			})
			continue
		}
		result.VotesCast++
	}

	if result.VotesCast > 0 {
		// idempotent: only flips has_voted the first time
		if err := db.Model(&models.Electorate{}).
			Where("id = ? AND has_voted = ?", electorate.ID, false).
			Updates(map[string]interface{}{"has_voted": true, "voted_at": now}).Error; err != nil {
			return nil, err
		}
		electorate.HasVoted = true
	}

	result.Success = result.VotesCast > 0
	switch {
	case result.Success && len(result.FailedVotes) == 0:
		result.Message = fmt.Sprintf("Successfully cast %d vote(s)", result.VotesCast)
	case result.Success:
		result.Message = fmt.Sprintf("Cast %d vote(s), %d failed", result.VotesCast, len(result.FailedVotes))
	default:
		result.Message = "All votes failed"
	}
	return result, nil
}

// checkVotePair returns a per-pair failure reason, or "" when the pair is
// castable. Store errors are returned separately so they surface as an
// internal failure instead of a pair rejection.
func checkVotePair(electorateID uuid.UUID, r VoteRequest) (string, error) {
	var count int64
	if err := db.Model(&models.Vote{}).
		Where("electorate_id = ? AND portfolio_id = ? AND is_valid = ?", electorateID, r.PortfolioID, true).
		Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "already voted for this portfolio", nil
	}

	var candidate models.Candidate
	if err := db.First(&candidate, "id = ?", r.CandidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "candidate not found", nil
		}
		return "", err
	}
	if candidate.PortfolioID != r.PortfolioID {
		return "candidate does not belong to this portfolio", nil
	}
	if !candidate.IsActive {
		return "candidate is not active", nil
	}
	return "", nil
}

// VotesByElectorate returns all vote rows for audit/display.
func VotesByElectorate(electorateID uuid.UUID) ([]models.Vote, error) {
	var votes []models.Vote
	err := db.Where("electorate_id = ?", electorateID).
		Order("voted_at asc").Find(&votes).Error
	return votes, err
}

// isUniqueConstraintError detects duplicate-key failures from the store.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
