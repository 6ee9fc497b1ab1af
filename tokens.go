package main

import (
	"fmt"
	"log"
	"math"
	"time"

	"evote/models"
	"evote/pkg/studentid"
	"evote/pkg/votetoken"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Token issuance workflows. Each electorate is handled in its own
// transaction: either its old tokens are revoked and a fresh one stored, or
// nothing changes for it. Skips (already voted, soft-deleted) are silent;
// cross-electorate partial success within a batch is expected.

const issueBatchSize = 1000

// IssuedToken is the only place a plaintext token ever appears. It is
// returned to the caller once and never persisted.
type IssuedToken struct {
	ElectorateID string    `json:"electorate_id"`
	StudentID    string    `json:"student_id"` // display form (slashes)
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type TokenGenerationResult struct {
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
	GeneratedTokens int           `json:"generated_tokens"`
	Tokens          []IssuedToken `json:"tokens"`
}

// IssueForElectorates issues fresh tokens for the given electorates,
// revoking any still-active predecessors. includeVoted lifts the has-voted
// skip (used by single regeneration when the deployment allows it).
func IssueForElectorates(ids []uuid.UUID, includeVoted bool) (*TokenGenerationResult, error) {
	codec := votetoken.NewCodec(cfg.TokenLength)
	result := &TokenGenerationResult{Success: true, Tokens: []IssuedToken{}}

	for start := 0; start < len(ids); start += issueBatchSize {
		end := start + issueBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		var electorates []models.Electorate
		if err := db.Where("id IN ? AND is_deleted = ?", ids[start:end], false).
			Find(&electorates).Error; err != nil {
			return nil, err
		}

		for i := range electorates {
			e := &electorates[i]
			if e.HasVoted && !includeVoted {
				continue
			}
			issued, err := issueSingle(codec, e)
			if err != nil {
				// this electorate keeps its previous token state
				log.Printf("token issue failed for %s: %v", e.StudentID, err)
				continue
			}
			result.Tokens = append(result.Tokens, *issued)
			result.GeneratedTokens++
		}
	}

	result.Message = tokenCountMessage(result.GeneratedTokens)
	return result, nil
}

func issueSingle(codec votetoken.Codec, e *models.Electorate) (*IssuedToken, error) {
	plaintext, err := codec.Generate()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	expires := now.Add(cfg.TokenTTL)

	err = db.Transaction(func(tx *gorm.DB) error {
		// revoking an already-revoked token is a no-op by the WHERE clause
		if err := tx.Model(&models.VotingToken{}).
			Where("electorate_id = ? AND revoked = ?", e.ID, false).
			Updates(map[string]interface{}{
				"revoked":        true,
				"is_active":      false,
				"revoked_at":     now,
				"revoked_reason": "superseded by reissue",
			}).Error; err != nil {
			return err
		}
		return tx.Create(&models.VotingToken{
			ElectorateID: e.ID,
			TokenHash:    votetoken.Hash(plaintext),
			IsActive:     true,
			ExpiresAt:    expires,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &IssuedToken{
		ElectorateID: e.ID.String(),
		StudentID:    studentid.ToDisplay(e.StudentID),
		Token:        plaintext,
		ExpiresAt:    expires,
	}, nil
}

func tokenCountMessage(n int) string {
	if n == 1 {
		return "Generated 1 token successfully"
	}
	return fmt.Sprintf("Generated %d tokens successfully", n)
}

// IssueForAll resolves the full eligible set, optionally skipping voters who
// already cast, then delegates to IssueForElectorates.
func IssueForAll(excludeVoted bool) (*TokenGenerationResult, error) {
	q := db.Model(&models.Electorate{}).Where("is_deleted = ?", false)
	if excludeVoted {
		q = q.Where("has_voted = ?", false)
	}
	var ids []uuid.UUID
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return IssueForElectorates(ids, false)
}

// IssueForPortfolio targets electorates with no valid vote for a specific
// portfolio, so non-participants of one race can be re-prompted.
func IssueForPortfolio(portfolioID uuid.UUID) (*TokenGenerationResult, error) {
	var votedIDs []uuid.UUID
	if err := db.Model(&models.Vote{}).
		Where("portfolio_id = ? AND is_valid = ?", portfolioID, true).
		Pluck("electorate_id", &votedIDs).Error; err != nil {
		return nil, err
	}

	q := db.Model(&models.Electorate{}).Where("is_deleted = ?", false)
	if len(votedIDs) > 0 {
		q = q.Where("id NOT IN ?", votedIDs)
	}
	var ids []uuid.UUID
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return IssueForElectorates(ids, true)
}

// RegenerateSingle reissues one electorate's token. Whether an electorate
// who already cast some votes may regenerate is deployment policy
// (ALLOW_REGEN_AFTER_VOTE).
func RegenerateSingle(electorateID uuid.UUID) (*TokenGenerationResult, error) {
	return IssueForElectorates([]uuid.UUID{electorateID}, cfg.AllowRegenAfterVote)
}

// TokenStatistics reports issuance and turnout counters.
type TokenStatistics struct {
	TotalElectorates  int64   `json:"total_electorates"`
	VotedElectorates  int64   `json:"voted_electorates"`
	VotersRemaining   int64   `json:"voters_remaining"`
	ActiveTokens      int64   `json:"active_tokens"`
	TurnoutPercentage float64 `json:"turnout_percentage"`
}

func GetTokenStatistics() (*TokenStatistics, error) {
	stats := &TokenStatistics{}
	if err := db.Model(&models.Electorate{}).
		Where("is_deleted = ?", false).
		Count(&stats.TotalElectorates).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Electorate{}).
		Where("is_deleted = ? AND has_voted = ?", false, true).
		Count(&stats.VotedElectorates).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.VotingToken{}).
		Where("revoked = ? AND is_active = ? AND expires_at > ?", false, true, time.Now().UTC()).
		Count(&stats.ActiveTokens).Error; err != nil {
		return nil, err
	}
	stats.VotersRemaining = stats.TotalElectorates - stats.VotedElectorates
	if stats.TotalElectorates > 0 {
		pct := float64(stats.VotedElectorates) / float64(stats.TotalElectorates) * 100
		stats.TurnoutPercentage = math.Round(pct*100) / 100
	}
	return stats, nil
}
