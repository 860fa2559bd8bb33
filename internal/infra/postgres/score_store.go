package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"quiniela-scoring-service/internal/domain"
)

// ParticipantScoreRow is the bun model for the participant_scores table. The
// updated_at audit column stays out of the model: the database default fills
// it, so the persisted domain rows depend only on the scoring inputs.
type ParticipantScoreRow struct {
	bun.BaseModel `bun:"table:participant_scores"`

	RaceID        string `bun:"race_id,pk"`
	ParticipantID string `bun:"participant_id,pk"`
	Points        int    `bun:"points"`
}

// ScoreStore persists per-participant totals through bun. ReplaceScores runs
// delete and insert inside a single transaction, so a failure leaves the
// previously stored rows intact.
type ScoreStore struct {
	db *bun.DB
}

func NewScoreStore(db *bun.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

func (s *ScoreStore) ReplaceScores(ctx context.Context, raceID string, scores []domain.ParticipantScore) error {
	rows := make([]ParticipantScoreRow, len(scores))
	for i, score := range scores {
		rows[i] = ParticipantScoreRow{
			RaceID:        score.RaceID,
			ParticipantID: score.ParticipantID,
			Points:        score.Points,
		}
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*ParticipantScoreRow)(nil)).
			Where("race_id = ?", raceID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete old scores: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert scores: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace scores: %w", err)
	}
	return nil
}

// ListScores returns the stored rows for a race ordered by participant.
func (s *ScoreStore) ListScores(ctx context.Context, raceID string) ([]domain.ParticipantScore, error) {
	var rows []ParticipantScoreRow
	if err := s.db.NewSelect().
		Model(&rows).
		Where("race_id = ?", raceID).
		Order("participant_id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	scores := make([]domain.ParticipantScore, len(rows))
	for i, row := range rows {
		scores[i] = domain.ParticipantScore{
			RaceID:        row.RaceID,
			ParticipantID: row.ParticipantID,
			Points:        row.Points,
		}
	}
	return scores, nil
}
