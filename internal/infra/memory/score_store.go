package memory

import (
	"context"
	"sync"

	"quiniela-scoring-service/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreStore. The swap under
// one lock gives the same all-or-nothing behavior the Postgres store gets from
// a transaction.
type ScoreStore struct {
	mu   sync.RWMutex
	rows map[string][]domain.ParticipantScore
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{rows: make(map[string][]domain.ParticipantScore)}
}

func (s *ScoreStore) ReplaceScores(_ context.Context, raceID string, scores []domain.ParticipantScore) error {
	replacement := make([]domain.ParticipantScore, len(scores))
	copy(replacement, scores)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(replacement) == 0 {
		delete(s.rows, raceID)
		return nil
	}
	s.rows[raceID] = replacement
	return nil
}

// Scores returns a copy of the stored rows for a race.
func (s *ScoreStore) Scores(raceID string) []domain.ParticipantScore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ParticipantScore, len(s.rows[raceID]))
	copy(out, s.rows[raceID])
	return out
}
