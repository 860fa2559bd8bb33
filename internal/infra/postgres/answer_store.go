package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiniela-scoring-service/internal/domain"
)

// AnswerStore reads official answers, participant answers and registrations.
// Answer payloads are JSONB and decode into domain.AnswerValue here, so a
// corrupt payload fails loudly at the boundary instead of inside scoring.
type AnswerStore struct {
	pool *pgxpool.Pool
}

func NewAnswerStore(pool *pgxpool.Pool) *AnswerStore {
	return &AnswerStore{pool: pool}
}

func (s *AnswerStore) GetOfficialAnswer(ctx context.Context, questionID string) (domain.OfficialAnswer, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM official_answers WHERE question_id=$1`, questionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OfficialAnswer{}, domain.ErrOfficialAnswerNotFound
	}
	if err != nil {
		return domain.OfficialAnswer{}, fmt.Errorf("load official answer: %w", err)
	}

	var value domain.AnswerValue
	if err := value.UnmarshalJSON(raw); err != nil {
		return domain.OfficialAnswer{}, fmt.Errorf("official answer for question %s: %w", questionID, err)
	}
	return domain.OfficialAnswer{QuestionID: questionID, Value: value}, nil
}

func (s *AnswerStore) ListParticipantAnswers(ctx context.Context, raceID string) ([]domain.ParticipantAnswer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT participant_id, question_id, value FROM participant_answers WHERE race_id=$1 ORDER BY participant_id, question_id`, raceID)
	if err != nil {
		return nil, fmt.Errorf("load participant answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.ParticipantAnswer
	for rows.Next() {
		var (
			a   domain.ParticipantAnswer
			raw []byte
		)
		if err := rows.Scan(&a.ParticipantID, &a.QuestionID, &raw); err != nil {
			return nil, fmt.Errorf("scan participant answer: %w", err)
		}
		if err := a.Value.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("answer from %s for question %s: %w", a.ParticipantID, a.QuestionID, err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *AnswerStore) ListRegisteredParticipants(ctx context.Context, raceID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT participant_id FROM race_registrations WHERE race_id=$1 ORDER BY participant_id`, raceID)
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	defer rows.Close()

	var participants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		participants = append(participants, id)
	}
	return participants, rows.Err()
}
