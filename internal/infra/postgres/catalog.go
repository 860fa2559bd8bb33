package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiniela-scoring-service/internal/domain"
)

// Catalog reads question definitions from Postgres. Type-specific scoring
// parameters live in a JSONB column and are decoded here, at the boundary.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// questionParams is the JSONB shape of the type-specific columns.
type questionParams struct {
	MaxScore               int      `json:"maxScore"`
	TotalScore             int      `json:"totalScore"`
	PointsPerCorrect       int      `json:"pointsPerCorrect"`
	PointsPerIncorrect     int      `json:"pointsPerIncorrect"`
	ItemOrder              []string `json:"itemOrder"`
	PointsPerPosition      int      `json:"pointsPerPosition"`
	BonusFullOrder         int      `json:"bonusFullOrder"`
	SliderPointsExact      int      `json:"sliderPointsExact"`
	SliderThresholdPartial *float64 `json:"sliderThresholdPartial"`
	SliderPointsPartial    *int     `json:"sliderPointsPartial"`
}

// LoadRaceQuestions returns the race's active questions, or
// domain.ErrRaceNotFound for an unknown race.
func (c *Catalog) LoadRaceQuestions(ctx context.Context, raceID string) ([]domain.Question, error) {
	var exists bool
	if err := c.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM races WHERE id=$1)`, raceID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check race: %w", err)
	}
	if !exists {
		return nil, domain.ErrRaceNotFound
	}

	rows, err := c.pool.Query(ctx,
		`SELECT id, text, qtype, params FROM questions WHERE race_id=$1 AND active ORDER BY id`, raceID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var params questionParams
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("decode params for question %s: %w", q.ID, err)
		}
		q.RaceID = raceID
		q.Active = true
		q.MaxScore = params.MaxScore
		q.TotalScore = params.TotalScore
		q.PointsPerCorrect = params.PointsPerCorrect
		q.PointsPerIncorrect = params.PointsPerIncorrect
		q.ItemOrder = params.ItemOrder
		q.PointsPerPosition = params.PointsPerPosition
		q.BonusFullOrder = params.BonusFullOrder
		q.SliderPointsExact = params.SliderPointsExact
		q.SliderThresholdPartial = params.SliderThresholdPartial
		q.SliderPointsPartial = params.SliderPointsPartial
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListActiveQuestions lets the Catalog serve directly, without a cache layer
// in front.
func (c *Catalog) ListActiveQuestions(ctx context.Context, raceID string) ([]domain.Question, error) {
	return c.LoadRaceQuestions(ctx, raceID)
}
