package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"quiniela-scoring-service/internal/domain"
	"quiniela-scoring-service/internal/scoring"
)

// QuestionCatalog supplies question definitions per race (from cache/backing store).
type QuestionCatalog interface {
	ListActiveQuestions(ctx context.Context, raceID string) ([]domain.Question, error)
}

// AnswerRepository supplies the official answer and all participant answers.
type AnswerRepository interface {
	// GetOfficialAnswer returns domain.ErrOfficialAnswerNotFound when no
	// curated answer exists yet for the question.
	GetOfficialAnswer(ctx context.Context, questionID string) (domain.OfficialAnswer, error)
	ListParticipantAnswers(ctx context.Context, raceID string) ([]domain.ParticipantAnswer, error)
}

// RegistrationRepository lists participants registered for a race, so that a
// participant with zero answers still receives a zero score row.
type RegistrationRepository interface {
	ListRegisteredParticipants(ctx context.Context, raceID string) ([]string, error)
}

// ScoreStore persists per-participant totals. ReplaceScores must delete the
// race's existing rows and insert the new set as one atomic unit; on error
// nothing observable may have changed.
type ScoreStore interface {
	ReplaceScores(ctx context.Context, raceID string, scores []domain.ParticipantScore) error
}

// ScoreService recomputes a race's participant scores wholesale. Calls for
// distinct races may run concurrently; calls for the same race must be
// serialized by the caller.
type ScoreService struct {
	catalog       QuestionCatalog
	answers       AnswerRepository
	registrations RegistrationRepository
	store         ScoreStore
}

func NewScoreService(catalog QuestionCatalog, answers AnswerRepository, registrations RegistrationRepository, store ScoreStore) *ScoreService {
	return &ScoreService{
		catalog:       catalog,
		answers:       answers,
		registrations: registrations,
		store:         store,
	}
}

// RecomputeRaceScores grades every participant answer for the race against the
// current official answers and replaces the race's score rows. Re-running with
// unchanged inputs yields identical rows; a load or persist failure leaves the
// previously stored rows untouched and reports success=false.
func (s *ScoreService) RecomputeRaceScores(ctx context.Context, raceID string) (domain.Result, error) {
	questions, err := s.catalog.ListActiveQuestions(ctx, raceID)
	if err != nil {
		return failure("load questions", err), fmt.Errorf("load questions for race %s: %w", raceID, err)
	}

	officials, err := s.loadOfficialAnswers(ctx, questions)
	if err != nil {
		return failure("load official answers", err), fmt.Errorf("load official answers for race %s: %w", raceID, err)
	}

	answers, err := s.answers.ListParticipantAnswers(ctx, raceID)
	if err != nil {
		return failure("load participant answers", err), fmt.Errorf("load participant answers for race %s: %w", raceID, err)
	}

	registered, err := s.registrations.ListRegisteredParticipants(ctx, raceID)
	if err != nil {
		return failure("load registrations", err), fmt.Errorf("load registrations for race %s: %w", raceID, err)
	}

	scores := s.evaluateRace(raceID, questions, officials, answers, registered)

	if err := s.store.ReplaceScores(ctx, raceID, scores); err != nil {
		return failure("persist scores", err), fmt.Errorf("replace scores for race %s: %w", raceID, err)
	}

	return domain.Result{
		Success:     true,
		ScoredCount: len(scores),
		Message:     fmt.Sprintf("scored %d participants across %d questions", len(scores), len(questions)),
	}, nil
}

// loadOfficialAnswers fetches the curated answer for each question. A question
// without one stays out of the map and scores zero for every participant; any
// other repository error aborts the run.
func (s *ScoreService) loadOfficialAnswers(ctx context.Context, questions []domain.Question) (map[string]domain.AnswerValue, error) {
	officials := make(map[string]domain.AnswerValue, len(questions))
	for _, q := range questions {
		official, err := s.answers.GetOfficialAnswer(ctx, q.ID)
		if err != nil {
			if errors.Is(err, domain.ErrOfficialAnswerNotFound) {
				log.Printf("race %s: question %s has no official answer, scoring it as zero", q.RaceID, q.ID)
				continue
			}
			return nil, err
		}
		officials[q.ID] = official.Value
	}
	return officials, nil
}

// evaluateRace is the pure middle stage: no I/O, no failure modes. Malformed
// answers are logged and kept at zero; they never abort other participants.
func (s *ScoreService) evaluateRace(raceID string, questions []domain.Question, officials map[string]domain.AnswerValue, answers []domain.ParticipantAnswer, registered []string) []domain.ParticipantScore {
	byParticipant := make(map[string]map[string]domain.AnswerValue)
	for _, a := range answers {
		if byParticipant[a.ParticipantID] == nil {
			byParticipant[a.ParticipantID] = make(map[string]domain.AnswerValue)
		}
		byParticipant[a.ParticipantID][a.QuestionID] = a.Value
	}

	participants := make(map[string]struct{}, len(byParticipant)+len(registered))
	for id := range byParticipant {
		participants[id] = struct{}{}
	}
	for _, id := range registered {
		participants[id] = struct{}{}
	}

	scores := make([]domain.ParticipantScore, 0, len(participants))
	for participantID := range participants {
		total := 0
		for _, q := range questions {
			official := officials[q.ID]
			user := byParticipant[participantID][q.ID]
			points, _, err := scoring.Evaluate(q, user, official)
			if err != nil {
				log.Printf("race %s: participant %s, question %s: %v (scored as zero)", raceID, participantID, q.ID, err)
				continue
			}
			total += points
		}
		scores = append(scores, domain.ParticipantScore{
			RaceID:        raceID,
			ParticipantID: participantID,
			Points:        total,
		})
	}

	// Stable output order keeps back-to-back runs byte-identical.
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].ParticipantID < scores[j].ParticipantID
	})
	return scores
}

func failure(stage string, err error) domain.Result {
	return domain.Result{Success: false, Message: fmt.Sprintf("%s: %v", stage, err)}
}
