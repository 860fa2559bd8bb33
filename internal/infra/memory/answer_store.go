package memory

import (
	"context"
	"sync"

	"quiniela-scoring-service/internal/domain"
)

// AnswerStore holds official answers, participant answers and registrations in
// memory. It backs the unit tests and the demo wiring in the CLI.
type AnswerStore struct {
	mu            sync.RWMutex
	officials     map[string]domain.OfficialAnswer
	answers       map[string][]domain.ParticipantAnswer
	registrations map[string][]string
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{
		officials:     make(map[string]domain.OfficialAnswer),
		answers:       make(map[string][]domain.ParticipantAnswer),
		registrations: make(map[string][]string),
	}
}

// SetOfficialAnswer stores or replaces the single curated answer for a question.
func (s *AnswerStore) SetOfficialAnswer(questionID string, value domain.AnswerValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.officials[questionID] = domain.OfficialAnswer{QuestionID: questionID, Value: value}
}

// RemoveOfficialAnswer deletes the curated answer, if any.
func (s *AnswerStore) RemoveOfficialAnswer(questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.officials, questionID)
}

// AddParticipantAnswer records one submission; a later call for the same
// (participant, question) replaces the earlier one.
func (s *AnswerStore) AddParticipantAnswer(raceID string, answer domain.ParticipantAnswer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.answers[raceID]
	for i, a := range existing {
		if a.ParticipantID == answer.ParticipantID && a.QuestionID == answer.QuestionID {
			existing[i] = answer
			return
		}
	}
	s.answers[raceID] = append(existing, answer)
}

// RegisterParticipant marks a participant as registered for a race even if
// they never answer anything.
func (s *AnswerStore) RegisterParticipant(raceID, participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.registrations[raceID] {
		if id == participantID {
			return
		}
	}
	s.registrations[raceID] = append(s.registrations[raceID], participantID)
}

func (s *AnswerStore) GetOfficialAnswer(_ context.Context, questionID string) (domain.OfficialAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	official, ok := s.officials[questionID]
	if !ok {
		return domain.OfficialAnswer{}, domain.ErrOfficialAnswerNotFound
	}
	return official, nil
}

func (s *AnswerStore) ListParticipantAnswers(_ context.Context, raceID string) ([]domain.ParticipantAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ParticipantAnswer, len(s.answers[raceID]))
	copy(out, s.answers[raceID])
	return out, nil
}

func (s *AnswerStore) ListRegisteredParticipants(_ context.Context, raceID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.registrations[raceID]))
	copy(out, s.registrations[raceID])
	return out, nil
}
