package app

import (
	"time"

	"voice-quiz-service/internal/domain"
)

// State is where a conversation sits in the quiz flow.
type State string

const (
	StateIdle              State = "IDLE"
	StateQuizTypeSelection State = "QUIZ_TYPE_SELECTION"
	StateAsking            State = "ASKING"
	StateAwaitingAnswer    State = "AWAITING_ANSWER"
	StateRetryPrompt       State = "RETRY_PROMPT"
	StateRevealing         State = "REVEALING"
	StateEnded             State = "END"
	StateAbout             State = "ABOUT"
)

// RoundResult is the resolution of one queue position.
type RoundResult struct {
	Correct     bool     `json:"correct"`
	UserAnswers []string `json:"userAnswers"`
}

// QuestionState is scratch state for the question in flight.
type QuestionState struct {
	Correct *bool    `json:"correct,omitempty"`
	Answers []string `json:"answers,omitempty"` // dynamic override of the question's answers
}

func (qs QuestionState) answersFor(q domain.Question) []string {
	if len(qs.Answers) > 0 {
		return qs.Answers
	}
	return q.Answers
}

// IsCorrect reports whether the in-flight question was resolved correctly.
func (qs QuestionState) IsCorrect() bool {
	return qs.Correct != nil && *qs.Correct
}

// Session is the per-conversation quiz state. It is owned by one conversation and is
// persisted between turns by a SessionRepository.
type Session struct {
	ConversationID string                 `json:"conversationId"`
	State          State                  `json:"state"`
	PreviousState  State                  `json:"previousState,omitempty"`
	QuizType       domain.QuizType        `json:"quizType,omitempty"`
	QNum           int                    `json:"qNum"`
	Score          int                    `json:"score"`
	Queue          []int                  `json:"queue,omitempty"`
	RoundHistory   map[int]RoundResult    `json:"roundHistory"`
	CurQ           *domain.Question       `json:"curQ,omitempty"`
	QState         QuestionState          `json:"qState"`
	Retrying       bool                   `json:"retrying,omitempty"`
	Unaskable      []int                  `json:"unaskable,omitempty"`
	Ordering       *domain.OrderingConfig `json:"ordering,omitempty"`
	CanvasLoaded   bool                   `json:"canvasLoaded,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(conversationID string) *Session {
	return NewSessionWithClock(conversationID, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(conversationID string, now func() time.Time) *Session {
	ts := now()
	return &Session{
		ConversationID: conversationID,
		State:          StateIdle,
		QNum:           -1,
		RoundHistory:   make(map[int]RoundResult),
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
}

// ensure restores the invariants a decoded session may have lost.
func (s *Session) ensure() {
	if s.RoundHistory == nil {
		s.RoundHistory = make(map[int]RoundResult)
	}
}

// InQuiz reports whether a round is in progress.
func (s *Session) InQuiz() bool {
	return len(s.Queue) > 0 && s.QNum >= 0 && s.QNum < len(s.Queue)
}

// reset clears all round state before a new round.
func (s *Session) reset(quizType domain.QuizType) {
	s.State = StateIdle
	s.PreviousState = ""
	s.QuizType = quizType
	s.QNum = -1
	s.Score = 0
	s.Queue = nil
	s.RoundHistory = make(map[int]RoundResult)
	s.CurQ = nil
	s.QState = QuestionState{}
	s.Retrying = false
	s.Unaskable = nil
}

func (s *Session) inQueue(q int) bool {
	for _, v := range s.Queue {
		if v == q {
			return true
		}
	}
	return false
}

func (s *Session) isUnaskable(q int) bool {
	for _, v := range s.Unaskable {
		if v == q {
			return true
		}
	}
	return false
}

// removeAt drops a queue position and shifts later round history entries down.
func (s *Session) removeAt(pos int) int {
	removed := s.Queue[pos]
	s.Queue = append(s.Queue[:pos:pos], s.Queue[pos+1:]...)

	if len(s.RoundHistory) > 0 {
		shifted := make(map[int]RoundResult, len(s.RoundHistory))
		for k, r := range s.RoundHistory {
			switch {
			case k < pos:
				shifted[k] = r
			case k > pos:
				shifted[k-1] = r
			}
		}
		s.RoundHistory = shifted
	}
	return removed
}

// replaceQuestion removes the question at pos and appends the first entry of fullQueue
// that is not already queued, is not the removed question and was not found unaskable
// this round. It reports false when no substitute exists; the queue then shrinks by one.
func (s *Session) replaceQuestion(pos int, fullQueue []int) (int, bool) {
	removed := s.removeAt(pos)
	for _, candidate := range fullQueue {
		if candidate == removed || s.inQueue(candidate) || s.isUnaskable(candidate) {
			continue
		}
		s.Queue = append(s.Queue, candidate)
		return removed, true
	}
	return removed, false
}
