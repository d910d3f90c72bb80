package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"voice-quiz-service/internal/domain"
)

// SessionRepository abstracts how conversation sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Get(ctx context.Context, conversationID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, conversationID string) error
}

// HistoryRepository persists per-user question history.
type HistoryRepository interface {
	Load(ctx context.Context, userID string) (*domain.History, error)
	Save(ctx context.Context, userID string, history *domain.History) error
	Delete(ctx context.Context, userID string) error
}

// DatasetRepository loads quiz content (from cache/backing store).
type DatasetRepository interface {
	GetDataset(ctx context.Context, datasetID string) (*domain.Dataset, error)
}

// EventPublisher emits quiz lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// GameConfig is the read-only game configuration shared by every conversation.
type GameConfig struct {
	DatasetID          string
	Ordering           domain.OrderingConfig
	AllowRetry         bool
	NumToPass          int
	WelcomeBackMaxTime time.Duration
	ImageURL           string
	AudioURL           string
	CanvasURL          string
	FeedbackThresholds []FeedbackThreshold
}

// QuizService runs one conversation turn at a time through the quiz state machine.
type QuizService struct {
	sessions  SessionRepository
	histories HistoryRepository
	datasets  DatasetRepository
	events    EventPublisher
	hub       *CanvasHub
	cfg       GameConfig
	logger    *slog.Logger
	now       func() time.Time

	locks keyedMutex

	seedMu sync.Mutex
	seeds  *rand.Rand

	catMu   sync.Mutex
	catalog *catalog
}

// Option customizes a QuizService.
type Option func(*QuizService)

func WithEventPublisher(p EventPublisher) Option {
	return func(s *QuizService) { s.events = p }
}

func WithCanvasHub(h *CanvasHub) Option {
	return func(s *QuizService) { s.hub = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *QuizService) { s.logger = l }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithRandSeed makes shuffles reproducible.
func WithRandSeed(seed int64) Option {
	return func(s *QuizService) { s.seeds = rand.New(rand.NewSource(seed)) }
}

func NewQuizService(sessions SessionRepository, histories HistoryRepository, datasets DatasetRepository, cfg GameConfig, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:  sessions,
		histories: histories,
		datasets:  datasets,
		events:    noopPublisher{},
		hub:       NewCanvasHub(),
		cfg:       cfg,
		logger:    slog.Default(),
		now:       time.Now,
		seeds:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe returns canvas state updates for a conversation.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(conversationID string) (<-chan CanvasState, func()) {
	return s.hub.Subscribe(conversationID)
}

// HandleTurn loads the conversation, applies one user turn and persists the result.
// Turns for the same conversation are serialized.
func (s *QuizService) HandleTurn(ctx context.Context, turn domain.Turn) (Reply, error) {
	if turn.ConversationID == "" {
		return Reply{}, domain.ErrMissingConversation
	}
	unlock := s.locks.lock(turn.ConversationID)
	defer unlock()

	cat, err := s.catalogFor(ctx)
	if err != nil {
		return Reply{}, err
	}

	session, err := s.sessions.Get(ctx, turn.ConversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		session = NewSessionWithClock(turn.ConversationID, s.now)
	} else if err != nil {
		return Reply{}, fmt.Errorf("load session: %w", err)
	}
	session.ensure()

	history, err := s.loadHistory(ctx, turn.UserID, len(cat.dataset.Questions))
	if err != nil {
		return Reply{}, err
	}

	c := &conversation{
		svc:     s,
		cat:     cat,
		sess:    session,
		hist:    history,
		turn:    turn,
		reply:   newReplyBuilder(),
		rnd:     s.newRand(),
		started: s.now(),
	}
	if err := c.dispatch(); err != nil {
		return Reply{}, err
	}

	reply := c.reply.build(session)
	if turn.Surface.Canvas && !session.CanvasLoaded {
		reply.CanvasURL = s.cfg.CanvasURL
		session.CanvasLoaded = true
	}
	session.UpdatedAt = s.now()

	if turn.UserID != "" {
		if c.historyDeleted {
			err = s.histories.Delete(ctx, turn.UserID)
		} else {
			err = s.histories.Save(ctx, turn.UserID, history)
		}
		if err != nil {
			return Reply{}, fmt.Errorf("save history: %w", err)
		}
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}

	s.hub.Publish(turn.ConversationID, reply.Canvas)
	if reply.Close {
		s.hub.Forget(turn.ConversationID)
	}
	for _, ev := range c.events {
		if err := s.events.Publish(ctx, ev.kind, ev.payload); err != nil {
			s.logger.Warn("publish event failed", "event", ev.kind, "conversation", turn.ConversationID, "error", err)
		}
	}
	return reply, nil
}

// EndSession drops a conversation's stored state, e.g. on an explicit goodbye.
func (s *QuizService) EndSession(ctx context.Context, conversationID string) error {
	s.hub.Forget(conversationID)
	return s.sessions.Delete(ctx, conversationID)
}

func (s *QuizService) loadHistory(ctx context.Context, userID string, numQuestions int) (*domain.History, error) {
	if userID == "" {
		return domain.NewHistory(numQuestions), nil
	}
	history, err := s.histories.Load(ctx, userID)
	if errors.Is(err, domain.ErrHistoryNotFound) {
		return domain.NewHistory(numQuestions), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history.EnsureQuestions(numQuestions)
	return history, nil
}

func (s *QuizService) newRand() *rand.Rand {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return rand.New(rand.NewSource(s.seeds.Int63()))
}

// catalog bundles a loaded dataset with the indexes built over it.
type catalog struct {
	dataset *domain.Dataset
	matcher *Matcher
	phrases *phrasebook
}

// catalogFor rebuilds indexes only when the repository hands out a different dataset.
func (s *QuizService) catalogFor(ctx context.Context) (*catalog, error) {
	ds, err := s.datasets.GetDataset(ctx, s.cfg.DatasetID)
	if err != nil {
		return nil, err
	}
	s.catMu.Lock()
	defer s.catMu.Unlock()
	if s.catalog == nil || s.catalog.dataset != ds {
		s.catalog = &catalog{
			dataset: ds,
			matcher: NewMatcher(ds.Answers),
			phrases: newPhrasebook(ds.Misc),
		}
	}
	return s.catalog, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
