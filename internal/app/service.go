package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-timeline/internal/domain"
)

// Errors exposed by the service layer.
var (
	ErrNotFound           = errors.New("game not found")
	ErrIllegalMove        = errors.New("illegal move")
	ErrPositionOutOfRange = errors.New("history position out of range")
)

// session is the in-memory state tracked per game.
type session struct {
	id       string
	timeline *domain.Timeline
	created  time.Time
	updated  time.Time
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service owns the timelines of all running sessions. Every call into a
// timeline happens under mu.
type Service struct {
	mu     sync.Mutex
	games  map[string]*session
	subs   map[string]map[*subscriber]struct{}
	render func(GameView) []byte
	buffer int
	log    *zap.Logger
	now    func() time.Time
}

func nopRenderer(GameView) []byte { return nil }

// NewService creates a service whose broadcasts carry no payload.
func NewService(logger *zap.Logger) *Service { return NewServiceWithRenderer(logger, nil) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(logger *zap.Logger, renderer func(GameView) []byte) *Service {
	if renderer == nil {
		renderer = nopRenderer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		games:  make(map[string]*session),
		subs:   make(map[string]map[*subscriber]struct{}),
		render: renderer,
		buffer: 1,
		log:    logger.Named("app"),
		now:    time.Now,
	}
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameView) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		renderer = nopRenderer
	}
	s.render = renderer
}

// SetSubscriberBuffer sets the channel capacity for new subscribers.
func (s *Service) SetSubscriberBuffer(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.buffer = n
	s.mu.Unlock()
}

// CreateGame starts a new session at the empty board.
func (s *Service) CreateGame() (*GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	gs := &session{
		id:       uuid.NewString(),
		timeline: domain.NewTimeline(),
		created:  now,
		updated:  now,
	}
	s.games[gs.id] = gs
	s.log.Info("game created", zap.String("game_id", gs.id))
	v := newView(gs)
	return &v, nil
}

// Get returns a view of the session if present.
func (s *Service) Get(id string) (*GameView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	v := newView(gs)
	return &v, true
}

// Delete discards a session and disconnects its subscribers.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return ErrNotFound
	}
	for sub := range s.subs[id] {
		sub.close()
	}
	delete(s.subs, id)
	delete(s.games, id)
	s.log.Info("game deleted", zap.String("game_id", id))
	return nil
}

// Play places the current player's mark on cell index and broadcasts the
// new state. ErrIllegalMove is returned if the timeline rejects the move.
func (s *Service) Play(id string, index int) (*GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	player := gs.timeline.CurrentPlayer()
	if !gs.timeline.AttemptMove(index) {
		s.log.Debug("move rejected", zap.String("game_id", id), zap.Int("cell", index))
		return nil, ErrIllegalMove
	}
	gs.updated = s.now()
	v := newView(gs)
	s.log.Debug("move applied",
		zap.String("game_id", id),
		zap.Stringer("player", player),
		zap.Int("cell", index),
		zap.Int("position", v.Position),
	)
	if v.Outcome.Decided() {
		s.log.Info("game decided", zap.String("game_id", id), zap.String("status", v.Status))
	}
	s.publishLocked(id, v)
	return &v, nil
}

// JumpTo moves the session's view to a history position. Positions come
// from user input, so they are checked here before reaching the timeline.
func (s *Service) JumpTo(id string, position int) (*GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	if position < 0 || position >= gs.timeline.Len() {
		return nil, ErrPositionOutOfRange
	}
	gs.timeline.JumpTo(position)
	gs.updated = s.now()
	v := newView(gs)
	s.log.Debug("jumped", zap.String("game_id", id), zap.Int("position", position))
	s.publishLocked(id, v)
	return &v, nil
}

// publishLocked renders v and fans it out to subscribers. Sends never
// block: a subscriber whose buffer is full is dropped.
func (s *Service) publishLocked(id string, v GameView) {
	set := s.subs[id]
	if len(set) == 0 {
		return
	}
	payload := s.render(v)
	dropped := 0
	for sub := range set {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(set, sub)
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Warn("dropped slow subscribers", zap.String("game_id", id), zap.Int("count", dropped))
	}
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, nil, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, s.buffer)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}
