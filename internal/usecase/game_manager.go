package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

// recorder is called with the registry lock held, so gauge updates land in order.
type recorder interface {
	MoveApplied()
	MoveIgnored()
	GameFinished(outcome entity.Outcome)
	Restarted()
	SessionsActive(count int)
}

// session - one engine plus the bookkeeping needed to serialize access to it.
type session struct {
	mu sync.Mutex

	info     entity.Session
	engine   *tictactoe.Engine
	changed  bool
	lastSeen time.Time
}

// GameManager keeps one hot-seat board per connected client in memory.
type GameManager struct {
	logger   *slog.Logger
	recorder recorder
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewGameManager(logger *slog.Logger, recorder recorder, ttl time.Duration) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		recorder: recorder,
		ttl:      ttl,
		now:      time.Now,

		sessions: make(map[string]*session),
	}
}

func (that *GameManager) StartSession(ctx context.Context) (*entity.Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := that.now()
	sess := &session{
		info: entity.Session{
			ID:        id.String(),
			CreatedAt: now,
		},
		lastSeen: now,
	}
	sess.engine = tictactoe.NewEngine(tictactoe.WithChangeListener(func(*tictactoe.Engine) {
		sess.changed = true
	}))

	that.mu.Lock()
	that.sessions[sess.info.ID] = sess
	that.recorder.SessionsActive(len(that.sessions))
	that.mu.Unlock()

	that.logger.InfoContext(ctx, "session started", "sessionID", sess.info.ID)

	info := sess.info

	return &info, nil
}

func (that *GameManager) State(_ context.Context, sessionID string) (*entity.GameView, error) {
	sess, err := that.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastSeen = that.now()

	return newGameView(sess, false), nil
}

func (that *GameManager) Move(ctx context.Context, sessionID string, row, col int) (*entity.GameView, error) {
	log := that.logger.With("method", "Move", "sessionID", sessionID)

	sess, err := that.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastSeen = that.now()
	sess.changed = false

	sess.engine.Move(row, col)

	if !sess.changed {
		that.recorder.MoveIgnored()
		log.DebugContext(ctx, "move ignored", "row", row, "col", col)

		return newGameView(sess, false), nil
	}

	that.recorder.MoveApplied()

	if outcome := sess.engine.Outcome(); outcome.IsFinished() {
		that.recorder.GameFinished(outcome)
		log.InfoContext(ctx, "game finished", "status", outcome.Status, "winner", outcome.Winner)
	}

	return newGameView(sess, true), nil
}

func (that *GameManager) Restart(ctx context.Context, sessionID string) (*entity.GameView, error) {
	sess, err := that.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastSeen = that.now()
	sess.changed = false

	sess.engine.Restart()

	that.recorder.Restarted()
	that.logger.DebugContext(ctx, "board restarted", "sessionID", sessionID)

	return newGameView(sess, sess.changed), nil
}

// EndSession - drops the board. Unknown sessions are ignored.
func (that *GameManager) EndSession(ctx context.Context, sessionID string) {
	that.mu.Lock()
	_, ok := that.sessions[sessionID]
	if ok {
		delete(that.sessions, sessionID)
		that.recorder.SessionsActive(len(that.sessions))
	}
	that.mu.Unlock()

	if !ok {
		return
	}

	that.logger.InfoContext(ctx, "session ended", "sessionID", sessionID)
}

// EvictIdle - drops sessions not touched within the ttl and returns how many were removed.
func (that *GameManager) EvictIdle(now time.Time) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	evicted := 0
	for id, sess := range that.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastSeen)
		sess.mu.Unlock()

		if idle > that.ttl {
			delete(that.sessions, id)
			evicted++
		}
	}

	if evicted > 0 {
		that.recorder.SessionsActive(len(that.sessions))
		that.logger.Info("idle sessions evicted", "count", evicted)
	}

	return evicted
}

// RunJanitor - evicts idle sessions every interval until ctx is done.
func (that *GameManager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.EvictIdle(that.now())
		}
	}
}

func (that *GameManager) getSession(id string) (*session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sess, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	return sess, nil
}

// newGameView - must be called with sess.mu held.
func newGameView(sess *session, changed bool) *entity.GameView {
	engine := sess.engine
	outcome := engine.Outcome()
	moveCount := engine.MoveCount()

	return &entity.GameView{
		SessionID:  sess.info.ID,
		Board:      engine.Board(),
		Turn:       engine.CurrentTurn(),
		Status:     outcome.Status,
		Winner:     outcome.Winner,
		Line:       outcome.Line,
		MoveCount:  moveCount,
		CanRestart: moveCount > 0,
		Changed:    changed,
	}
}
