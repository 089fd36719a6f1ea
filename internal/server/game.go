package server

import (
	"log"
	"sync"
	"time"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/game"
	"github.com/hailam/chessgui/internal/storage"
)

// sink receives broadcast messages. *websocket.Conn satisfies it.
type sink interface {
	WriteJSON(v any) error
}

// Game is a session shared by the clients of one game id. It observes the
// session and forwards every notification to the connected websockets.
type Game struct {
	ID string

	mu        sync.Mutex
	session   *game.Session
	promotion string
	custom    bool // not started from the standard setup

	connMu sync.RWMutex
	conns  map[sink]struct{}

	store    *storage.Storage // optional, receives the result
	started  time.Time
	recorded bool

	logger *log.Logger
}

func newGame(id string, store *storage.Storage, logger *log.Logger) *Game {
	return &Game{
		ID:      id,
		conns:   make(map[sink]struct{}),
		store:   store,
		started: time.Now(),
		logger:  logger,
	}
}

// choosePromotion returns the piece requested with the current selection.
func (g *Game) choosePromotion(board.Alliance) string {
	return g.promotion
}

// Do runs fn with exclusive access to the session and returns the
// resulting state.
func (g *Game) Do(fn func(s *game.Session)) GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.session)
	return newGameState(g.ID, g.session)
}

// State returns the current state.
func (g *Game) State() GameState {
	return g.Do(func(*game.Session) {})
}

// Select forwards a tile selection with an optional promotion choice.
func (g *Game) Select(pos board.Position, promotion string) GameState {
	return g.Do(func(s *game.Session) {
		g.promotion = promotion
		s.Select(pos)
		g.promotion = ""
	})
}

func (g *Game) register(c sink) {
	g.connMu.Lock()
	g.conns[c] = struct{}{}
	n := len(g.conns)
	g.connMu.Unlock()
	g.logger.Printf("[HTTP] Game %s: client connected (%d open)", g.ID, n)
}

func (g *Game) unregister(c sink) {
	g.connMu.Lock()
	delete(g.conns, c)
	g.connMu.Unlock()
}

func (g *Game) broadcast(msg Message) {
	g.connMu.RLock()
	defer g.connMu.RUnlock()

	for c := range g.conns {
		if err := c.WriteJSON(msg); err != nil {
			g.logger.Printf("[HTTP] Game %s: write failed: %v", g.ID, err)
		}
	}
}

// MoveMade implements game.Observer.
func (g *Game) MoveMade(m *board.Move, history []*board.Move) {
	g.broadcast(newMessage(MessageTypeMoveMade, map[string]any{
		"move":    newMoveDTO(m),
		"history": newMoveDTOs(history),
	}))
}

// MoveUndone implements game.Observer.
func (g *Game) MoveUndone(m *board.Move, history []*board.Move) {
	g.broadcast(newMessage(MessageTypeMoveUndone, map[string]any{
		"move":    newMoveDTO(m),
		"history": newMoveDTOs(history),
	}))
}

// SelectionChanged implements game.Observer.
func (g *Game) SelectionChanged(targets []board.Position) {
	g.broadcast(newMessage(MessageTypeSelection, map[string]any{
		"targets": positionNames(targets),
	}))
}

// GameEnded implements game.Observer. The first result of a game is
// recorded in the store.
func (g *Game) GameEnded(status game.Status) {
	g.broadcast(newMessage(MessageTypeGameEnded, map[string]any{
		"status": status.String(),
	}))

	if g.recorded || g.store == nil || g.session == nil {
		return
	}
	g.recorded = true
	err := g.store.RecordResult(storage.GameResult{
		Status:     status,
		Difficulty: g.session.Engine().Difficulty(),
		Plies:      len(g.session.History()),
		Duration:   time.Since(g.started),
	})
	if err != nil {
		g.logger.Printf("[HTTP] Game %s: recording result: %v", g.ID, err)
	}
}

var _ game.Observer = (*Game)(nil)
