package server

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/engine"
	"github.com/hailam/chessgui/internal/game"
	"github.com/hailam/chessgui/internal/storage"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrNoStore      = errors.New("no game store configured")
	ErrCustomStart  = errors.New("games started from a custom position cannot be saved")
)

// Config configures a Manager.
type Config struct {
	Store      *storage.Storage // optional
	Difficulty engine.Difficulty
	AIDepth    int // 0 uses the difficulty depth
	HintDepth  int // 0 uses engine.HintDepth
	Logger     *log.Logger
}

// Manager holds the running games keyed by id.
type Manager struct {
	games map[string]*Game
	mu    sync.RWMutex
	cfg   Config
}

// NewManager creates an empty manager.
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.AIDepth <= 0 {
		cfg.AIDepth = engine.DifficultyDepth[cfg.Difficulty]
	}
	if cfg.AIDepth <= 0 {
		cfg.AIDepth = engine.DifficultyDepth[engine.Medium]
	}
	if cfg.HintDepth <= 0 {
		cfg.HintDepth = engine.HintDepth
	}
	return &Manager{
		games: make(map[string]*Game),
		cfg:   cfg,
	}
}

// CreateGame starts a game from b with side to move. Each game gets its own
// engine. Saves replay from the standard setup, so games starting anywhere
// else cannot be saved.
func (m *Manager) CreateGame(b *board.Board, side board.Alliance, automated []board.Alliance) *Game {
	g := newGame(uuid.New().String(), m.cfg.Store, m.cfg.Logger)
	g.custom = b.ToFEN(side) != board.StartFEN

	eng := engine.NewEngine()
	eng.SetDifficulty(m.cfg.Difficulty)
	opts := []game.Option{
		game.WithBoard(b, side),
		game.WithObserver(g),
		game.WithPromotion(g.choosePromotion),
		game.WithEngine(eng),
		game.WithLogger(m.cfg.Logger),
	}
	for _, a := range automated {
		opts = append(opts, game.WithAutomated(a))
	}
	g.session = game.New(opts...)

	m.mu.Lock()
	m.games[g.ID] = g
	m.mu.Unlock()

	m.cfg.Logger.Printf("[HTTP] Created game %s", g.ID)
	return g
}

// GetGame returns the game with id.
func (m *Manager) GetGame(id string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, exists := m.games[id]
	if !exists {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// RemoveGame forgets the game with id.
func (m *Manager) RemoveGame(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
}

// Count returns the number of running games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// SaveGame stores the history of g under a new save id.
func (m *Manager) SaveGame(g *Game) (string, error) {
	if m.cfg.Store == nil {
		return "", ErrNoStore
	}
	if g.custom {
		return "", ErrCustomStart
	}
	var history []*board.Move
	g.Do(func(s *game.Session) { history = s.History() })

	saveID := uuid.New().String()
	if err := m.cfg.Store.SaveGame(saveID, history); err != nil {
		return "", err
	}
	return saveID, nil
}

// LoadGame starts a new game replaying the save with saveID.
func (m *Manager) LoadGame(saveID string, automated []board.Alliance) (*Game, error) {
	if m.cfg.Store == nil {
		return nil, ErrNoStore
	}
	records, err := m.cfg.Store.LoadGame(saveID)
	if err != nil {
		return nil, err
	}

	g := m.CreateGame(board.NewStandard(), board.White, automated)
	var replayErr error
	g.Do(func(s *game.Session) {
		replayErr = s.Replay(storage.MoveRecords(records))
	})
	if replayErr != nil {
		m.RemoveGame(g.ID)
		return nil, fmt.Errorf("load %s: %w", saveID, replayErr)
	}
	return g, nil
}
