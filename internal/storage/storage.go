package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/engine"
	"github.com/hailam/chessgui/internal/game"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
	prefixGame     = "game/"
)

var ErrGameNotFound = errors.New("saved game not found")

// UserPreferences stores user settings
type UserPreferences struct {
	Username   string            `json:"username"`
	Difficulty engine.Difficulty `json:"difficulty"`
	// Automated lists the sides played by the engine: "white", "black", both or neither.
	Automated  []string  `json:"automated"`
	AIDepth    int       `json:"ai_depth"`
	HintDepth  int       `json:"hint_depth"`
	LastPlayed time.Time `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Username:   "Player",
		Difficulty: engine.Medium,
		Automated:  []string{"black"},
		AIDepth:    engine.DifficultyDepth[engine.Medium],
		HintDepth:  engine.HintDepth,
		LastPlayed: time.Now(),
	}
}

// AutomatedSides parses the automated side names, skipping unknown ones.
func (p *UserPreferences) AutomatedSides() []board.Alliance {
	var sides []board.Alliance
	for _, name := range p.Automated {
		if a, err := board.ParseAlliance(name); err == nil {
			sides = append(sides, a)
		}
	}
	return sides
}

// GameStats stores game statistics
type GameStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	ResultsByDiff map[string]int `json:"results_by_difficulty"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
	LongestGame   int            `json:"longest_game"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		ResultsByDiff: make(map[string]int),
	}
}

// GameResult represents the result of a completed game
type GameResult struct {
	Status     game.Status
	Difficulty engine.Difficulty
	Plies      int
	Duration   time.Duration
}

// SavedGame is the stored form of a game in progress.
type SavedGame struct {
	ID      string    `json:"id"`
	Moves   string    `json:"moves"`
	Plies   int       `json:"plies"`
	SavedAt time.Time `json:"saved_at"`
}

// Records decodes the saved moves.
func (g *SavedGame) Records() ([]Record, error) {
	return DecodeRecords(strings.NewReader(g.Moves))
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens the database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	var firstLaunch bool = true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if err == badger.ErrKeyNotFound {
			firstLaunch = true
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *UserPreferences) error {
	prefs.LastPlayed = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()
	_, err := s.get(keyPreferences, prefs)
	return prefs, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.put(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	_, err := s.get(keyStats, stats)
	return stats, err
}

// RecordResult records a finished game and updates statistics. Games that
// are still going are ignored.
func (s *Storage) RecordResult(result GameResult) error {
	if !result.Status.Terminal() {
		return nil
	}

	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlayTime += result.Duration
	stats.LongestGame = max(stats.LongestGame, result.Plies)
	stats.ResultsByDiff[result.Difficulty.String()]++

	if winner, ok := result.Status.Winner(); !ok {
		stats.Draws++
	} else if winner == board.White {
		stats.WhiteWins++
	} else {
		stats.BlackWins++
	}

	log.Printf("[Storage] Recorded result: %s", result.Status)
	return s.SaveStats(stats)
}

// SaveGame stores moves under id, replacing any earlier save.
func (s *Storage) SaveGame(id string, moves []*board.Move) error {
	var buf bytes.Buffer
	if err := EncodeMoves(&buf, moves); err != nil {
		return err
	}
	g := &SavedGame{
		ID:      id,
		Moves:   buf.String(),
		Plies:   len(moves),
		SavedAt: time.Now(),
	}
	if err := s.put(prefixGame+id, g); err != nil {
		return fmt.Errorf("save game %s: %w", id, err)
	}
	log.Printf("[Storage] Saved game %s (%d moves)", id, len(moves))
	return nil
}

// LoadGame returns the records of the game saved under id.
func (s *Storage) LoadGame(id string) ([]Record, error) {
	g := &SavedGame{}
	found, err := s.get(prefixGame+id, g)
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("load game %s: %w", id, ErrGameNotFound)
	}
	records, err := g.Records()
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return records, nil
}

// ListGames returns all saved games, most recent first. Moves are not
// included.
func (s *Storage) ListGames() ([]SavedGame, error) {
	var games []SavedGame

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixGame)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var g SavedGame
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &g)
			})
			if err != nil {
				return err
			}
			g.Moves = ""
			games = append(games, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].SavedAt.After(games[j].SavedAt)
	})
	return games, nil
}

// DeleteGame removes the game saved under id.
func (s *Storage) DeleteGame(id string) error {
	key := []byte(prefixGame + id)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return fmt.Errorf("delete game %s: %w", id, ErrGameNotFound)
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// put stores v as JSON under key.
func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes the JSON value under key into v. It reports false, leaving v
// untouched, when the key does not exist.
func (s *Storage) get(key string, v any) (bool, error) {
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})

	return found, err
}

// GetWinRate returns the share of decided games won by White (0-100)
func (s *GameStats) GetWinRate() float64 {
	decided := s.WhiteWins + s.BlackWins
	if decided == 0 {
		return 0
	}
	return float64(s.WhiteWins) / float64(decided) * 100
}
