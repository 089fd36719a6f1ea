package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/game"
)

// SaveExt is the extension of saved game files.
const SaveExt = ".sav"

// SavePath returns the path of the save named name inside dir.
func SavePath(dir, name string) string {
	if !strings.HasSuffix(name, SaveExt) {
		name += SaveExt
	}
	return filepath.Join(dir, name)
}

// SaveFile writes moves to path. The file is written under a temporary name
// in the same directory and renamed into place, so an existing save is never
// left half written.
func SaveFile(path string, moves []*board.Move) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "temp*"+SaveExt)
	if err != nil {
		return fmt.Errorf("create save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeMoves(tmp, moves); err != nil {
		tmp.Close()
		return fmt.Errorf("write save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename save: %w", err)
	}
	return nil
}

// LoadFile reads the records saved at path.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open save: %w", err)
	}
	defer f.Close()

	records, err := DecodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// MoveRecords adapts records for game.Session.Replay.
func MoveRecords(records []Record) []game.MoveRecord {
	out := make([]game.MoveRecord, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
