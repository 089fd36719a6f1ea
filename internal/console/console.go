// Package console implements a line oriented text front end for a game
// session.
package console

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/engine"
	"github.com/hailam/chessgui/internal/game"
	"github.com/hailam/chessgui/internal/storage"
)

// Config configures a Console.
type Config struct {
	Store      *storage.Storage // optional
	Automated  []board.Alliance
	Difficulty engine.Difficulty
	AIDepth    int // 0 uses the difficulty depth
	HintDepth  int // 0 uses engine.HintDepth
	Logger     *log.Logger
}

// Console reads commands and drives a game session. It observes the session
// and prints its notifications.
type Console struct {
	cfg     Config
	out     io.Writer
	engine  *engine.Engine
	session *game.Session

	promotion string // piece for the next promotion
	custom    bool   // started from a FEN; saves replay from the standard setup
	started   time.Time
	recorded  bool
	loading   bool
}

// New creates a console on a new game.
func New(cfg Config, out io.Writer) *Console {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	eng := engine.NewEngine()
	eng.SetDifficulty(cfg.Difficulty)
	if cfg.AIDepth <= 0 {
		cfg.AIDepth = eng.Depth()
	}
	if cfg.HintDepth <= 0 {
		cfg.HintDepth = engine.HintDepth
	}

	c := &Console{cfg: cfg, out: out, engine: eng}
	c.reset(c.newSession(board.NewStandard(), board.White))
	return c
}

// Session returns the current session.
func (c *Console) Session() *game.Session { return c.session }

func (c *Console) newSession(b *board.Board, side board.Alliance) *game.Session {
	opts := []game.Option{
		game.WithBoard(b, side),
		game.WithObserver(c),
		game.WithPromotion(c.choosePromotion),
		game.WithEngine(c.engine),
		game.WithLogger(c.cfg.Logger),
	}
	for _, a := range c.cfg.Automated {
		opts = append(opts, game.WithAutomated(a))
	}
	return game.New(opts...)
}

func (c *Console) reset(s *game.Session) {
	c.session = s
	c.promotion = ""
	c.custom = false
	c.started = time.Now()
	c.recorded = false
}

// choosePromotion hands out the piece named by the last promote command
// and then reverts to the default.
func (c *Console) choosePromotion(board.Alliance) string {
	choice := c.promotion
	c.promotion = ""
	return choice
}

// Run reads commands from in until quit or EOF.
func (c *Console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			c.printHelp()
		case "new":
			c.handleNew(args)
		case "select":
			c.handleSelect(args)
		case "move":
			c.handleMove(args)
		case "promote":
			c.handlePromote(args)
		case "undo":
			if !c.session.Undo() {
				c.println("nothing to undo")
			}
		case "redo":
			if !c.session.Redo() {
				c.println("nothing to redo")
			}
		case "ai":
			c.handleAI(args)
		case "side":
			c.handleSide(args)
		case "hint":
			c.handleHint(args)
		case "d":
			c.println(c.session.Board().String())
		case "fen":
			c.println(c.session.Board().ToFEN(c.session.Current()))
		case "history":
			c.printHistory()
		case "save":
			c.handleSave(args)
		case "load":
			c.handleLoad(args)
		case "export":
			c.handleExport(args)
		case "import":
			c.handleImport(args)
		case "games":
			c.handleGames()
		case "delete":
			c.handleDelete(args)
		case "stats":
			c.handleStats()
		case "perft":
			c.handlePerft(args)
		default:
			c.printf("unknown command %q, try help\n", cmd)
		}
	}
	return scanner.Err()
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

func (c *Console) printHelp() {
	c.println(`commands:
  new [fen]              start a new game
  select <sq>            select a piece or a destination
  move <from> <to>       play a move (also e2e4 or Nf3)
  promote <piece>        piece for the next promotion
  undo | redo            step through the history
  ai [depth]             let the engine move for an automated side
  side <color> <human|ai>
  hint [depth]           suggest a move
  d | fen | history      show the game
  save <name> | load <name> | delete <name> | games
  export <path> | import <path>  (bare names use the saves directory)
                         games started from a FEN cannot be saved
  stats | perft <depth> | quit`)
}

// handleNew starts over from the standard position or a FEN.
func (c *Console) handleNew(args []string) {
	b, side := board.NewStandard(), board.White
	if len(args) > 0 {
		var err error
		b, side, err = board.ParseFEN(strings.Join(args, " "))
		if err != nil {
			c.printf("error: %v\n", err)
			return
		}
	}
	c.reset(c.newSession(b, side))
	c.custom = len(args) > 0
	c.println("new game")
	c.autoReply()
}

func (c *Console) handleSelect(args []string) {
	if len(args) != 1 {
		c.println("usage: select <square>")
		return
	}
	pos, err := board.ParsePosition(args[0])
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	before := len(c.session.History())
	c.session.Select(pos)
	if len(c.session.History()) > before {
		c.autoReply()
	}
}

// handleMove plays a move given as two squares, coordinate notation or
// algebraic notation.
func (c *Console) handleMove(args []string) {
	var from, to board.Position
	var err error

	switch {
	case len(args) == 2:
		if from, err = board.ParsePosition(args[0]); err == nil {
			to, err = board.ParsePosition(args[1])
		}
	case len(args) == 1 && isCoordinateMove(args[0]):
		if from, err = board.ParsePosition(args[0][:2]); err == nil {
			to, err = board.ParsePosition(args[0][2:4])
		}
		if err == nil && len(args[0]) == 5 {
			c.promotion = args[0][4:]
		}
	case len(args) == 1:
		var m *board.Move
		if m, err = c.session.Board().ParseSAN(args[0], c.session.Current()); err == nil {
			from, to = m.From, m.To
			if m.Kind == board.Promotion {
				c.promotion = m.Promote.String()
			}
		}
	default:
		c.println("usage: move <from> <to>")
		return
	}
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}

	before := len(c.session.History())
	c.session.ClearSelection()
	c.session.Select(from)
	c.session.Select(to)
	if len(c.session.History()) == before {
		c.printf("illegal move %s%s\n", from, to)
		c.promotion = ""
		return
	}
	c.autoReply()
}

func isCoordinateMove(s string) bool {
	if len(s) != 4 && len(s) != 5 {
		return false
	}
	_, err1 := board.ParsePosition(s[:2])
	_, err2 := board.ParsePosition(s[2:4])
	return err1 == nil && err2 == nil
}

func (c *Console) handlePromote(args []string) {
	if len(args) != 1 {
		c.println("usage: promote <queen|rook|bishop|knight>")
		return
	}
	c.promotion = args[0]
	c.printf("next promotion: %s\n", board.PromotionKind(args[0]))
}

// autoReply lets the engine answer when the side to move is automated.
func (c *Console) autoReply() {
	if c.session.Status().Terminal() || !c.session.Player(c.session.Current()).Automated {
		return
	}
	if _, err := c.session.PlayAutomated(c.cfg.AIDepth); err != nil {
		c.printf("error: %v\n", err)
	}
}

func (c *Console) handleAI(args []string) {
	depth, ok := c.depthArg(args, c.cfg.AIDepth)
	if !ok {
		return
	}
	if _, err := c.session.PlayAutomated(depth); err != nil {
		c.printf("error: %v\n", err)
	}
}

func (c *Console) handleSide(args []string) {
	if len(args) != 2 {
		c.println("usage: side <white|black> <human|ai>")
		return
	}
	a, err := board.ParseAlliance(args[0])
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	var automated bool
	switch strings.ToLower(args[1]) {
	case "human":
	case "ai":
		automated = true
	default:
		c.println("usage: side <white|black> <human|ai>")
		return
	}
	c.session.SetAutomated(a, automated)

	// Later games keep the choice.
	sides := c.cfg.Automated[:0:0]
	for _, s := range c.cfg.Automated {
		if s != a {
			sides = append(sides, s)
		}
	}
	if automated {
		sides = append(sides, a)
	}
	c.cfg.Automated = sides
	c.printf("%s: %s\n", a, strings.ToLower(args[1]))
}

func (c *Console) handleHint(args []string) {
	depth, ok := c.depthArg(args, c.cfg.HintDepth)
	if !ok {
		return
	}
	m, err := c.session.Hint(depth)
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	c.printf("hint: %s (%s)\n", c.session.Board().SAN(m), m)
}

func (c *Console) depthArg(args []string, def int) (int, bool) {
	if len(args) == 0 {
		return def, true
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 1 {
		c.printf("error: bad depth %q\n", args[0])
		return 0, false
	}
	return depth, true
}

func (c *Console) printHistory() {
	notation := c.session.Notation()
	var sb strings.Builder
	for i, san := range notation {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d.", i/2+1)
		}
		sb.WriteByte(' ')
		sb.WriteString(san)
	}
	c.println(sb.String())
}

func (c *Console) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		var ok bool
		if depth, ok = c.depthArg(args, depth); !ok {
			return
		}
	}

	start := time.Now()
	nodes := c.engine.Perft(c.session.Board().Clone(), c.session.Current(), depth)
	elapsed := time.Since(start)

	c.printf("Nodes: %d\n", nodes)
	c.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		c.printf("NPS: %.0f\n", nps)
	}
}

// replay starts a new game from records. The previous game is kept when the
// records are corrupt.
func (c *Console) replay(records []storage.Record) error {
	prev, custom, started, recorded := c.session, c.custom, c.started, c.recorded
	c.reset(c.newSession(board.NewStandard(), board.White))

	c.loading = true
	err := c.session.Replay(storage.MoveRecords(records))
	c.loading = false
	if err != nil {
		c.session, c.custom, c.started, c.recorded = prev, custom, started, recorded
		return err
	}
	c.printf("loaded %d moves\n", len(records))
	if status := c.session.Status(); status.Terminal() {
		c.printf("game over: %s\n", status)
	}
	return nil
}

func (c *Console) handleSave(args []string) {
	if len(args) != 1 {
		c.println("usage: save <name>")
		return
	}
	if c.cfg.Store == nil {
		c.println("error: no game store configured")
		return
	}
	if c.custom {
		c.println(errCustomStart)
		return
	}
	if err := c.cfg.Store.SaveGame(args[0], c.session.History()); err != nil {
		c.printf("error: %v\n", err)
		return
	}
	c.printf("saved %s\n", args[0])
}

func (c *Console) handleLoad(args []string) {
	if len(args) != 1 {
		c.println("usage: load <name>")
		return
	}
	if c.cfg.Store == nil {
		c.println("error: no game store configured")
		return
	}
	records, err := c.cfg.Store.LoadGame(args[0])
	if err == nil {
		err = c.replay(records)
	}
	if err != nil {
		c.printf("error: %v\n", err)
	}
}

func (c *Console) handleExport(args []string) {
	if len(args) != 1 {
		c.println("usage: export <path>")
		return
	}
	if c.custom {
		c.println(errCustomStart)
		return
	}
	path, err := savePath(args[0])
	if err == nil {
		err = storage.SaveFile(path, c.session.History())
	}
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	c.printf("exported %s\n", path)
}

func (c *Console) handleImport(args []string) {
	if len(args) != 1 {
		c.println("usage: import <path>")
		return
	}
	path, err := savePath(args[0])
	var records []storage.Record
	if err == nil {
		records, err = storage.LoadFile(path)
	}
	if err == nil {
		err = c.replay(records)
	}
	if err != nil {
		c.printf("error: %v\n", err)
	}
}

const errCustomStart = "error: games started from a FEN cannot be saved"

// savePath adds the save extension to a user supplied path. A bare name
// resolves to the saves directory.
func savePath(arg string) (string, error) {
	dir := filepath.Dir(arg)
	if dir == "." && !strings.ContainsRune(arg, filepath.Separator) {
		saves, err := storage.GetSavesDir()
		if err != nil {
			return "", err
		}
		dir = saves
	}
	return storage.SavePath(dir, filepath.Base(arg)), nil
}

func (c *Console) handleGames() {
	if c.cfg.Store == nil {
		c.println("error: no game store configured")
		return
	}
	games, err := c.cfg.Store.ListGames()
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	if len(games) == 0 {
		c.println("no saved games")
	}
	for _, g := range games {
		c.printf("%s\t%d moves\t%s\n", g.ID, g.Plies, g.SavedAt.Format(time.DateTime))
	}
}

func (c *Console) handleDelete(args []string) {
	if len(args) != 1 {
		c.println("usage: delete <name>")
		return
	}
	if c.cfg.Store == nil {
		c.println("error: no game store configured")
		return
	}
	if err := c.cfg.Store.DeleteGame(args[0]); err != nil {
		c.printf("error: %v\n", err)
		return
	}
	c.printf("deleted %s\n", args[0])
}

func (c *Console) handleStats() {
	if c.cfg.Store == nil {
		c.println("error: no game store configured")
		return
	}
	stats, err := c.cfg.Store.LoadStats()
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	c.printf("games: %d  white: %d  black: %d  draws: %d  longest: %d plies  white win rate: %.0f%%\n",
		stats.GamesPlayed, stats.WhiteWins, stats.BlackWins, stats.Draws, stats.LongestGame, stats.GetWinRate())
}

// MoveMade prints the move in algebraic notation.
func (c *Console) MoveMade(m *board.Move, history []*board.Move) {
	if c.loading {
		return
	}
	notation := c.session.Notation()
	san := m.String()
	if len(notation) > 0 {
		san = notation[len(notation)-1]
	}
	c.printf("%d. %s %s\n", (len(history)+1)/2, m.Mover().Alliance, san)
}

// MoveUndone prints the reverted move.
func (c *Console) MoveUndone(m *board.Move, history []*board.Move) {
	if c.loading {
		return
	}
	c.printf("undone %s\n", m)
}

// SelectionChanged prints the destinations of a selected piece.
func (c *Console) SelectionChanged(targets []board.Position) {
	if targets == nil {
		return
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.String()
	}
	c.printf("targets: %s\n", strings.Join(names, " "))
}

// GameEnded prints the result and records it once per game.
func (c *Console) GameEnded(status game.Status) {
	if c.loading {
		return
	}
	c.printf("game over: %s\n", status)
	if c.recorded || c.cfg.Store == nil {
		return
	}
	c.recorded = true
	err := c.cfg.Store.RecordResult(storage.GameResult{
		Status:     status,
		Difficulty: c.engine.Difficulty(),
		Plies:      len(c.session.History()),
		Duration:   time.Since(c.started),
	})
	if err != nil {
		c.printf("error: %v\n", err)
	}
}
