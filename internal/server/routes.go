// Package server exposes game sessions over HTTP and websockets.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/game"
	"github.com/hailam/chessgui/internal/storage"
)

// Handler serves the game API.
type Handler struct {
	manager *Manager
	logger  *log.Logger
}

// New returns an app serving the game API. allowOrigins is the CORS origin
// list; empty allows any origin.
func New(m *Manager, allowOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(requestLogger(m.cfg.Logger))

	Register(app, m)
	return app
}

// Register adds the game routes to app.
func Register(app *fiber.App, m *Manager) {
	h := &Handler{manager: m, logger: m.cfg.Logger}

	api := app.Group("/api")
	api.Post("/games", h.CreateGame)
	api.Get("/games/:id", h.GetGame)
	api.Post("/games/:id/select", h.Select)
	api.Post("/games/:id/undo", h.Undo)
	api.Post("/games/:id/redo", h.Redo)
	api.Post("/games/:id/ai", h.PlayAutomated)
	api.Get("/games/:id/hint", h.Hint)
	api.Post("/games/:id/save", h.Save)
	api.Post("/saves/:saveId/load", h.Load)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/ws/games/:id", h.lookupGame, websocket.New(h.Stream))
}

func requestLogger(logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Printf("[HTTP] %s %s %d (%v)", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start))
		return err
	}
}

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// parseBody decodes an optional JSON body.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return json.Unmarshal(c.Body(), v)
}

func (h *Handler) game(c *fiber.Ctx) (*Game, error) {
	g, err := h.manager.GetGame(c.Params("id"))
	if err != nil {
		return nil, errorJSON(c, fiber.StatusNotFound, err)
	}
	return g, nil
}

// lookupGame rejects websocket upgrades for unknown games.
func (h *Handler) lookupGame(c *fiber.Ctx) error {
	g, err := h.manager.GetGame(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	c.Locals("game", g)
	return c.Next()
}

func parseAutomated(names []string) ([]board.Alliance, error) {
	var sides []board.Alliance
	for _, name := range names {
		a, err := board.ParseAlliance(name)
		if err != nil {
			return nil, err
		}
		sides = append(sides, a)
	}
	return sides, nil
}

// CreateGame starts a game from the standard position or a FEN.
func (h *Handler) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if err := parseBody(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	automated, err := parseAutomated(req.Automated)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	b, side := board.NewStandard(), board.White
	if req.FEN != "" {
		if b, side, err = board.ParseFEN(req.FEN); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err)
		}
	}

	g := h.manager.CreateGame(b, side, automated)
	return c.Status(fiber.StatusCreated).JSON(g.State())
}

// GetGame returns the game state.
func (h *Handler) GetGame(c *fiber.Ctx) error {
	g, err := h.game(c)
	if g == nil {
		return err
	}
	return c.JSON(g.State())
}

// Select forwards a tile selection. Illegal selections are not errors: the
// selection is cleared and the state returned.
func (h *Handler) Select(c *fiber.Ctx) error {
	g, err := h.game(c)
	if g == nil {
		return err
	}
	var req selectRequest
	if err := parseBody(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	pos, err := board.ParsePosition(req.Square)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(g.Select(pos, req.Promotion))
}

// Undo reverts the last move.
func (h *Handler) Undo(c *fiber.Ctx) error {
	g, err := h.game(c)
	if g == nil {
		return err
	}
	var ok bool
	state := g.Do(func(s *game.Session) { ok = s.Undo() })
	return c.JSON(fiber.Map{"ok": ok, "state": state})
}

// Redo replays the last undone move.
func (h *Handler) Redo(c *fiber.Ctx) error {
	g, err := h.game(c)
	if g == nil {
		return err
	}
	var ok bool
	state := g.Do(func(s *game.Session) { ok = s.Redo() })
	return c.JSON(fiber.Map{"ok": ok, "state": state})
}

// PlayAutomated lets the engine move for an automated side to move.
func (h *Handler) PlayAutomated(c *fiber.Ctx) error {
	g, err := h.game(c)
	if g == nil {
		return err
	}
	req := depthRequest{Depth: h.manager.cfg.AIDepth}
	if err := parseBody(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if req.Depth <= 0 {
		req.Depth = h.manager.cfg.AIDepth
	}

	var m *board.Move
	var playErr error
	state := g.Do(func(s *game.Session) { m, playErr = s.PlayAutomated(req.Depth) })
	if playErr != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": playErr.Error(),
			"state": state,
		})
	}
	return c.JSON(fiber.Map{"move": newMoveDTO(m), "state": state})
}

// Hint suggests a move for the side to move without playing it.
func (h *Handler) Hint(c *fiber.Ctx) error {
	g, err := h.game(c)
	if g == nil {
		return err
	}
	depth := c.QueryInt("depth", h.manager.cfg.HintDepth)
	if depth <= 0 {
		depth = h.manager.cfg.HintDepth
	}

	var m *board.Move
	var san string
	var hintErr error
	g.Do(func(s *game.Session) {
		if m, hintErr = s.Hint(depth); hintErr == nil {
			san = s.Board().SAN(m)
		}
	})
	if hintErr != nil {
		return errorJSON(c, fiber.StatusConflict, hintErr)
	}
	return c.JSON(fiber.Map{"move": newMoveDTO(m), "san": san})
}

// Save stores the game history under a new save id.
func (h *Handler) Save(c *fiber.Ctx) error {
	g, err := h.game(c)
	if g == nil {
		return err
	}
	saveID, err := h.manager.SaveGame(g)
	switch {
	case errors.Is(err, ErrNoStore):
		return errorJSON(c, fiber.StatusServiceUnavailable, err)
	case errors.Is(err, ErrCustomStart):
		return errorJSON(c, fiber.StatusConflict, err)
	case err != nil:
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"saveId": saveID})
}

// Load starts a new game from a save.
func (h *Handler) Load(c *fiber.Ctx) error {
	var req createGameRequest
	if err := parseBody(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	automated, err := parseAutomated(req.Automated)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	g, err := h.manager.LoadGame(c.Params("saveId"), automated)
	switch {
	case errors.Is(err, ErrNoStore):
		return errorJSON(c, fiber.StatusServiceUnavailable, err)
	case errors.Is(err, storage.ErrGameNotFound):
		return errorJSON(c, fiber.StatusNotFound, err)
	case errors.Is(err, game.ErrCorruptRecord), errors.Is(err, storage.ErrMalformedRecord):
		return errorJSON(c, fiber.StatusUnprocessableEntity, err)
	case err != nil:
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(g.State())
}

// wsConn serializes writes to a websocket connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// Stream sends the game state followed by every session notification.
// Clients may send select, undo and redo messages.
func (h *Handler) Stream(c *websocket.Conn) {
	g, ok := c.Locals("game").(*Game)
	if !ok {
		c.Close()
		return
	}
	conn := &wsConn{conn: c}
	g.register(conn)
	defer g.unregister(conn)

	if err := conn.WriteJSON(newMessage(MessageTypeGameState, g.State())); err != nil {
		return
	}

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.WriteJSON(newMessage(MessageTypeError, err.Error()))
			continue
		}
		if err := h.handleMessage(g, msg); err != nil {
			conn.WriteJSON(newMessage(MessageTypeError, err.Error()))
		}
	}
}

func (h *Handler) handleMessage(g *Game, msg Message) error {
	switch msg.Type {
	case MessageTypeSelect:
		var req selectRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return err
		}
		pos, err := board.ParsePosition(req.Square)
		if err != nil {
			return err
		}
		g.Select(pos, req.Promotion)
	case MessageTypeUndo:
		g.Do(func(s *game.Session) { s.Undo() })
	case MessageTypeRedo:
		g.Do(func(s *game.Session) { s.Redo() })
	default:
		return errors.New("unknown message type: " + string(msg.Type))
	}
	return nil
}
