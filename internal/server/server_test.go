package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/game"
	"github.com/hailam/chessgui/internal/storage"
)

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func newTestApp(t *testing.T, store *storage.Storage) (*fiber.App, *Manager) {
	t.Helper()
	m := NewManager(Config{
		Store:  store,
		Logger: log.New(io.Discard, "", 0),
	})
	return New(m, ""), m
}

// do sends a request and decodes the JSON response into out, if non-nil.
func do(t *testing.T, app *fiber.App, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func createGame(t *testing.T, app *fiber.App, req createGameRequest) GameState {
	t.Helper()
	var state GameState
	if code := do(t, app, http.MethodPost, "/api/games", req, &state); code != fiber.StatusCreated {
		t.Fatalf("create game: status %d", code)
	}
	return state
}

func selectSquare(t *testing.T, app *fiber.App, id, square string) GameState {
	t.Helper()
	var state GameState
	code := do(t, app, http.MethodPost, "/api/games/"+id+"/select", selectRequest{Square: square}, &state)
	if code != fiber.StatusOK {
		t.Fatalf("select %s: status %d", square, code)
	}
	return state
}

func TestCreateAndPlay(t *testing.T) {
	app, m := newTestApp(t, nil)

	state := createGame(t, app, createGameRequest{})
	if state.FEN != board.StartFEN || state.Current != "White" || state.Over {
		t.Fatalf("new game state = %+v", state)
	}
	if m.Count() != 1 {
		t.Errorf("manager has %d games", m.Count())
	}

	state = selectSquare(t, app, state.ID, "e2")
	if state.Selected != "e2" {
		t.Errorf("selected = %q", state.Selected)
	}
	if diff := cmp.Diff([]string{"e3", "e4"}, state.Targets, sortStrings); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}

	state = selectSquare(t, app, state.ID, "e4")
	if state.Current != "Black" || state.Selected != "" {
		t.Errorf("state after e4 = %+v", state)
	}
	if diff := cmp.Diff([]string{"e4"}, state.Notation); diff != "" {
		t.Errorf("notation mismatch (-want +got):\n%s", diff)
	}

	var got GameState
	if code := do(t, app, http.MethodGet, "/api/games/"+state.ID, nil, &got); code != fiber.StatusOK {
		t.Fatalf("get game: status %d", code)
	}
	if diff := cmp.Diff(state, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestIllegalSelectionIsNotAnError(t *testing.T) {
	app, _ := newTestApp(t, nil)
	id := createGame(t, app, createGameRequest{}).ID

	state := selectSquare(t, app, id, "e7")
	if state.Selected != "" || len(state.History) != 0 {
		t.Errorf("state = %+v", state)
	}

	code := do(t, app, http.MethodPost, "/api/games/"+id+"/select", selectRequest{Square: "k9"}, nil)
	if code != fiber.StatusBadRequest {
		t.Errorf("bad square: status %d, want 400", code)
	}
}

func TestUnknownGame(t *testing.T) {
	app, _ := newTestApp(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/games/nope"},
		{http.MethodPost, "/api/games/nope/select"},
		{http.MethodPost, "/api/games/nope/undo"},
		{http.MethodPost, "/api/games/nope/ai"},
		{http.MethodGet, "/api/games/nope/hint"},
	} {
		var body map[string]string
		if code := do(t, app, tc.method, tc.path, nil, &body); code != fiber.StatusNotFound {
			t.Errorf("%s %s: status %d, want 404", tc.method, tc.path, code)
		}
		if body["error"] != ErrGameNotFound.Error() {
			t.Errorf("%s %s: error = %q", tc.method, tc.path, body["error"])
		}
	}
}

func TestCreateGameValidation(t *testing.T) {
	app, _ := newTestApp(t, nil)

	tests := []createGameRequest{
		{FEN: "not a fen"},
		{Automated: []string{"green"}},
	}
	for _, req := range tests {
		if code := do(t, app, http.MethodPost, "/api/games", req, nil); code != fiber.StatusBadRequest {
			t.Errorf("create %+v: status %d, want 400", req, code)
		}
	}
}

type historyResponse struct {
	OK    bool      `json:"ok"`
	State GameState `json:"state"`
}

func TestUndoRedo(t *testing.T) {
	app, _ := newTestApp(t, nil)
	id := createGame(t, app, createGameRequest{}).ID
	selectSquare(t, app, id, "d2")
	selectSquare(t, app, id, "d4")

	var resp historyResponse
	do(t, app, http.MethodPost, "/api/games/"+id+"/undo", nil, &resp)
	if !resp.OK || resp.State.FEN != board.StartFEN || !resp.State.CanRedo {
		t.Errorf("undo = %+v", resp)
	}

	do(t, app, http.MethodPost, "/api/games/"+id+"/undo", nil, &resp)
	if resp.OK {
		t.Error("undo on an empty history succeeded")
	}

	do(t, app, http.MethodPost, "/api/games/"+id+"/redo", nil, &resp)
	if !resp.OK || len(resp.State.History) != 1 || resp.State.History[0].UCI != "d2d4" {
		t.Errorf("redo = %+v", resp)
	}
}

type aiResponse struct {
	Move  MoveDTO   `json:"move"`
	Error string    `json:"error"`
	State GameState `json:"state"`
}

func TestPlayAutomated(t *testing.T) {
	app, _ := newTestApp(t, nil)
	id := createGame(t, app, createGameRequest{
		FEN:       "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
		Automated: []string{"white"},
	}).ID

	var resp aiResponse
	if code := do(t, app, http.MethodPost, "/api/games/"+id+"/ai", depthRequest{Depth: 1}, &resp); code != fiber.StatusOK {
		t.Fatalf("ai: status %d (%s)", code, resp.Error)
	}
	if resp.Move.UCI != "a1a8" || resp.Move.Kind != "Move" {
		t.Errorf("ai move = %+v", resp.Move)
	}
	if !resp.State.Over || resp.State.Status != "Black checkmated" {
		t.Errorf("state = %+v", resp.State)
	}

	resp = aiResponse{}
	if code := do(t, app, http.MethodPost, "/api/games/"+id+"/ai", nil, &resp); code != fiber.StatusConflict {
		t.Errorf("ai after mate: status %d, want 409", code)
	}
	if resp.Error == "" {
		t.Error("missing error message")
	}
}

func TestPlayAutomatedHumanTurn(t *testing.T) {
	app, _ := newTestApp(t, nil)
	id := createGame(t, app, createGameRequest{Automated: []string{"black"}}).ID

	if code := do(t, app, http.MethodPost, "/api/games/"+id+"/ai", nil, nil); code != fiber.StatusConflict {
		t.Errorf("ai on a human turn: status %d, want 409", code)
	}
}

func TestHint(t *testing.T) {
	app, _ := newTestApp(t, nil)
	state := createGame(t, app, createGameRequest{FEN: "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"})

	var resp struct {
		Move MoveDTO `json:"move"`
		SAN  string  `json:"san"`
	}
	if code := do(t, app, http.MethodGet, "/api/games/"+state.ID+"/hint?depth=1", nil, &resp); code != fiber.StatusOK {
		t.Fatalf("hint: status %d", code)
	}
	if resp.Move.UCI != "a1a8" || resp.SAN != "Ra8#" {
		t.Errorf("hint = %+v", resp)
	}

	var after GameState
	do(t, app, http.MethodGet, "/api/games/"+state.ID, nil, &after)
	if after.FEN != state.FEN {
		t.Errorf("hint changed the game: %s", after.FEN)
	}
}

func TestSaveAndLoad(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	app, _ := newTestApp(t, store)

	id := createGame(t, app, createGameRequest{}).ID
	for _, sq := range []string{"e2", "e4", "c7", "c5", "g1", "f3"} {
		selectSquare(t, app, id, sq)
	}

	var saved struct {
		SaveID string `json:"saveId"`
	}
	if code := do(t, app, http.MethodPost, "/api/games/"+id+"/save", nil, &saved); code != fiber.StatusCreated {
		t.Fatalf("save: status %d", code)
	}
	if saved.SaveID == "" {
		t.Fatal("empty save id")
	}

	var loaded GameState
	if code := do(t, app, http.MethodPost, "/api/saves/"+saved.SaveID+"/load", nil, &loaded); code != fiber.StatusCreated {
		t.Fatalf("load: status %d", code)
	}
	if loaded.ID == id {
		t.Error("load reused the original game id")
	}
	if diff := cmp.Diff([]string{"e4", "c5", "Nf3"}, loaded.Notation); diff != "" {
		t.Errorf("notation mismatch (-want +got):\n%s", diff)
	}

	if code := do(t, app, http.MethodPost, "/api/saves/missing/load", nil, nil); code != fiber.StatusNotFound {
		t.Errorf("load missing: status %d, want 404", code)
	}
}

func TestSaveCustomStart(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	app, _ := newTestApp(t, store)

	id := createGame(t, app, createGameRequest{FEN: "4k3/8/8/8/8/8/8/R3K3 w - - 0 1"}).ID
	if code := do(t, app, http.MethodPost, "/api/games/"+id+"/save", nil, nil); code != fiber.StatusConflict {
		t.Errorf("save custom start: status %d, want 409", code)
	}

	id = createGame(t, app, createGameRequest{FEN: board.StartFEN}).ID
	if code := do(t, app, http.MethodPost, "/api/games/"+id+"/save", nil, nil); code != fiber.StatusCreated {
		t.Errorf("save standard FEN: status %d, want 201", code)
	}
}

func TestSaveWithoutStore(t *testing.T) {
	app, _ := newTestApp(t, nil)
	id := createGame(t, app, createGameRequest{}).ID

	if code := do(t, app, http.MethodPost, "/api/games/"+id+"/save", nil, nil); code != fiber.StatusServiceUnavailable {
		t.Errorf("save: status %d, want 503", code)
	}
	if code := do(t, app, http.MethodPost, "/api/saves/x/load", nil, nil); code != fiber.StatusServiceUnavailable {
		t.Errorf("load: status %d, want 503", code)
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	app, _ := newTestApp(t, nil)
	id := createGame(t, app, createGameRequest{}).ID

	if code := do(t, app, http.MethodGet, "/ws/games/"+id, nil, nil); code != fiber.StatusUpgradeRequired {
		t.Errorf("status %d, want 426", code)
	}
}

// fakeSink records broadcast messages.
type fakeSink struct {
	messages []Message
	fail     bool
}

func (f *fakeSink) WriteJSON(v any) error {
	if f.fail {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, v.(Message))
	return nil
}

func (f *fakeSink) types() []MessageType {
	var out []MessageType
	for _, m := range f.messages {
		out = append(out, m.Type)
	}
	return out
}

func TestBroadcast(t *testing.T) {
	m := NewManager(Config{Logger: log.New(io.Discard, "", 0)})
	b, side, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	g := m.CreateGame(b, side, nil)

	sink, broken := &fakeSink{}, &fakeSink{fail: true}
	g.register(sink)
	g.register(broken)

	g.Select(board.Pos(7, 0), "")
	g.Select(board.Pos(0, 0), "")

	want := []MessageType{
		MessageTypeSelection,
		MessageTypeSelection,
		MessageTypeMoveMade,
		MessageTypeGameEnded,
	}
	if diff := cmp.Diff(want, sink.types()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	var ended struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(sink.messages[3].Payload, &ended); err != nil {
		t.Fatal(err)
	}
	if ended.Status != "Black checkmated" {
		t.Errorf("ended status = %q", ended.Status)
	}

	g.unregister(sink)
	g.Do(func(s *game.Session) { s.Undo() })
	if n := len(sink.messages); n != 4 {
		t.Errorf("unregistered sink received %d messages", n)
	}
}

func TestHandleMessage(t *testing.T) {
	m := NewManager(Config{Logger: log.New(io.Discard, "", 0)})
	g := m.CreateGame(board.NewStandard(), board.White, nil)
	h := &Handler{manager: m, logger: m.cfg.Logger}

	msgs := []Message{
		newMessage(MessageTypeSelect, selectRequest{Square: "g1"}),
		newMessage(MessageTypeSelect, selectRequest{Square: "f3"}),
		{Type: MessageTypeUndo},
		{Type: MessageTypeRedo},
	}
	for _, msg := range msgs {
		if err := h.handleMessage(g, msg); err != nil {
			t.Fatalf("handleMessage(%s): %v", msg.Type, err)
		}
	}
	if diff := cmp.Diff([]string{"Nf3"}, g.State().Notation); diff != "" {
		t.Errorf("notation mismatch (-want +got):\n%s", diff)
	}

	if err := h.handleMessage(g, Message{Type: "resign"}); err == nil {
		t.Error("expected error for unknown message type")
	}
	if err := h.handleMessage(g, newMessage(MessageTypeSelect, selectRequest{Square: "z0"})); err == nil {
		t.Error("expected error for a bad square")
	}
}
