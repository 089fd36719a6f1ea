package server

import (
	"encoding/json"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/game"
)

// MessageType names the kind of a websocket message.
type MessageType string

const (
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeMoveMade   MessageType = "moveMade"
	MessageTypeMoveUndone MessageType = "moveUndone"
	MessageTypeSelection  MessageType = "selection"
	MessageTypeGameEnded  MessageType = "gameEnded"
	MessageTypeError      MessageType = "error"

	// Client requests
	MessageTypeSelect MessageType = "select"
	MessageTypeUndo   MessageType = "undo"
	MessageTypeRedo   MessageType = "redo"
)

// Message is a websocket message.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func newMessage(t MessageType, payload any) Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(err.Error())
		t = MessageTypeError
	}
	return Message{Type: t, Payload: data}
}

// MoveDTO describes a move on the wire.
type MoveDTO struct {
	Kind    string `json:"kind"`
	From    string `json:"from"`
	To      string `json:"to"`
	UCI     string `json:"uci"`
	Promote string `json:"promote,omitempty"`
}

func newMoveDTO(m *board.Move) MoveDTO {
	dto := MoveDTO{
		Kind: m.Kind.String(),
		From: m.From.String(),
		To:   m.To.String(),
		UCI:  m.String(),
	}
	if m.Kind == board.Promotion {
		dto.Promote = m.Promote.String()
	}
	return dto
}

func newMoveDTOs(moves []*board.Move) []MoveDTO {
	out := make([]MoveDTO, len(moves))
	for i, m := range moves {
		out[i] = newMoveDTO(m)
	}
	return out
}

// GameState is the full view of a game.
type GameState struct {
	ID       string    `json:"id"`
	FEN      string    `json:"fen"`
	Current  string    `json:"current"`
	Status   string    `json:"status"`
	Over     bool      `json:"over"`
	Selected string    `json:"selected,omitempty"`
	Targets  []string  `json:"targets"`
	History  []MoveDTO `json:"history"`
	Notation []string  `json:"notation"`
	CanUndo  bool      `json:"canUndo"`
	CanRedo  bool      `json:"canRedo"`
}

func newGameState(id string, s *game.Session) GameState {
	state := GameState{
		ID:       id,
		FEN:      s.Board().ToFEN(s.Current()),
		Current:  s.Current().String(),
		Status:   s.Status().String(),
		Over:     s.Status().Terminal(),
		Targets:  positionNames(s.Targets()),
		History:  newMoveDTOs(s.History()),
		Notation: s.Notation(),
		CanUndo:  len(s.History()) > 0,
		CanRedo:  len(s.RedoHistory()) > 0,
	}
	if pos, ok := s.Selected(); ok {
		state.Selected = pos.String()
	}
	if state.Notation == nil {
		state.Notation = []string{}
	}
	return state
}

func positionNames(ps []board.Position) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return names
}

// Request bodies

type createGameRequest struct {
	FEN       string   `json:"fen"`
	Automated []string `json:"automated"`
}

type selectRequest struct {
	Square    string `json:"square"`
	Promotion string `json:"promotion"`
}

type depthRequest struct {
	Depth int `json:"depth"`
}
