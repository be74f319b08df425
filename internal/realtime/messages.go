package realtime

import (
	"encoding/json"

	"flowproject-backend-go/internal/core"
)

// Message types exchanged over the board socket.
const (
	TypeFilter = "filter"
	TypeMove   = "move"
	TypeBoard  = "board"
	TypeMoved  = "moved"
	TypeError  = "error"
)

// Inbound is a client → server message.
type Inbound struct {
	Type       string `json:"type"`
	Query      string `json:"query,omitempty"`
	ProjectID  string `json:"projectId,omitempty"`
	FromStatus string `json:"fromStatus,omitempty"`
	ToStatus   string `json:"toStatus,omitempty"`
}

// Outbound is a server → client message.
type Outbound struct {
	Type      string      `json:"type"`
	Board     *core.Board `json:"board,omitempty"`
	ProjectID string      `json:"projectId,omitempty"`
	Written   *bool       `json:"written,omitempty"`
	Code      core.Code   `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`
}

func encode(o Outbound) []byte {
	b, err := json.Marshal(o)
	if err != nil {
		b, _ = json.Marshal(Outbound{Type: TypeError, Code: core.CodeInternal, Message: "failed to encode message"})
	}
	return b
}

func boardMessage(b *core.Board) []byte {
	return encode(Outbound{Type: TypeBoard, Board: b})
}

func movedMessage(projectID string, written bool) []byte {
	return encode(Outbound{Type: TypeMoved, ProjectID: projectID, Written: &written})
}

func errorMessage(code core.Code, msg string) []byte {
	return encode(Outbound{Type: TypeError, Code: code, Message: msg})
}
