package websocket

import "encoding/json"

// Message is one inbound client event. Payloads are flat: the type tag
// selects the handler and the handler validates the fields it needs.
//
// Cell stays raw so a client sending a string or fraction there fails
// cell validation instead of taking the whole envelope down with it.
type Message struct {
	Type      string          `json:"type"`
	Code      string          `json:"code,omitempty"`
	Name      string          `json:"name,omitempty"`
	Spectator bool            `json:"spectator,omitempty"`
	Cell      json.RawMessage `json:"cell,omitempty"`
	Target    string          `json:"target,omitempty"`
}

// CellIndex parses the cell field. The second return is false when the
// field is absent or anything other than a JSON integer.
func (that *Message) CellIndex() (int, bool) {
	// a literal null would unmarshal into an int as a silent no-op
	if len(that.Cell) == 0 || string(that.Cell) == "null" {
		return 0, false
	}

	var cell int
	if err := json.Unmarshal(that.Cell, &cell); err != nil {
		return 0, false
	}

	return cell, true
}

// Inbound event types.
const (
	actionJoin           = "join"
	actionMove           = "move"
	actionResign         = "resign"
	actionRematch        = "rematch"
	actionDeclineRematch = "decline_rematch"
	actionNewMatch       = "new_match"
	actionCheer          = "cheer"
)
