package formset

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

// Live actions understood by the handler
const (
	ActionAdd      = "add"
	ActionDelete   = "delete"
	ActionUndelete = "undelete"
	ActionToggle   = "toggle"
	ActionSet      = "set"
)

// message represents an action message from the client
type message struct {
	Action string                 `json:"action"` // Action name, may include a formset prefix (e.g., "items.add")
	Data   map[string]interface{} `json:"data"`
}

// ActionData wraps action data with utilities for binding and validation
type ActionData struct {
	raw   map[string]interface{}
	bytes []byte // Cached JSON for efficient binding
}

func newActionData(data map[string]interface{}) *ActionData {
	return &ActionData{raw: data}
}

// Bind unmarshals the data into a struct
func (a *ActionData) Bind(v interface{}) error {
	if a.bytes == nil {
		var err error
		a.bytes, err = json.Marshal(a.raw)
		if err != nil {
			return fmt.Errorf("failed to marshal data: %w", err)
		}
	}

	return json.Unmarshal(a.bytes, v)
}

// BindAndValidate binds data to struct and validates it in one step
func (a *ActionData) BindAndValidate(v interface{}, validate *validator.Validate) error {
	if err := a.Bind(v); err != nil {
		return err
	}

	if err := validate.Struct(v); err != nil {
		return validationToMultiError(err)
	}

	return nil
}

// GetString extracts a string value
func (a *ActionData) GetString(key string) string {
	if v, ok := a.raw[key].(string); ok {
		return v
	}
	return ""
}

// Has checks if a key exists
func (a *ActionData) Has(key string) bool {
	_, exists := a.raw[key]
	return exists
}

// targetData selects a live form by its prefix or its position
type targetData struct {
	Form  string `json:"form" validate:"required_without=Index"`
	Index *int   `json:"index" validate:"omitempty,min=0"`
}

type toggleData struct {
	targetData
	Checked bool `json:"checked"`
}

type setData struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// parseAction splits "items.add" into ("items", "add").
// A bare "add" returns an empty formset prefix.
func parseAction(action string) (prefix string, op string) {
	if i := strings.LastIndex(action, "."); i >= 0 {
		return action[:i], action[i+1:]
	}
	return "", action
}

func decodeMessage(data []byte) (message, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return message{}, fmt.Errorf("failed to parse action: %w", err)
	}
	if msg.Data == nil {
		msg.Data = make(map[string]interface{})
	}
	return msg, nil
}

// parseActionFromHTTP parses an action message from an HTTP POST body
func parseActionFromHTTP(r *http.Request) (message, error) {
	var msg message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		return message{}, fmt.Errorf("failed to parse action: %w", err)
	}
	if msg.Data == nil {
		msg.Data = make(map[string]interface{})
	}
	return msg, nil
}

// writeUpdateWebSocket writes an update to a WebSocket connection
func writeUpdateWebSocket(conn *websocket.Conn, update []byte) error {
	return conn.WriteMessage(websocket.TextMessage, update)
}
