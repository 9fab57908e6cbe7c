package models

import "time"

// Request from HTTP clients and NATS publishers
type CommandRequest struct {
	Command string `json:"command"`
}

// Validated model output returned to the caller
type ParsedCommand struct {
	Action       string  `json:"action"`
	Quantity     *int    `json:"quantity"`
	ItemID       *string `json:"item_id"`
	Source       *string `json:"source"`
	Destination  *string `json:"destination"`
	ValidCommand bool    `json:"valid_command"`
}

type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// HistoryEntry is one successfully parsed command kept in the command history
type HistoryEntry struct {
	Command  string        `json:"command"`
	Result   ParsedCommand `json:"result"`
	ParsedAt time.Time     `json:"parsed_at"`
}

// Robot actions
const (
	ActionMove    = "MOVE"
	ActionGet     = "GET"
	ActionDeliver = "DELIVER"
	ActionCharge  = "CHARGE"
	ActionUnknown = "UNKNOWN"
)

// Actions lists every action the robot understands, in prompt order.
var Actions = []string{ActionMove, ActionGet, ActionDeliver, ActionCharge, ActionUnknown}

func IsKnownAction(action string) bool {
	for _, a := range Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Error codes
const (
	ErrorInvalidInput        = "INVALID_INPUT"
	ErrorUpstreamCallFailed  = "UPSTREAM_CALL_FAILED"
	ErrorBadUpstreamResponse = "BAD_UPSTREAM_RESPONSE"
	ErrorSchemaValidation    = "SCHEMA_VALIDATION_FAILED"
)
