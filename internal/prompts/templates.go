package prompts

import (
	"fmt"
)

// SystemPrompt is sent as the system message of every completion call.
const SystemPrompt = "You are a helpful assistant designed to output JSON."

// CommandPromptTemplate receives the raw user command through a single %s.
// The command is interpolated without any escaping, so a crafted command can
// try to override the rules below (prompt injection).
const CommandPromptTemplate = `
You are an expert logistics command interpreter for an autonomous mobile robot.
Your task is to parse a user's natural language command into a structured JSON object.

The required JSON fields are: "action", "quantity", "item_id", "source", "destination", "valid_command".

Possible actions are: "MOVE", "GET", "DELIVER", "CHARGE", "UNKNOWN".

Rules:
1.  If the command is clear, extract the relevant information.
2.  ` + "`quantity`" + ` should be an integer. If not specified, default to null.
3.  If the command is ambiguous, nonsensical, or not a logistics command, set "action" to "UNKNOWN" and "valid_command" to false.
4.  If a field is not mentioned in the command, its value in the JSON should be null.
5.  ALWAYS respond with only a valid JSON object and nothing else.

User command: "%s"

JSON response:
`

func BuildCommandPrompt(command string) string {
	return fmt.Sprintf(CommandPromptTemplate, command)
}
