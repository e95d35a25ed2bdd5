package mcp

import (
	"encoding/json"
	"fmt"
)

// flexStrings unmarshals a JSON field that may arrive as either a single
// string or an array of strings, per §6's "fields are strings or string
// arrays" note on session_end's arguments. It always marshals back out as
// an array.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*f = nil
		} else {
			*f = flexStrings{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*f = many
	return nil
}

// PrimerInput takes no arguments.
type PrimerInput struct{}

// PrimerOutput carries the rendered PRIMER.md-shaped Markdown blob.
type PrimerOutput struct {
	Primer string `json:"primer" jsonschema:"Markdown primer: instructions, identity, project, preferences, recent context, active tasks"`
}

// SearchInput is the search verb's arguments.
type SearchInput struct {
	Query     string `json:"query" jsonschema:"the search query"`
	Scope     string `json:"scope,omitempty" jsonschema:"optional scope restriction: global, project, journal, agent, or user"`
	MaxTokens int    `json:"max_tokens,omitempty" jsonschema:"token budget for returned results, default 1500"`
}

// SearchOutput is the search verb's formatted reply.
type SearchOutput struct {
	Text string `json:"text" jsonschema:"formatted result blocks with salience headers and a token-budget trailer"`
}

// LogInput is the log verb's arguments.
type LogInput struct {
	Content string `json:"content" jsonschema:"the note to persist"`
	Type    string `json:"type,omitempty" jsonschema:"optional type hint: preference, instruction, entity, decision, pattern, or journal"`
}

// LogOutput is the log verb's one-line reply.
type LogOutput struct {
	Result string `json:"result"`
}

// SessionEndInput is the session_end verb's arguments.
type SessionEndInput struct {
	Request   string      `json:"request,omitempty"`
	Learned   flexStrings `json:"learned,omitempty"`
	Completed flexStrings `json:"completed,omitempty"`
	NextSteps flexStrings `json:"next_steps,omitempty"`
}

// SessionEndOutput is the session_end verb's one-line reply.
type SessionEndOutput struct {
	Result string `json:"result"`
}

// TaskStatus is a task's lifecycle state as reported by update_tasks.
type TaskStatus string

const (
	TaskDone       TaskStatus = "done"
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
)

// TaskItem is one entry in update_tasks' task list.
type TaskItem struct {
	Title        string     `json:"title"`
	Status       TaskStatus `json:"status"`
	Progress     string     `json:"progress,omitempty"`
	NextStep     string     `json:"next_step,omitempty"`
	RelatedFiles []string   `json:"related_files,omitempty"`
}

// UpdateTasksInput wraps the verb's JSON array of tasks in a single field,
// since the tool surface's typed contract requires a JSON object schema.
type UpdateTasksInput struct {
	Tasks []TaskItem `json:"tasks"`
}

// UpdateTasksOutput is the update_tasks verb's one-line reply.
type UpdateTasksOutput struct {
	Result string `json:"result"`
}

// ReadInput is the read verb's arguments.
type ReadInput struct {
	Path string `json:"path" jsonschema:"scope-relative path, e.g. user/preferences.md"`
}

// ReadOutput is the read verb's reply: file contents verbatim, or a
// rendered error string.
type ReadOutput struct {
	Content string `json:"content"`
}
