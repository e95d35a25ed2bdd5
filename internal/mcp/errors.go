package mcp

import (
	"errors"
	"fmt"
	"strings"

	memerr "github.com/openclaw/memory/internal/errors"
)

// invalidParams reports a malformed tool call. Unlike the domain taxonomy
// below, this is a protocol-level failure and propagates as a real error so
// the MCP SDK rejects the call outright rather than rendering a reply.
func invalidParams(msg string) error {
	return errors.New(msg)
}

// renderError converts a Writer/Indexer/Retriever error into the one-line
// reply the tool surface sends back as its string result: structured
// refusals render as "Rejected: <reason>", everything else as
// "Error: <kind>: <message>".
func renderError(err error) string {
	var me *memerr.MemoryError
	if errors.As(err, &me) {
		if memerr.IsRejection(me) {
			return "Rejected: " + me.Reason
		}
		return fmt.Sprintf("Error: %s: %s", strings.ToLower(string(me.Category)), me.Message)
	}
	return "Error: internal: " + err.Error()
}
