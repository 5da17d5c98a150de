package mcplog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// shortStringMax is the longest string argument logged verbatim. Doclet
// dumps and declaration sources are logged by length only.
const shortStringMax = 64

// Entry is one JSONL line.
type Entry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	TokensEst     int            `json:"tokens_est"`
	IsError       bool           `json:"is_error"`
	Error         *string        `json:"error"`

	// Set by the generate and inspect tools.
	Strategy string `json:"strategy,omitempty"`
	Module   string `json:"module,omitempty"`
	Doclets  int    `json:"doclets,omitempty"`
	// CacheHit is nil when the call did not go through the compile cache.
	CacheHit *bool `json:"cache_hit,omitempty"`

	// Set by the check tool.
	Symbols      int `json:"symbols,omitempty"`
	SyntaxErrors int `json:"syntax_errors,omitempty"`
}

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }

// Call collects what a handler learned while serving one tool call. All
// methods are no-ops on a nil Call, so handlers record unconditionally.
type Call struct {
	start time.Time
	entry Entry
}

type callKey struct{}

// Start begins recording a call to tool and returns a context carrying it.
func Start(ctx context.Context, tool string, args map[string]any) (context.Context, *Call) {
	c := &Call{
		start: Now(),
		entry: Entry{Tool: tool, Params: SanitizeParams(args)},
	}
	return context.WithValue(ctx, callKey{}, c), c
}

// FromContext returns the call being recorded, or nil.
func FromContext(ctx context.Context) *Call {
	c, _ := ctx.Value(callKey{}).(*Call)
	return c
}

// Compiled records a generate or inspect run over doclets.
func (c *Call) Compiled(strategy, module string, doclets int) {
	if c == nil {
		return
	}
	c.entry.Strategy = strategy
	c.entry.Module = module
	c.entry.Doclets = doclets
}

// CacheLookup records whether the compile cache already held the output.
func (c *Call) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	c.entry.CacheHit = &hit
}

// Checked records a declaration check.
func (c *Call) Checked(module string, symbols, syntaxErrors int) {
	if c == nil {
		return
	}
	c.entry.Module = module
	c.entry.Symbols = symbols
	c.entry.SyntaxErrors = syntaxErrors
}

// Finish completes the entry from the handler's result.
func (c *Call) Finish(result *mcp.CallToolResult, err error) Entry {
	e := c.entry
	e.Ts = c.start.UTC().Format(time.RFC3339)
	e.DurationMs = Now().Sub(c.start).Milliseconds()
	e.ResponseBytes = ResponseBytes(result)
	e.TokensEst = e.ResponseBytes / 4
	e.IsError = result != nil && result.IsError
	if err != nil {
		msg := err.Error()
		e.Error = &msg
	}
	return e
}

// SanitizeParams returns a copy of args safe for logging. A string longer
// than shortStringMax bytes is replaced by a "<key>_len" entry.
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > shortStringMax {
			out[k+"_len"] = len(s)
		} else {
			out[k] = v
		}
	}
	return out
}

// ResponseBytes returns the serialized length of a result's content, or 0.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}
