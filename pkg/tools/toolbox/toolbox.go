// Package toolbox provides the tool registry and dispatcher used by the
// assistant session. Tool failures never escape Call: handler errors and
// panics are converted into error-shaped ToolResults so the orchestration
// loop stays alive.
package toolbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/germanamz/easel/pkg/chats/content"
)

// ToolBox is an ordered collection of tools. Registration order is preserved
// so the declarations attached to every model request are stable.
type ToolBox struct {
	tools map[string]Tool
	order []string
}

// New creates a new ToolBox ready for use.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds one or more tools to the ToolBox. Re-registering a name
// replaces the tool but keeps its original position.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		if _, exists := tb.tools[t.Name]; !exists {
			tb.order = append(tb.order, t.Name)
		}
		tb.tools[t.Name] = t
	}
}

// Get returns a tool by name and a boolean indicating whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Tools returns all registered tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		result = append(result, tb.tools[name])
	}
	return result
}

// Call executes a tool call and returns a ToolResult. Unknown tools, handler
// errors, and handler panics all produce a result with IsError set, never an
// escaping failure.
func (tb *ToolBox) Call(ctx context.Context, tc content.ToolCall) (result content.ToolResult) {
	t, ok := tb.tools[tc.Name]
	if !ok {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Content:    fmt.Sprintf("tool not found: %s", tc.Name),
			IsError:    true,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = content.ToolResult{
				ToolCallID: tc.ID,
				Content:    fmt.Sprintf("%s: %v", tc.Name, r),
				IsError:    true,
			}
		}
	}()

	out, err := t.Handler(ctx, json.RawMessage(tc.Arguments))
	if err != nil {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Content:    err.Error(),
			IsError:    true,
		}
	}

	return content.ToolResult{
		ToolCallID: tc.ID,
		Content:    out,
	}
}
