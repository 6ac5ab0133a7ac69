// Package dispatch implements mcp.ToolExecutor: it maps a tools/call
// invocation onto the registered recipe's source justfile and runs it
// through internal/exec, translating the result into MCP content blocks.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/justmcp/justmcp/internal/errs"
	"github.com/justmcp/justmcp/internal/exec"
	"github.com/justmcp/justmcp/internal/mcp"
	"github.com/justmcp/justmcp/internal/registry"
)

// Dispatcher executes tools/call requests against recipes published in a
// Registry.
type Dispatcher struct {
	reg    *registry.Registry
	runner *exec.Runner
}

// New creates a Dispatcher.
func New(reg *registry.Registry, runner *exec.Runner) *Dispatcher {
	return &Dispatcher{reg: reg, runner: runner}
}

// Execute implements mcp.ToolExecutor.
func (d *Dispatcher) Execute(ctx context.Context, toolID string, arguments json.RawMessage) (*mcp.ToolsCallResult, error) {
	desc, err := d.reg.Get(toolID)
	if err != nil {
		return nil, err
	}

	if desc.RequiresConfirmation {
		if !confirmed(arguments) {
			return mcp.ErrorResult(fmt.Sprintf("%s requires confirm=true", toolID)), nil
		}
	}

	args, err := positionalArgs(desc, arguments)
	if err != nil {
		return mcp.ErrorResult(err.Error()), nil
	}

	result, err := d.runner.Run(ctx, desc.SourcePath, desc.RecipeName, args)
	if err != nil {
		if tcErr, ok := err.(*errs.ToolCallError); ok {
			return mcp.ErrorResult(tcErr.Error()), nil
		}
		return nil, err
	}

	text := result.Stdout
	if result.Stderr != "" {
		text = fmt.Sprintf("%s\n--- stderr ---\n%s", result.Stdout, result.Stderr)
	}
	return &mcp.ToolsCallResult{Content: []mcp.ContentBlock{mcp.TextContent(text)}}, nil
}

// confirmed reports whether arguments carries a truthy "confirm" field.
func confirmed(arguments json.RawMessage) bool {
	if len(arguments) == 0 {
		return false
	}
	var parsed struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.Unmarshal(arguments, &parsed); err != nil {
		return false
	}
	return parsed.Confirm
}

// positionalArgs maps the JSON object of named arguments onto the recipe's
// declared parameter order, so `just <recipe> <arg1> <arg2> ...` receives
// them positionally. An omitted parameter with a default has its default
// substituted in place rather than dropped, so a later supplied parameter
// never shifts into an earlier parameter's slot.
func positionalArgs(desc registry.Descriptor, arguments json.RawMessage) ([]string, error) {
	if len(desc.Parameters) == 0 {
		return nil, nil
	}

	named := map[string]string{}
	provided := map[string]bool{}
	if len(arguments) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(arguments, &raw); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		for k, v := range raw {
			named[k] = fmt.Sprintf("%v", v)
			provided[k] = true
		}
	}

	args := make([]string, 0, len(desc.Parameters))
	for _, p := range desc.Parameters {
		if provided[p.Name] {
			args = append(args, named[p.Name])
			continue
		}
		if p.Variadic {
			continue
		}
		if p.HasDefault {
			args = append(args, p.Default)
			continue
		}
		return nil, fmt.Errorf("missing required parameter %q", p.Name)
	}
	return args, nil
}
