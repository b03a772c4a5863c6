package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/junyeong-ai/mcp-atlassian/internal/atlassian"
	"github.com/junyeong-ai/mcp-atlassian/internal/config"
	"github.com/junyeong-ai/mcp-atlassian/internal/mcp"
	"github.com/junyeong-ai/mcp-atlassian/internal/tools/confluence"
	"github.com/junyeong-ai/mcp-atlassian/internal/tools/jira"
)

// Handler executes one tool call: a single backend operation plus request
// shaping. Implementations live in the jira and confluence packages.
type Handler interface {
	Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error)
}

// readOnlyTools is the explicit allow-list of tools whose results go
// through the response optimizer. Mutating tools already return minimal
// responses. Classification is deliberately not inferred from tool names.
var readOnlyTools = map[string]struct{}{
	"jira_get_issue":               {},
	"jira_search":                  {},
	"jira_get_transitions":         {},
	"confluence_search":            {},
	"confluence_get_page":          {},
	"confluence_get_page_children": {},
	"confluence_get_comments":      {},
}

// Registry owns the static tool table and dispatches calls by name.
type Registry struct {
	tools     map[string]Handler
	cfg       *config.Config
	optimizer *Optimizer
	logger    *slog.Logger
}

// NewRegistry registers the full tool set against the given backend.
func NewRegistry(cfg *config.Config, backend atlassian.Backend, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	tools := map[string]Handler{
		// Jira
		"jira_get_issue":        jira.GetIssueHandler{Backend: backend},
		"jira_search":           jira.SearchHandler{Backend: backend},
		"jira_create_issue":     jira.CreateIssueHandler{Backend: backend},
		"jira_update_issue":     jira.UpdateIssueHandler{Backend: backend},
		"jira_add_comment":      jira.AddCommentHandler{Backend: backend},
		"jira_update_comment":   jira.UpdateCommentHandler{Backend: backend},
		"jira_transition_issue": jira.TransitionIssueHandler{Backend: backend},
		"jira_get_transitions":  jira.GetTransitionsHandler{Backend: backend},

		// Confluence
		"confluence_search":            confluence.SearchHandler{Backend: backend},
		"confluence_get_page":          confluence.GetPageHandler{Backend: backend},
		"confluence_get_page_children": confluence.GetPageChildrenHandler{Backend: backend},
		"confluence_get_comments":      confluence.GetCommentsHandler{Backend: backend},
		"confluence_create_page":       confluence.CreatePageHandler{Backend: backend},
		"confluence_update_page":       confluence.UpdatePageHandler{Backend: backend},
	}

	return &Registry{
		tools:     tools,
		cfg:       cfg,
		optimizer: OptimizerFromConfig(cfg),
		logger:    logger.With("component", "tools"),
	}
}

// ListTools returns a descriptor for every registered tool, sorted by name
// for stable output.
func (r *Registry) ListTools() []mcp.Tool {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		list = append(list, Describe(name, r.cfg))
	}
	return list
}

// CallTool looks up and executes a tool, optimizes read-class results, and
// wraps the outcome into a content envelope. String results are carried as
// plain text; anything else is pretty-printed. Wire compatibility depends
// on that formatting.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	handler, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}

	result, err := handler.Execute(ctx, args, r.cfg)
	if err != nil {
		return nil, err
	}

	if _, readOnly := readOnlyTools[name]; readOnly {
		optimized, err := r.optimizer.Optimize(result)
		if err != nil {
			// Optimization is best effort; the unoptimized result still goes out.
			r.logger.Warn("Response optimization failed, returning unoptimized response",
				"tool", name, "error", err)
		} else {
			r.logger.Debug("Response optimization applied", "tool", name)
			result = optimized
		}
	}

	if text, ok := result.(string); ok {
		return &mcp.CallToolResult{Content: mcp.TextContent(text)}, nil
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResult{Content: mcp.TextContent(string(pretty))}, nil
}
