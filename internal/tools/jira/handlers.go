package jira

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/junyeong-ai/mcp-atlassian/internal/atlassian"
	"github.com/junyeong-ai/mcp-atlassian/internal/config"
)

// Handlers for each Jira tool. All of them go through the shared Backend
// and return {"success": true, ...} envelopes.

type GetIssueHandler struct{ Backend atlassian.Backend }
type SearchHandler struct{ Backend atlassian.Backend }
type CreateIssueHandler struct{ Backend atlassian.Backend }
type UpdateIssueHandler struct{ Backend atlassian.Backend }
type AddCommentHandler struct{ Backend atlassian.Backend }
type UpdateCommentHandler struct{ Backend atlassian.Backend }
type TransitionIssueHandler struct{ Backend atlassian.Backend }
type GetTransitionsHandler struct{ Backend atlassian.Backend }

func (h GetIssueHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	issueKey, err := stringArg(args, "issue_key")
	if err != nil {
		return nil, err
	}

	query := FieldQuery(boolArg(args, "include_all_fields"), listArg(args, "fields"), cfg)

	data, err := h.Backend.GetJSON(ctx, "/rest/api/3/issue/"+issueKey, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"issue":   data,
	}, nil
}

func (h SearchHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	jql, err := stringArg(args, "jql")
	if err != nil {
		return nil, err
	}
	limit := intArg(args, "limit", 20)

	fields := ResolveSearchFields(listArg(args, "fields"), cfg)

	query := url.Values{
		"jql":        {applyProjectFilter(jql, cfg.JiraProjectsFilter)},
		"maxResults": {strconv.Itoa(limit)},
		"fields":     {strings.Join(fields, ",")},
		"expand":     {"-renderedFields"},
	}

	data, err := h.Backend.GetJSON(ctx, "/rest/api/3/search/jql", query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result := map[string]interface{}{"success": true}
	if m, ok := data.(map[string]interface{}); ok {
		result["issues"] = m["issues"]
		result["total"] = m["total"]
	}
	return result, nil
}

// applyProjectFilter injects the configured project restriction unless the
// JQL already carries its own project clause.
func applyProjectFilter(jql string, projects []string) string {
	if len(projects) == 0 {
		return jql
	}

	lower := strings.ToLower(jql)
	if strings.Contains(lower, "project ") || strings.Contains(lower, "project=") || strings.Contains(lower, "project in") {
		return jql
	}

	quoted := make([]string, len(projects))
	for i, p := range projects {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return fmt.Sprintf("project IN (%s) AND (%s)", strings.Join(quoted, ","), jql)
}

func (h CreateIssueHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	projectKey, err := stringArg(args, "project_key")
	if err != nil {
		return nil, err
	}
	summary, err := stringArg(args, "summary")
	if err != nil {
		return nil, err
	}
	issueType, err := stringArg(args, "issue_type")
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"project":   map[string]interface{}{"key": projectKey},
		"summary":   summary,
		"issuetype": map[string]interface{}{"name": issueType},
	}
	if desc, ok := args["description"]; ok {
		fields["description"] = toADF(desc)
	}

	body := map[string]interface{}{"fields": fields}

	data, err := h.Backend.PostJSON(ctx, "/rest/api/3/issue", nil, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"issue":   data,
	}, nil
}

func (h UpdateIssueHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	issueKey, err := stringArg(args, "issue_key")
	if err != nil {
		return nil, err
	}
	fields, ok := args["fields"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing fields")
	}

	// Plain-text descriptions get converted to ADF like everything else.
	if desc, ok := fields["description"].(string); ok {
		fields["description"] = toADF(desc)
	}

	body := map[string]interface{}{"fields": fields}

	if _, err := h.Backend.PutJSON(ctx, "/rest/api/3/issue/"+issueKey, nil, body); err != nil {
		return nil, fmt.Errorf("failed to update issue: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Issue %s updated", issueKey),
	}, nil
}

func (h AddCommentHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	issueKey, err := stringArg(args, "issue_key")
	if err != nil {
		return nil, err
	}
	comment, ok := args["comment"]
	if !ok {
		return nil, fmt.Errorf("missing comment")
	}

	body := map[string]interface{}{"body": toADF(comment)}

	data, err := h.Backend.PostJSON(ctx, "/rest/api/3/issue/"+issueKey+"/comment", nil, body)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"comment": data,
	}, nil
}

func (h UpdateCommentHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	issueKey, err := stringArg(args, "issue_key")
	if err != nil {
		return nil, err
	}
	commentID, err := stringArg(args, "comment_id")
	if err != nil {
		return nil, err
	}
	cbody, ok := args["body"]
	if !ok {
		return nil, fmt.Errorf("missing body")
	}

	body := map[string]interface{}{"body": toADF(cbody)}

	data, err := h.Backend.PutJSON(ctx, "/rest/api/3/issue/"+issueKey+"/comment/"+commentID, nil, body)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"comment": data,
	}, nil
}

func (h TransitionIssueHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	issueKey, err := stringArg(args, "issue_key")
	if err != nil {
		return nil, err
	}
	transitionID, err := stringArg(args, "transition_id")
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"transition": map[string]interface{}{"id": transitionID},
	}

	if _, err := h.Backend.PostJSON(ctx, "/rest/api/3/issue/"+issueKey+"/transitions", nil, body); err != nil {
		return nil, fmt.Errorf("failed to transition issue: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Issue %s transitioned", issueKey),
	}, nil
}

func (h GetTransitionsHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	issueKey, err := stringArg(args, "issue_key")
	if err != nil {
		return nil, err
	}

	data, err := h.Backend.GetJSON(ctx, "/rest/api/3/issue/"+issueKey+"/transitions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get transitions: %w", err)
	}

	result := map[string]interface{}{"success": true}
	if m, ok := data.(map[string]interface{}); ok {
		result["transitions"] = m["transitions"]
	}
	return result, nil
}

// toADF wraps plain text in a minimal Atlassian Document Format document.
// Values that are already objects pass through untouched.
func toADF(v interface{}) interface{} {
	text, ok := v.(string)
	if !ok {
		return v
	}
	return map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": []interface{}{
			map[string]interface{}{
				"type": "paragraph",
				"content": []interface{}{
					map[string]interface{}{"type": "text", "text": text},
				},
			},
		},
	}
}

// --- argument helpers ---

func stringArg(args map[string]interface{}, key string) (string, error) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return s, nil
}

func intArg(args map[string]interface{}, key string, def int) int {
	if n, ok := args[key].(float64); ok {
		return int(n)
	}
	return def
}

func boolArg(args map[string]interface{}, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func listArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
