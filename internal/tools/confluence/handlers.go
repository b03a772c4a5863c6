package confluence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/junyeong-ai/mcp-atlassian/internal/atlassian"
	"github.com/junyeong-ai/mcp-atlassian/internal/config"
)

// Handlers for each Confluence tool. Search goes through the v1 CQL
// endpoint; everything else uses the v2 API.

type SearchHandler struct{ Backend atlassian.Backend }
type GetPageHandler struct{ Backend atlassian.Backend }
type GetPageChildrenHandler struct{ Backend atlassian.Backend }
type GetCommentsHandler struct{ Backend atlassian.Backend }
type CreatePageHandler struct{ Backend atlassian.Backend }
type UpdatePageHandler struct{ Backend atlassian.Backend }

func (h SearchHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	cql, err := stringArg(args, "query")
	if err != nil {
		return nil, fmt.Errorf("missing query parameter")
	}
	limit := intArg(args, "limit", 10)

	query := url.Values{
		"cql":    {applySpaceFilter(cql, cfg.ConfluenceSpacesFilter)},
		"limit":  {strconv.Itoa(limit)},
		"expand": {SearchExpand(boolArg(args, "include_all_fields"), listArg(args, "additional_expand"))},
	}

	data, err := h.Backend.GetJSON(ctx, "/wiki/rest/api/search", query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result := map[string]interface{}{"success": true}
	if m, ok := data.(map[string]interface{}); ok {
		result["results"] = m["results"]
		result["total"] = m["totalSize"]
	}
	return result, nil
}

// applySpaceFilter injects the configured space restriction unless the CQL
// already carries its own space clause.
func applySpaceFilter(cql string, spaces []string) string {
	if len(spaces) == 0 {
		return cql
	}

	lower := strings.ToLower(cql)
	if strings.Contains(lower, "space ") || strings.Contains(lower, "space=") || strings.Contains(lower, "space in") {
		return cql
	}

	quoted := make([]string, len(spaces))
	for i, s := range spaces {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("space IN (%s) AND (%s)", strings.Join(quoted, ","), cql)
}

func (h GetPageHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	pageID, err := stringArg(args, "page_id")
	if err != nil {
		return nil, err
	}

	query := V2Query(boolArg(args, "include_all_fields"), listArg(args, "additional_expand"), cfg)

	data, err := h.Backend.GetJSON(ctx, "/wiki/api/v2/pages/"+pageID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"page":    data,
	}, nil
}

func (h GetPageChildrenHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	pageID, err := stringArg(args, "page_id")
	if err != nil {
		return nil, err
	}

	query := V2Query(boolArg(args, "include_all_fields"), listArg(args, "additional_expand"), cfg)

	data, err := h.Backend.GetJSON(ctx, "/wiki/api/v2/pages/"+pageID+"/children", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get child pages: %w", err)
	}

	result := map[string]interface{}{"success": true}
	if m, ok := data.(map[string]interface{}); ok {
		result["children"] = m["results"]
	}
	return result, nil
}

func (h GetCommentsHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	pageID, err := stringArg(args, "page_id")
	if err != nil {
		return nil, err
	}

	query := V2Query(boolArg(args, "include_all_fields"), listArg(args, "additional_expand"), cfg)

	data, err := h.Backend.GetJSON(ctx, "/wiki/api/v2/pages/"+pageID+"/footer-comments", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	result := map[string]interface{}{"success": true}
	if m, ok := data.(map[string]interface{}); ok {
		result["comments"] = m["results"]
	}
	return result, nil
}

func (h CreatePageHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	spaceKey, err := stringArg(args, "space_key")
	if err != nil {
		return nil, err
	}
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return nil, err
	}

	spaceID, err := h.resolveSpaceID(ctx, spaceKey)
	if err != nil {
		return nil, err
	}

	query := V2Query(boolArg(args, "include_all_fields"), listArg(args, "additional_expand"), cfg)

	body := map[string]interface{}{
		"spaceId": spaceID,
		"title":   title,
		"body": map[string]interface{}{
			"representation": "storage",
			"value":          content,
		},
	}
	if parentID, ok := args["parent_id"].(string); ok && parentID != "" {
		body["parentId"] = parentID
	}

	data, err := h.Backend.PostJSON(ctx, "/wiki/api/v2/pages", query, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"page":    data,
	}, nil
}

// resolveSpaceID converts a space key to the numeric id the v2 API wants.
func (h CreatePageHandler) resolveSpaceID(ctx context.Context, spaceKey string) (string, error) {
	data, err := h.Backend.GetJSON(ctx, "/wiki/api/v2/spaces", url.Values{"keys": {spaceKey}})
	if err != nil {
		return "", fmt.Errorf("failed to get space id for key %q: %w", spaceKey, err)
	}

	if m, ok := data.(map[string]interface{}); ok {
		if results, ok := m["results"].([]interface{}); ok && len(results) > 0 {
			if space, ok := results[0].(map[string]interface{}); ok {
				if id, ok := space["id"].(string); ok && id != "" {
					return id, nil
				}
			}
		}
	}
	return "", fmt.Errorf("space %q not found", spaceKey)
}

func (h UpdatePageHandler) Execute(ctx context.Context, args map[string]interface{}, cfg *config.Config) (interface{}, error) {
	pageID, err := stringArg(args, "page_id")
	if err != nil {
		return nil, err
	}
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return nil, err
	}

	// The current version number is fetched and incremented; callers never
	// have to track it themselves.
	current, err := h.Backend.GetJSON(ctx, "/wiki/api/v2/pages/"+pageID, url.Values{"include-version": {"true"}})
	if err != nil {
		return nil, fmt.Errorf("failed to get page for update: %w", err)
	}

	version, ok := versionNumber(current)
	if !ok {
		return nil, fmt.Errorf("failed to get current version")
	}

	query := V2Query(boolArg(args, "include_all_fields"), listArg(args, "additional_expand"), cfg)

	body := map[string]interface{}{
		"id":    pageID,
		"title": title,
		"body": map[string]interface{}{
			"representation": "storage",
			"value":          content,
		},
		"version": map[string]interface{}{
			"number": version + 1,
		},
	}

	data, err := h.Backend.PutJSON(ctx, "/wiki/api/v2/pages/"+pageID, query, body)
	if err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}

	return map[string]interface{}{
		"success": true,
		"page":    data,
	}, nil
}

func versionNumber(page interface{}) (int, bool) {
	m, ok := page.(map[string]interface{})
	if !ok {
		return 0, false
	}
	version, ok := m["version"].(map[string]interface{})
	if !ok {
		return 0, false
	}
	n, ok := version["number"].(float64)
	if !ok {
		return 0, false
	}
	return int(n), true
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
