package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junyeong-ai/mcp-atlassian/internal/config"
)

// fakeBackend records the last call and plays back a canned response.
type fakeBackend struct {
	lastMethod string
	lastPath   string
	lastQuery  url.Values
	lastBody   interface{}
	response   interface{}
	err        error
	calls      int
}

func (f *fakeBackend) GetJSON(ctx context.Context, path string, query url.Values) (interface{}, error) {
	return f.record("GET", path, query, nil)
}

func (f *fakeBackend) PostJSON(ctx context.Context, path string, query url.Values, body interface{}) (interface{}, error) {
	return f.record("POST", path, query, body)
}

func (f *fakeBackend) PutJSON(ctx context.Context, path string, query url.Values, body interface{}) (interface{}, error) {
	return f.record("PUT", path, query, body)
}

func (f *fakeBackend) record(method, path string, query url.Values, body interface{}) (interface{}, error) {
	f.calls++
	f.lastMethod = method
	f.lastPath = path
	f.lastQuery = query
	f.lastBody = body
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func newTestRegistry(backend *fakeBackend, cfg *config.Config) *Registry {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return NewRegistry(cfg, backend, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistry_ListTools(t *testing.T) {
	reg := newTestRegistry(&fakeBackend{}, nil)
	list := reg.ListTools()

	require.Len(t, list, 14)

	names := make([]string, len(list))
	for i, tool := range list {
		names[i] = tool.Name
	}
	assert.IsIncreasing(t, names)

	for _, expected := range []string{
		"jira_get_issue", "jira_search", "jira_create_issue", "jira_update_issue",
		"jira_add_comment", "jira_update_comment", "jira_transition_issue", "jira_get_transitions",
		"confluence_search", "confluence_get_page", "confluence_get_page_children",
		"confluence_get_comments", "confluence_create_page", "confluence_update_page",
	} {
		assert.Contains(t, names, expected)
	}
}

func TestRegistry_SchemasAreWellFormed(t *testing.T) {
	reg := newTestRegistry(&fakeBackend{}, nil)

	for _, tool := range reg.ListTools() {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
		require.NotNil(t, tool.InputSchema.Required, tool.Name)
		for _, req := range tool.InputSchema.Required {
			assert.Contains(t, tool.InputSchema.Properties, req,
				"%s: required field %s missing from properties", tool.Name, req)
		}
	}
}

func TestRegistry_SearchDescriptionListsDefaults(t *testing.T) {
	reg := newTestRegistry(&fakeBackend{}, nil)

	for _, tool := range reg.ListTools() {
		if tool.Name != "jira_search" {
			continue
		}
		desc := tool.InputSchema.Properties["fields"].Description
		assert.Contains(t, desc, "17 default fields")
		assert.Contains(t, desc, "summary")
		return
	}
	t.Fatal("jira_search not registered")
}

func TestRegistry_SearchDescriptionTracksConfig(t *testing.T) {
	cfg := &config.Config{JiraSearchDefaultFields: []string{"key", "summary"}}
	reg := newTestRegistry(&fakeBackend{}, cfg)

	for _, tool := range reg.ListTools() {
		if tool.Name == "jira_search" {
			desc := tool.InputSchema.Properties["fields"].Description
			assert.Contains(t, desc, "2 default fields")
			return
		}
	}
	t.Fatal("jira_search not registered")
}

func TestRegistry_ToolNotFound(t *testing.T) {
	backend := &fakeBackend{}
	reg := newTestRegistry(backend, nil)

	_, err := reg.CallTool(context.Background(), "jira_delete_everything", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool not found: jira_delete_everything")
	assert.Zero(t, backend.calls, "unknown tool must not reach the backend")
}

func TestRegistry_ReadToolGetsOptimized(t *testing.T) {
	backend := &fakeBackend{response: map[string]interface{}{
		"self": "https://example.atlassian.net/rest/api/3/issue/1",
		"key":  "PROJ-1",
		"fields": map[string]interface{}{
			"summary":    "Fix it",
			"avatarUrls": map[string]interface{}{"48x48": "u"},
			"empty":      "",
		},
	}}
	reg := newTestRegistry(backend, nil)

	result, err := reg.CallTool(context.Background(), "jira_get_issue",
		map[string]interface{}{"issue_key": "PROJ-1"})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text := result.Content[0].Text
	assert.NotContains(t, text, "avatarUrls")
	assert.NotContains(t, text, `"self"`)
	assert.NotContains(t, text, `"empty"`)
	assert.Contains(t, text, "PROJ-1")
	assert.Equal(t, "GET", backend.lastMethod)
	assert.Equal(t, "/rest/api/3/issue/PROJ-1", backend.lastPath)
}

func TestRegistry_MutatingToolSkipsOptimizer(t *testing.T) {
	backend := &fakeBackend{response: map[string]interface{}{
		"id":   "10001",
		"key":  "PROJ-2",
		"self": "https://example.atlassian.net/rest/api/3/issue/10001",
	}}
	reg := newTestRegistry(backend, nil)

	result, err := reg.CallTool(context.Background(), "jira_create_issue", map[string]interface{}{
		"project_key": "PROJ",
		"summary":     "New issue",
		"issue_type":  "Task",
	})
	require.NoError(t, err)

	// Creation responses come back verbatim, noise fields included.
	assert.Contains(t, result.Content[0].Text, `"self"`)
	assert.Equal(t, "POST", backend.lastMethod)
}

func TestRegistry_ContentWrapping(t *testing.T) {
	backend := &fakeBackend{response: map[string]interface{}{"transitions": []interface{}{}}}
	reg := newTestRegistry(backend, nil)

	result, err := reg.CallTool(context.Background(), "jira_get_transitions",
		map[string]interface{}{"issue_key": "PROJ-1"})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	content := result.Content[0]
	assert.Equal(t, "text", content.Type)

	// Non-string results are pretty-printed with two-space indentation.
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(content.Text), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.True(t, strings.Contains(content.Text, "\n  "), "expected indented output, got %q", content.Text)
}

func TestRegistry_HandlerErrorPropagates(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("backend unavailable")}
	reg := newTestRegistry(backend, nil)

	_, err := reg.CallTool(context.Background(), "jira_get_issue",
		map[string]interface{}{"issue_key": "PROJ-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestRegistry_MissingRequiredArgument(t *testing.T) {
	backend := &fakeBackend{}
	reg := newTestRegistry(backend, nil)

	_, err := reg.CallTool(context.Background(), "jira_get_issue", map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing issue_key")
	assert.Zero(t, backend.calls)
}
