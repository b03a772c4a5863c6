package confluence

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junyeong-ai/mcp-atlassian/internal/config"
)

// fakeBackend records every call so multi-request handlers can be verified.
type call struct {
	method string
	path   string
	query  url.Values
	body   interface{}
}

type fakeBackend struct {
	calls     []call
	responses []interface{}
	err       error
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
	f.calls = append(f.calls, call{method: method, path: path, query: query, body: body})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeBackend) last() call {
	return f.calls[len(f.calls)-1]
}

func TestSearch_QueryShape(t *testing.T) {
	backend := &fakeBackend{responses: []interface{}{map[string]interface{}{
		"results":   []interface{}{},
		"totalSize": float64(0),
	}}}
	h := SearchHandler{Backend: backend}

	result, err := h.Execute(context.Background(), map[string]interface{}{
		"query": `type=page AND text ~ "runbook"`,
		"limit": float64(25),
	}, &config.Config{})
	require.NoError(t, err)

	last := backend.last()
	assert.Equal(t, "/wiki/rest/api/search", last.path)
	assert.Equal(t, `type=page AND text ~ "runbook"`, last.query.Get("cql"))
	assert.Equal(t, "25", last.query.Get("limit"))
	assert.Equal(t, "body.storage,version", last.query.Get("expand"))

	m := result.(map[string]interface{})
	assert.Equal(t, true, m["success"])
	assert.Equal(t, float64(0), m["total"])
}

func TestApplySpaceFilter(t *testing.T) {
	spaces := []string{"DEV", "OPS"}

	cases := []struct {
		name string
		cql  string
		want string
	}{
		{"no own clause", "type=page", `space IN ("DEV","OPS") AND (type=page)`},
		{"explicit space", `space = OTHER`, `space = OTHER`},
		{"space in clause", `space in (X)`, `space in (X)`},
		{"space equals no whitespace", `space=X`, `space=X`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, applySpaceFilter(tc.cql, spaces))
		})
	}

	assert.Equal(t, "type=page", applySpaceFilter("type=page", nil))
}

func TestGetPage(t *testing.T) {
	backend := &fakeBackend{responses: []interface{}{map[string]interface{}{"id": "123"}}}
	h := GetPageHandler{Backend: backend}

	result, err := h.Execute(context.Background(),
		map[string]interface{}{"page_id": "123"}, &config.Config{})
	require.NoError(t, err)

	last := backend.last()
	assert.Equal(t, "/wiki/api/v2/pages/123", last.path)
	assert.Equal(t, "storage", last.query.Get("body-format"))
	assert.Equal(t, "true", last.query.Get("include-version"))

	assert.Equal(t, true, result.(map[string]interface{})["success"])
}

func TestGetPageChildren(t *testing.T) {
	backend := &fakeBackend{responses: []interface{}{map[string]interface{}{
		"results": []interface{}{map[string]interface{}{"id": "456"}},
	}}}
	h := GetPageChildrenHandler{Backend: backend}

	result, err := h.Execute(context.Background(),
		map[string]interface{}{"page_id": "123"}, &config.Config{})
	require.NoError(t, err)

	assert.Equal(t, "/wiki/api/v2/pages/123/children", backend.last().path)
	assert.Len(t, result.(map[string]interface{})["children"], 1)
}

func TestGetComments(t *testing.T) {
	backend := &fakeBackend{responses: []interface{}{map[string]interface{}{
		"results": []interface{}{},
	}}}
	h := GetCommentsHandler{Backend: backend}

	result, err := h.Execute(context.Background(),
		map[string]interface{}{"page_id": "123"}, &config.Config{})
	require.NoError(t, err)

	assert.Equal(t, "/wiki/api/v2/pages/123/footer-comments", backend.last().path)
	assert.NotNil(t, result.(map[string]interface{})["comments"])
}

func TestCreatePage_ResolvesSpaceID(t *testing.T) {
	backend := &fakeBackend{responses: []interface{}{
		// spaces lookup, then page creation
		map[string]interface{}{"results": []interface{}{
			map[string]interface{}{"id": "789", "key": "DEV"},
		}},
		map[string]interface{}{"id": "1001"},
	}}
	h := CreatePageHandler{Backend: backend}

	result, err := h.Execute(context.Background(), map[string]interface{}{
		"space_key": "DEV",
		"title":     "Runbook",
		"content":   "<p>steps</p>",
		"parent_id": "42",
	}, &config.Config{})
	require.NoError(t, err)

	require.Len(t, backend.calls, 2)
	assert.Equal(t, "/wiki/api/v2/spaces", backend.calls[0].path)
	assert.Equal(t, "DEV", backend.calls[0].query.Get("keys"))

	create := backend.calls[1]
	assert.Equal(t, "POST", create.method)
	assert.Equal(t, "/wiki/api/v2/pages", create.path)

	body := create.body.(map[string]interface{})
	assert.Equal(t, "789", body["spaceId"])
	assert.Equal(t, "42", body["parentId"])
	assert.Equal(t, "storage", body["body"].(map[string]interface{})["representation"])

	assert.Equal(t, true, result.(map[string]interface{})["success"])
}

func TestCreatePage_UnknownSpace(t *testing.T) {
	backend := &fakeBackend{responses: []interface{}{
		map[string]interface{}{"results": []interface{}{}},
	}}
	h := CreatePageHandler{Backend: backend}

	_, err := h.Execute(context.Background(), map[string]interface{}{
		"space_key": "NOPE",
		"title":     "x",
		"content":   "y",
	}, &config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `space "NOPE" not found`)
}

func TestUpdatePage_BumpsVersion(t *testing.T) {
	backend := &fakeBackend{responses: []interface{}{
		// current page fetch, then the update
		map[string]interface{}{
			"id":      "123",
			"version": map[string]interface{}{"number": float64(7)},
		},
		map[string]interface{}{"id": "123"},
	}}
	h := UpdatePageHandler{Backend: backend}

	_, err := h.Execute(context.Background(), map[string]interface{}{
		"page_id": "123",
		"title":   "Runbook v2",
		"content": "<p>updated</p>",
	}, &config.Config{})
	require.NoError(t, err)

	require.Len(t, backend.calls, 2)
	assert.Equal(t, "true", backend.calls[0].query.Get("include-version"))

	update := backend.calls[1]
	assert.Equal(t, "PUT", update.method)
	version := update.body.(map[string]interface{})["version"].(map[string]interface{})
	assert.Equal(t, 8, version["number"])
}

func TestUpdatePage_MissingVersion(t *testing.T) {
	backend := &fakeBackend{responses: []interface{}{
		map[string]interface{}{"id": "123"},
	}}
	h := UpdatePageHandler{Backend: backend}

	_, err := h.Execute(context.Background(), map[string]interface{}{
		"page_id": "123",
		"title":   "x",
		"content": "y",
	}, &config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current version")
}
