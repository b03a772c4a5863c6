package jira

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junyeong-ai/mcp-atlassian/internal/config"
)

func TestDefaultSearchFields(t *testing.T) {
	assert.Len(t, DefaultSearchFields, 17)
	assert.Len(t, EssentialFields, 13)
	for _, f := range EssentialFields {
		assert.Contains(t, DefaultSearchFields, f)
	}
}

func TestResolveSearchFields_CallerWins(t *testing.T) {
	cfg := &config.Config{
		JiraSearchDefaultFields: []string{"summary", "status"},
		JiraSearchCustomFields:  []string{"customfield_10001"},
	}
	got := ResolveSearchFields([]string{"key"}, cfg)
	assert.Equal(t, []string{"key"}, got)
}

func TestResolveSearchFields_EnvOverrideReplaces(t *testing.T) {
	cfg := &config.Config{
		JiraSearchDefaultFields: []string{"summary", "status"},
		JiraSearchCustomFields:  []string{"customfield_10001"},
	}
	got := ResolveSearchFields(nil, cfg)

	// Full replacement: custom fields are NOT appended on top of an override.
	assert.Equal(t, []string{"summary", "status"}, got)
}

func TestResolveSearchFields_EmptyOverrideStillReplaces(t *testing.T) {
	cfg := &config.Config{JiraSearchDefaultFields: []string{}}
	got := ResolveSearchFields(nil, cfg)
	assert.Empty(t, got)
}

func TestResolveSearchFields_DefaultsPlusCustom(t *testing.T) {
	cfg := &config.Config{JiraSearchCustomFields: []string{"customfield_10001", "labels"}}
	got := ResolveSearchFields(nil, cfg)

	assert.Len(t, got, 18) // 17 defaults + 1 new; "labels" already present
	assert.Contains(t, got, "customfield_10001")
	assert.Equal(t, 1, strings.Count(strings.Join(got, ","), "labels"))
}

func TestResolveSearchFields_PlainDefaults(t *testing.T) {
	got := ResolveSearchFields(nil, &config.Config{})
	assert.Equal(t, DefaultSearchFields, got)
}

func TestNewFieldConfiguration_FiltersCustomPrefix(t *testing.T) {
	cfg := &config.Config{JiraCustomFields: []string{"customfield_10001", "summary", "customfield_10002"}}
	fc := NewFieldConfiguration(cfg)

	assert.Equal(t, []string{"customfield_10001", "customfield_10002"}, fc.CustomFields)
	assert.Equal(t, EssentialFields, fc.EssentialFields)
}

func TestWithAdditionalFields_Dedupes(t *testing.T) {
	fc := NewFieldConfiguration(&config.Config{})
	fc = fc.WithAdditionalFields([]string{"summary", "timetracking", "timetracking"})

	fields := fc.Fields()
	assert.Contains(t, fields, "timetracking")
	assert.Equal(t, len(EssentialFields)+1, len(fields))
}

func TestFieldQuery(t *testing.T) {
	cfg := &config.Config{JiraCustomFields: []string{"customfield_10001"}}

	q := FieldQuery(false, []string{"timetracking"}, cfg)
	require.NotNil(t, q)
	assert.Equal(t, "-renderedFields", q.Get("expand"))

	fields := strings.Split(q.Get("fields"), ",")
	assert.Contains(t, fields, "key")
	assert.Contains(t, fields, "customfield_10001")
	assert.Contains(t, fields, "timetracking")
}

func TestFieldQuery_IncludeAllDisablesFiltering(t *testing.T) {
	assert.Nil(t, FieldQuery(true, []string{"timetracking"}, &config.Config{}))
}
