package jira

import (
	"net/url"
	"slices"
	"strings"

	"github.com/junyeong-ai/mcp-atlassian/internal/config"
)

// EssentialFields are always requested for single-issue endpoints. User
// fields (assignee, reporter, creator) come back with only their essential
// properties, which keeps transfer small.
var EssentialFields = []string{
	"id",
	"key",
	"summary",
	"description",
	"issuetype",
	"status",
	"priority",
	"assignee",
	"reporter",
	"creator",
	"created",
	"updated",
	"project",
}

// DefaultSearchFields is the built-in field list for jira_search when
// neither the caller nor the configuration narrows it.
var DefaultSearchFields = []string{
	"id",
	"key",
	"summary",
	"description",
	"issuetype",
	"status",
	"priority",
	"assignee",
	"reporter",
	"creator",
	"created",
	"updated",
	"project",
	"labels",
	"components",
	"fixVersions",
	"duedate",
}

// ResolveSearchFields decides which fields a search request asks for.
// Strictly first match wins:
//  1. fields supplied on the call itself
//  2. JIRA_SEARCH_DEFAULT_FIELDS (full replacement, custom fields ignored)
//  3. built-in defaults plus JIRA_SEARCH_CUSTOM_FIELDS, deduplicated
func ResolveSearchFields(apiFields []string, cfg *config.Config) []string {
	if len(apiFields) > 0 {
		return apiFields
	}
	if cfg.JiraSearchDefaultFields != nil {
		return cfg.JiraSearchDefaultFields
	}

	fields := slices.Clone(DefaultSearchFields)
	for _, f := range cfg.JiraSearchCustomFields {
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// FieldConfiguration collects the fields non-search Jira endpoints request.
type FieldConfiguration struct {
	EssentialFields []string
	CustomFields    []string
	IncludeAll      bool
}

// NewFieldConfiguration builds the configuration for a request. Custom
// fields must use the customfield_* naming; anything else is dropped.
func NewFieldConfiguration(cfg *config.Config) FieldConfiguration {
	var custom []string
	for _, f := range cfg.JiraCustomFields {
		if strings.HasPrefix(f, "customfield_") {
			custom = append(custom, f)
		}
	}
	return FieldConfiguration{
		EssentialFields: slices.Clone(EssentialFields),
		CustomFields:    custom,
	}
}

// WithAdditionalFields returns a copy with the extra fields appended,
// skipping anything already present.
func (fc FieldConfiguration) WithAdditionalFields(additional []string) FieldConfiguration {
	out := FieldConfiguration{
		EssentialFields: slices.Clone(fc.EssentialFields),
		CustomFields:    slices.Clone(fc.CustomFields),
		IncludeAll:      fc.IncludeAll,
	}
	for _, f := range additional {
		if !slices.Contains(out.EssentialFields, f) && !slices.Contains(out.CustomFields, f) {
			out.CustomFields = append(out.CustomFields, f)
		}
	}
	return out
}

// Fields returns the full request field list, or nil when IncludeAll
// disables filtering.
func (fc FieldConfiguration) Fields() []string {
	if fc.IncludeAll {
		return nil
	}
	return append(slices.Clone(fc.EssentialFields), fc.CustomFields...)
}

// FieldQuery builds the fields query parameters (plus the expand parameter
// that drops renderedFields) for non-search GET endpoints. An include-all
// request gets no filtering at all.
func FieldQuery(includeAll bool, additional []string, cfg *config.Config) url.Values {
	if includeAll {
		return nil
	}

	fieldCfg := NewFieldConfiguration(cfg)
	if len(additional) > 0 {
		fieldCfg = fieldCfg.WithAdditionalFields(additional)
	}

	fields := fieldCfg.Fields()
	if len(fields) == 0 {
		return nil
	}

	return url.Values{
		"fields": {strings.Join(fields, ",")},
		"expand": {"-renderedFields"},
	}
}
