package tools

import (
	"fmt"
	"strings"

	"github.com/junyeong-ai/mcp-atlassian/internal/config"
	"github.com/junyeong-ai/mcp-atlassian/internal/mcp"
	"github.com/junyeong-ai/mcp-atlassian/internal/tools/jira"
)

// Describe maps a tool name to its descriptor. It is a pure function of
// the name and the field-resolver configuration so it can be tested
// without the transport running.
func Describe(name string, cfg *config.Config) mcp.Tool {
	var (
		description string
		properties  map[string]mcp.Property
		required    []string
	)

	switch name {
	// Jira tools
	case "jira_get_issue":
		description = "Get Jira issue by key"
		properties = map[string]mcp.Property{
			"issue_key": stringProp("Issue key (e.g., 'PROJECT-123'). Case-sensitive."),
		}
		required = []string{"issue_key"}

	case "jira_search":
		resolved := jira.ResolveSearchFields(nil, cfg)
		description = "Search Jira issues using JQL"
		properties = map[string]mcp.Property{
			"jql": stringProp("JQL query. Must include search condition before ORDER BY (e.g., 'project = KEY ORDER BY created DESC'). ORDER BY only works with orderable fields (dates, versions)."),
			"limit": numberProp("Maximum results (default: 20)", 20),
			"fields": {
				Type: "array",
				Description: fmt.Sprintf(
					"Optional: Array of field names to return. If not specified, returns %d default fields: %s\n\nTo minimize tokens, specify only the fields you need (e.g., [\"key\",\"summary\",\"status\",\"assignee\"]).",
					len(resolved), strings.Join(resolved, ", ")),
			},
		}
		required = []string{"jql"}

	case "jira_create_issue":
		description = "Create Jira issue"
		properties = map[string]mcp.Property{
			"project_key": stringProp("Project key"),
			"summary":     stringProp("Issue summary"),
			"issue_type":  stringProp("Issue type name (e.g., 'Task', 'Bug', 'Story')."),
			"description": unionProp("Issue description - accepts plain text (string, auto-converted to ADF) or ADF object", "string", "object"),
		}
		required = []string{"project_key", "summary", "issue_type"}

	case "jira_update_issue":
		description = "Update Jira issue"
		properties = map[string]mcp.Property{
			"issue_key": stringProp("Issue key"),
			"fields": {
				Type:        "object",
				Description: "Fields to update as JSON object (e.g., {\"summary\": \"New title\"}). Custom fields use 'customfield_*' format. The 'description' field accepts plain text (auto-converted to ADF) or ADF object.",
			},
		}
		required = []string{"issue_key", "fields"}

	case "jira_add_comment":
		description = "Add comment to Jira issue"
		properties = map[string]mcp.Property{
			"issue_key": stringProp("Issue key"),
			"comment":   unionProp("Comment text - accepts plain text (string, auto-converted to ADF) or ADF object", "string", "object"),
		}
		required = []string{"issue_key", "comment"}

	case "jira_update_comment":
		description = "Update an existing comment on a Jira issue with rich text formatting (ADF)"
		properties = map[string]mcp.Property{
			"issue_key":  stringProp("Issue key (e.g., 'PROJ-123')"),
			"comment_id": stringProp("Comment ID to update (obtained from comment object's 'id' field)"),
			"body":       unionProp("Comment body - accepts plain text (string, auto-converted to ADF) or ADF object", "string", "object"),
		}
		required = []string{"issue_key", "comment_id", "body"}

	case "jira_transition_issue":
		description = "Transition Jira issue status"
		properties = map[string]mcp.Property{
			"issue_key":     stringProp("Issue key"),
			"transition_id": stringProp("Transition ID. Get available transition IDs using jira_get_transitions for the issue's current status."),
		}
		required = []string{"issue_key", "transition_id"}

	case "jira_get_transitions":
		description = "Get Jira issue transitions"
		properties = map[string]mcp.Property{
			"issue_key": stringProp("Issue key"),
		}
		required = []string{"issue_key"}

	// Confluence tools
	case "confluence_search":
		description = "Search Confluence using CQL"
		properties = map[string]mcp.Property{
			"query": stringProp("CQL query. Format: field operator value (e.g., 'type=page AND space=\"SPACE\"'). Use text ~ \"keyword\" for text search."),
			"limit": numberProp("Max results", 10),
		}
		required = []string{"query"}

	case "confluence_get_page":
		description = "Get Confluence page by ID"
		properties = map[string]mcp.Property{
			"page_id": stringProp("Page ID"),
		}
		required = []string{"page_id"}

	case "confluence_get_page_children":
		description = "Get page child pages"
		properties = map[string]mcp.Property{
			"page_id": stringProp("Page ID"),
		}
		required = []string{"page_id"}

	case "confluence_get_comments":
		description = "Get page comments"
		properties = map[string]mcp.Property{
			"page_id": stringProp("Page ID"),
		}
		required = []string{"page_id"}

	case "confluence_create_page":
		description = "Create Confluence page"
		properties = map[string]mcp.Property{
			"space_key": stringProp("Space key"),
			"title":     stringProp("Page title"),
			"content":   stringProp("Page content in HTML storage format."),
			"parent_id": stringProp("Parent page ID"),
		}
		required = []string{"space_key", "title", "content"}

	case "confluence_update_page":
		description = "Update Confluence page"
		properties = map[string]mcp.Property{
			"page_id":        stringProp("Page ID"),
			"title":          stringProp("Page title"),
			"content":        stringProp("Page content in HTML storage format"),
			"version_number": numberProp("Version number (optional). Current version is automatically retrieved and incremented.", 1),
		}
		required = []string{"page_id", "title", "content"}

	default:
		description = "Unknown tool"
		properties = map[string]mcp.Property{}
	}

	if required == nil {
		required = []string{}
	}

	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.InputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

func stringProp(description string) mcp.Property {
	return mcp.Property{Type: "string", Description: description}
}

func numberProp(description string, def int) mcp.Property {
	return mcp.Property{Type: "number", Description: description, Default: def}
}

func unionProp(description string, types ...string) mcp.Property {
	union := make([]interface{}, len(types))
	for i, t := range types {
		union[i] = t
	}
	return mcp.Property{Type: union, Description: description}
}
