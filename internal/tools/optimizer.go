package tools

import (
	"github.com/junyeong-ai/mcp-atlassian/internal/config"
)

// DefaultExcludeFields are removed from every read-class response. They
// carry no information a caller can act on and dominate token counts:
// avatar/icon URLs, self-referencing API links, expansion metadata, and
// workflow booleans that are constant in practice.
var DefaultExcludeFields = []string{
	// URLs and images
	"avatarUrls",     // Jira: user avatars (16x16 .. 48x48)
	"iconUrl",        // Jira: entity icons
	"profilePicture", // Confluence: user profile images
	"icon",           // Confluence: space/content icons
	"self",           // Common: self-referencing API URLs
	// Metadata with constant or empty values
	"expand",               // API expansion metadata
	"avatarId",             // UI avatar id
	"accountType",          // 99% "atlassian" fixed value
	"projectTypeKey",       // 99% "software" fixed value
	"simplified",           // internal workflow setting
	"_expandable",          // Confluence API metadata
	"childTypes",           // always empty object
	"macroRenderedOutput",  // always empty object
	"restrictions",         // always empty object
	"breadcrumbs",          // always empty array
	"entityType",           // always "content" fixed value
	"iconCssClass",         // UI CSS class
	"colorName",            // UI color, name is sufficient
	"hasScreen",            // UI behavior metadata
	"isAvailable",          // always true (filtered)
	"isConditional",        // workflow internal setting
	"isGlobal",             // workflow internal setting
	"isInitial",            // workflow internal setting
	"isLooped",             // workflow internal setting
	"friendlyLastModified", // duplicate of lastModified
	"editui",               // Confluence edit draft URL
	"edituiv2",             // Confluence edit v2 URL
}

// Optimizer shrinks JSON response trees by removing a fixed set of noise
// field names and all empty-string values, recursively. Nulls survive: "no
// value" is distinct from "empty string".
type Optimizer struct {
	exclude            map[string]struct{}
	removeEmptyStrings bool
}

// NewOptimizer builds an optimizer over the given exclude list. Duplicates
// are irrelevant; membership is what matters.
func NewOptimizer(excludeFields []string) *Optimizer {
	exclude := make(map[string]struct{}, len(excludeFields))
	for _, f := range excludeFields {
		exclude[f] = struct{}{}
	}
	return &Optimizer{exclude: exclude, removeEmptyStrings: true}
}

// OptimizerFromConfig uses RESPONSE_EXCLUDE_FIELDS when configured,
// otherwise the built-in exclude table.
func OptimizerFromConfig(cfg *config.Config) *Optimizer {
	if cfg.ResponseExcludeFields != nil {
		return NewOptimizer(cfg.ResponseExcludeFields)
	}
	return NewOptimizer(DefaultExcludeFields)
}

// Optimize applies the transform in place and returns the (possibly same)
// value. On decoded JSON the transform itself never fails.
func (o *Optimizer) Optimize(value interface{}) (interface{}, error) {
	return o.walk(value), nil
}

func (o *Optimizer) walk(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, nested := range v {
			if _, drop := o.exclude[key]; drop {
				delete(v, key)
				continue
			}
			if o.removeEmptyStrings {
				if s, ok := nested.(string); ok && s == "" {
					delete(v, key)
					continue
				}
			}
			v[key] = o.walk(nested)
		}
		return v
	case []interface{}:
		for i := range v {
			v[i] = o.walk(v[i])
		}
		return v
	default:
		// Primitives need no optimization.
		return value
	}
}
