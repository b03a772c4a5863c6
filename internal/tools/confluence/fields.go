package confluence

import (
	"net/url"
	"slices"
	"strings"

	"github.com/junyeong-ai/mcp-atlassian/internal/config"
)

// IncludeConfiguration models the capability-style include-* parameters the
// Confluence v2 API uses instead of a fields list.
type IncludeConfiguration struct {
	BodyFormat        string
	IncludeVersion    bool
	IncludeLabels     bool
	IncludeProperties bool
	IncludeOperations bool
	CustomIncludes    []string
	IncludeAll        bool
}

// NewIncludeConfiguration builds the default v2 parameter set: storage body
// format, version included, everything else opt-in.
func NewIncludeConfiguration(cfg *config.Config) IncludeConfiguration {
	return IncludeConfiguration{
		BodyFormat:     "storage",
		IncludeVersion: true,
		CustomIncludes: slices.Clone(cfg.ConfluenceCustomIncludes),
	}
}

// AllIncludes returns a configuration with every include parameter enabled.
func AllIncludes() IncludeConfiguration {
	return IncludeConfiguration{
		BodyFormat:        "storage",
		IncludeVersion:    true,
		IncludeLabels:     true,
		IncludeProperties: true,
		IncludeOperations: true,
		IncludeAll:        true,
	}
}

// WithAdditionalIncludes returns a copy with the extra include parameters
// appended, skipping duplicates.
func (ic IncludeConfiguration) WithAdditionalIncludes(additional []string) IncludeConfiguration {
	out := ic
	out.CustomIncludes = slices.Clone(ic.CustomIncludes)
	for _, p := range additional {
		if !slices.Contains(out.CustomIncludes, p) {
			out.CustomIncludes = append(out.CustomIncludes, p)
		}
	}
	return out
}

// QueryParams renders the configuration as v2 API query parameters.
func (ic IncludeConfiguration) QueryParams() url.Values {
	params := url.Values{}
	if ic.BodyFormat != "" {
		params.Set("body-format", ic.BodyFormat)
	}
	if ic.IncludeVersion {
		params.Set("include-version", "true")
	}
	if ic.IncludeLabels || ic.IncludeAll {
		params.Set("include-labels", "true")
	}
	if ic.IncludeProperties || ic.IncludeAll {
		params.Set("include-properties", "true")
	}
	if ic.IncludeOperations || ic.IncludeAll {
		params.Set("include-operations", "true")
	}
	for _, p := range ic.CustomIncludes {
		params.Set("include-"+p, "true")
	}
	return params
}

// V2Query resolves the include parameters for one v2 request.
func V2Query(includeAll bool, additional []string, cfg *config.Config) url.Values {
	if includeAll {
		return AllIncludes().QueryParams()
	}

	ic := NewIncludeConfiguration(cfg)
	if len(additional) > 0 {
		ic = ic.WithAdditionalIncludes(additional)
	}
	return ic.QueryParams()
}

// SearchExpand builds the expand parameter for the v1 search endpoint,
// which predates the include-* scheme.
func SearchExpand(includeAll bool, additional []string) string {
	expand := []string{"body.storage", "version"}
	if includeAll {
		expand = []string{"body.storage", "version", "space", "history", "metadata"}
	}
	for _, p := range additional {
		if !slices.Contains(expand, p) {
			expand = append(expand, p)
		}
	}
	return strings.Join(expand, ",")
}
