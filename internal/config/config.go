package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the whole runtime configuration. Values come from the
// environment; an optional YAML file overrides individual entries.
type Config struct {
	// Atlassian API
	AtlassianDomain   string `env:"ATLASSIAN_DOMAIN"`
	AtlassianEmail    string `env:"ATLASSIAN_EMAIL"`
	AtlassianAPIToken string `env:"ATLASSIAN_API_TOKEN"`

	// Performance
	MaxConnections   int `env:"MAX_CONNECTIONS" envDefault:"100"`
	RequestTimeoutMS int `env:"REQUEST_TIMEOUT_MS" envDefault:"30000"`

	// Project/Space filtering
	JiraProjectsFilter     []string `env:"JIRA_PROJECTS_FILTER" envSeparator:","`
	ConfluenceSpacesFilter []string `env:"CONFLUENCE_SPACES_FILTER" envSeparator:","`

	// Jira search field configuration. JiraSearchDefaultFields is a full
	// replacement of the built-in defaults when set; JiraSearchCustomFields
	// are appended to them otherwise. nil means "not configured".
	JiraSearchDefaultFields []string `env:"JIRA_SEARCH_DEFAULT_FIELDS" envSeparator:","`
	JiraSearchCustomFields  []string `env:"JIRA_SEARCH_CUSTOM_FIELDS" envSeparator:","`

	// Per-request field additions for non-search Jira endpoints.
	JiraCustomFields []string `env:"JIRA_CUSTOM_FIELDS" envSeparator:","`

	// Extra include-* parameters for Confluence v2 endpoints.
	ConfluenceCustomIncludes []string `env:"CONFLUENCE_CUSTOM_INCLUDES" envSeparator:","`

	// Response optimization. nil means "use the built-in exclude set".
	ResponseExcludeFields []string `env:"RESPONSE_EXCLUDE_FIELDS" envSeparator:","`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
	JSONLogs bool   `env:"JSON_LOGS" envDefault:"false"`
}

// fileConfig mirrors Config for the optional YAML overlay. Pointer fields
// distinguish "absent" from "set to empty".
type fileConfig struct {
	AtlassianDomain   *string `yaml:"atlassianDomain"`
	AtlassianEmail    *string `yaml:"atlassianEmail"`
	AtlassianAPIToken *string `yaml:"atlassianApiToken"`

	MaxConnections   *int `yaml:"maxConnections"`
	RequestTimeoutMS *int `yaml:"requestTimeoutMs"`

	JiraProjectsFilter     []string `yaml:"jiraProjectsFilter"`
	ConfluenceSpacesFilter []string `yaml:"confluenceSpacesFilter"`

	JiraSearchDefaultFields []string `yaml:"jiraSearchDefaultFields"`
	JiraSearchCustomFields  []string `yaml:"jiraSearchCustomFields"`
	JiraCustomFields        []string `yaml:"jiraCustomFields"`

	ConfluenceCustomIncludes []string `yaml:"confluenceCustomIncludes"`
	ResponseExcludeFields    []string `yaml:"responseExcludeFields"`

	LogLevel *string `yaml:"logLevel"`
	JSONLogs *bool   `yaml:"jsonLogs"`
}

// Load parses the environment and, when path is non-empty, overlays the
// YAML file on top of it.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.materializeEmptyOverrides()
	cfg.trimLists()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var fc fileConfig
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.AtlassianDomain != nil {
		c.AtlassianDomain = *fc.AtlassianDomain
	}
	if fc.AtlassianEmail != nil {
		c.AtlassianEmail = *fc.AtlassianEmail
	}
	if fc.AtlassianAPIToken != nil {
		c.AtlassianAPIToken = *fc.AtlassianAPIToken
	}
	if fc.MaxConnections != nil {
		c.MaxConnections = *fc.MaxConnections
	}
	if fc.RequestTimeoutMS != nil {
		c.RequestTimeoutMS = *fc.RequestTimeoutMS
	}
	if fc.JiraProjectsFilter != nil {
		c.JiraProjectsFilter = fc.JiraProjectsFilter
	}
	if fc.ConfluenceSpacesFilter != nil {
		c.ConfluenceSpacesFilter = fc.ConfluenceSpacesFilter
	}
	if fc.JiraSearchDefaultFields != nil {
		c.JiraSearchDefaultFields = fc.JiraSearchDefaultFields
	}
	if fc.JiraSearchCustomFields != nil {
		c.JiraSearchCustomFields = fc.JiraSearchCustomFields
	}
	if fc.JiraCustomFields != nil {
		c.JiraCustomFields = fc.JiraCustomFields
	}
	if fc.ConfluenceCustomIncludes != nil {
		c.ConfluenceCustomIncludes = fc.ConfluenceCustomIncludes
	}
	if fc.ResponseExcludeFields != nil {
		c.ResponseExcludeFields = fc.ResponseExcludeFields
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.JSONLogs != nil {
		c.JSONLogs = *fc.JSONLogs
	}
	return nil
}

// materializeEmptyOverrides restores the set-but-empty distinction for the
// full-replacement list variables. env.Parse leaves a slice nil whether the
// variable is unset or set to an empty string, but an empty override means
// "replace the built-in list with nothing", not "fall back to it".
func (c *Config) materializeEmptyOverrides() {
	if c.JiraSearchDefaultFields == nil {
		if _, ok := os.LookupEnv("JIRA_SEARCH_DEFAULT_FIELDS"); ok {
			c.JiraSearchDefaultFields = []string{}
		}
	}
	if c.ResponseExcludeFields == nil {
		if _, ok := os.LookupEnv("RESPONSE_EXCLUDE_FIELDS"); ok {
			c.ResponseExcludeFields = []string{}
		}
	}
}

// trimLists drops whitespace and empty entries that comma-separated env
// values tend to carry.
func (c *Config) trimLists() {
	c.JiraProjectsFilter = cleanList(c.JiraProjectsFilter)
	c.ConfluenceSpacesFilter = cleanList(c.ConfluenceSpacesFilter)
	c.JiraSearchDefaultFields = cleanList(c.JiraSearchDefaultFields)
	c.JiraSearchCustomFields = cleanList(c.JiraSearchCustomFields)
	c.JiraCustomFields = cleanList(c.JiraCustomFields)
	c.ConfluenceCustomIncludes = cleanList(c.ConfluenceCustomIncludes)
	c.ResponseExcludeFields = cleanList(c.ResponseExcludeFields)
}

// cleanList preserves the nil/non-nil distinction: a configured but empty
// list stays non-nil.
func cleanList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the configuration for obvious misconfiguration before the
// server starts serving requests.
func (c *Config) Validate() error {
	if c.AtlassianDomain == "" {
		return fmt.Errorf("atlassian domain cannot be empty")
	}

	domain := strings.TrimPrefix(strings.TrimPrefix(c.AtlassianDomain, "https://"), "http://")
	if !strings.Contains(domain, ".atlassian.net") {
		return fmt.Errorf("invalid atlassian domain format: %s", domain)
	}

	if c.AtlassianEmail == "" || !strings.Contains(c.AtlassianEmail, "@") {
		return fmt.Errorf("invalid atlassian email")
	}
	if c.AtlassianAPIToken == "" {
		return fmt.Errorf("api token cannot be empty")
	}
	if c.MaxConnections <= 0 || c.MaxConnections > 1000 {
		return fmt.Errorf("max connections must be between 1 and 1000")
	}
	if c.RequestTimeoutMS < 100 || c.RequestTimeoutMS > 60000 {
		return fmt.Errorf("request timeout must be between 100ms and 60000ms")
	}
	return nil
}

// BaseURL returns the https base URL for the configured domain.
func (c *Config) BaseURL() string {
	switch {
	case strings.HasPrefix(c.AtlassianDomain, "https://"):
		return c.AtlassianDomain
	case strings.HasPrefix(c.AtlassianDomain, "http://"):
		return "https://" + strings.TrimPrefix(c.AtlassianDomain, "http://")
	default:
		return "https://" + c.AtlassianDomain
	}
}
