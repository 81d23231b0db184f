// Package preflight enforces the wrong-site guardrails: a committed
// client.config.json declares which WordPress install this repo is
// allowed to publish to, and nothing goes live until the configured
// target matches it.
package preflight

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/schema"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/safeio"
)

// DefaultClientConfigPath is the committed per-client guardrail file.
const DefaultClientConfigPath = "client.config.json"

// ClientConfig declares the expected publishing target for one client
// repo, plus per-client link aliases and protected markers.
type ClientConfig struct {
	SchemaVersion          int                 `json:"schemaVersion"`
	ClientName             string              `json:"clientName"`
	ExpectedWpSiteURL      string              `json:"expectedWpSiteUrl"`
	ExpectedWpSiteHost     string              `json:"expectedWpSiteHost"`
	ExpectedWpSiteName     string              `json:"expectedWpSiteName"`
	Environment            string              `json:"environment"`
	LinkAliases            map[string]string   `json:"linkAliases"`
	ProtectedMarkersBySlug map[string][]string `json:"protectedMarkersBySlug"`
}

// MarkersForSlug returns the protected markers declared for a slug.
func (c *ClientConfig) MarkersForSlug(slug string) []string {
	if c.ProtectedMarkersBySlug == nil {
		return nil
	}
	return c.ProtectedMarkersBySlug[slug]
}

// MismatchError is a failed guardrail comparison.
type MismatchError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	actual := e.Actual
	if actual == "" {
		actual = "(none)"
	}
	return fmt.Sprintf("%s mismatch: expected %s but got %s", e.Field, e.Expected, actual)
}

// LoadClientConfig reads and schema-validates the client config. The
// host field must agree with the URL's host so a bad edit cannot
// silently disable one of the two checks.
func LoadClientConfig(path string) (*ClientConfig, error) {
	if path == "" {
		path = DefaultClientConfigPath
	}
	data, err := safeio.ReadFileContained(".", path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("missing client config %s, create it from client.config.example.json", path)
		}
		return nil, err
	}

	result, err := schema.Validate(schema.ClientConfig, data)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	if !result.Valid {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Path+": "+e.Message)
		}
		return nil, fmt.Errorf("%s failed schema validation: %s", path, strings.Join(msgs, "; "))
	}

	var cfg ClientConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.ExpectedWpSiteURL = strings.TrimRight(cfg.ExpectedWpSiteURL, "/")
	cfg.ExpectedWpSiteHost = strings.ToLower(cfg.ExpectedWpSiteHost)

	if parsed, err := url.Parse(cfg.ExpectedWpSiteURL); err == nil && parsed.Hostname() != "" && cfg.ExpectedWpSiteHost != "" {
		if strings.ToLower(parsed.Hostname()) != cfg.ExpectedWpSiteHost {
			return nil, &MismatchError{
				Field:    "expectedWpSiteHost",
				Expected: strings.ToLower(parsed.Hostname()),
				Actual:   cfg.ExpectedWpSiteHost,
			}
		}
	}
	return &cfg, nil
}

// CheckTarget verifies the configured site URL and host against the
// client config. Both comparisons run so one bad field cannot hide
// behind the other.
func (c *ClientConfig) CheckTarget(siteURL string) error {
	var errs []error
	actual := strings.TrimRight(siteURL, "/")
	if actual != c.ExpectedWpSiteURL {
		errs = append(errs, &MismatchError{Field: "WP_SITE_URL", Expected: c.ExpectedWpSiteURL, Actual: actual})
	}
	parsed, err := url.Parse(actual)
	if err != nil {
		errs = append(errs, fmt.Errorf("parsing site url %q: %w", siteURL, err))
	} else if host := strings.ToLower(parsed.Hostname()); host != c.ExpectedWpSiteHost {
		errs = append(errs, &MismatchError{Field: "WP host", Expected: c.ExpectedWpSiteHost, Actual: host})
	}
	return errors.Join(errs...)
}
