// Package schema embeds and compiles the JSON Schemas that guard the
// tool's two JSON input surfaces: content item files and the committed
// client config.
package schema

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Known schema names.
const (
	ContentItem  = "content-item"
	ClientConfig = "client-config"
)

// ValidationError represents a single schema violation.
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Result holds the outcome of validating a document against a schema.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

var (
	registry map[string]*gojsonschema.Schema
	regOnce  sync.Once
	regErr   error
)

func compileRegistry() {
	registry = make(map[string]*gojsonschema.Schema)
	for _, name := range []string{ContentItem, ClientConfig} {
		data, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			regErr = fmt.Errorf("read embedded schema %s: %w", name, err)
			return
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			regErr = fmt.Errorf("compile embedded schema %s: %w", name, err)
			return
		}
		registry[name] = compiled
	}
}

// Validate checks a raw JSON document against a named embedded schema.
func Validate(name string, document []byte) (*Result, error) {
	regOnce.Do(compileRegistry)
	if regErr != nil {
		return nil, regErr
	}
	compiled, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema: %s", name)
	}

	res, err := compiled.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", name, err)
	}

	out := &Result{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Path:    e.Field(),
			Message: e.Description(),
		})
	}
	// Stable ordering keeps operator-facing reports deterministic.
	sort.Slice(out.Errors, func(i, j int) bool {
		if out.Errors[i].Path != out.Errors[j].Path {
			return out.Errors[i].Path < out.Errors[j].Path
		}
		return out.Errors[i].Message < out.Errors[j].Message
	})
	return out, nil
}
