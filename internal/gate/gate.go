// Package gate runs the named validation checks that decide whether
// mutated content may go live. Checks never fail fast: every rule runs
// and every failure is collected so the operator sees the complete
// list in one report.
package gate

import (
	"fmt"
	"strings"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/links"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/markup"
)

// Subject is the normalized, mutated content under validation.
type Subject struct {
	Item *content.Item
	Body string
	// Unresolved carries the slugs the link resolution step could not
	// map, when that step ran.
	Unresolved []string
}

// Options tunes the rule set per deployment.
type Options struct {
	MinImages int
	MaxImages int
	// FaqCountExact enforces an exact visible question count when set.
	// Zero means no enforcement.
	FaqCountExact int
}

func (o Options) withDefaults() Options {
	if o.MinImages == 0 {
		o.MinImages = 2
	}
	if o.MaxImages == 0 {
		o.MaxImages = 4
	}
	return o
}

// Failure is one rule violation.
type Failure struct {
	Rule    string
	Message string
}

func (f Failure) String() string {
	return f.Rule + ": " + f.Message
}

// Result is the verdict for one subject.
type Result struct {
	Passed   bool
	Failures []Failure
}

// Check is one named validation rule.
type Check interface {
	Name() string
	Run(s *Subject, opts Options) []Failure
}

// DefaultChecks returns the standard rule set in execution order.
func DefaultChecks() []Check {
	return []Check{
		unresolvedPlaceholders{},
		imageCountBounds{},
		featuredImageNotDuplicatedInBody{},
		headingStructurePresent{},
		faqCountExact{},
		protectedMarkersPresent{},
	}
}

// Run executes every check against the subject and collects all
// failures. An empty check list means the default set.
func Run(s *Subject, opts Options, checks ...Check) *Result {
	opts = opts.withDefaults()
	if len(checks) == 0 {
		checks = DefaultChecks()
	}
	result := &Result{Passed: true}
	for _, check := range checks {
		result.Failures = append(result.Failures, check.Run(s, opts)...)
	}
	result.Passed = len(result.Failures) == 0
	return result
}

type unresolvedPlaceholders struct{}

func (unresolvedPlaceholders) Name() string { return "UnresolvedPlaceholders" }

func (c unresolvedPlaceholders) Run(s *Subject, _ Options) []Failure {
	seen := map[string]bool{}
	var slugs []string
	for _, slug := range append(append([]string{}, s.Unresolved...), links.Placeholders(s.Body)...) {
		if !seen[slug] {
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}
	if len(slugs) == 0 {
		return nil
	}
	return []Failure{{
		Rule:    c.Name(),
		Message: fmt.Sprintf("unresolved internal link placeholder(s): %s", strings.Join(slugs, ", ")),
	}}
}

type imageCountBounds struct{}

func (imageCountBounds) Name() string { return "ImageCountBounds" }

func (c imageCountBounds) Run(s *Subject, opts Options) []Failure {
	count := 0
	for _, id := range markup.InBodyImageIDs(s.Body) {
		if id != s.Item.FeaturedMediaID {
			count++
		}
	}
	switch {
	case count < opts.MinImages:
		return []Failure{{c.Name(), fmt.Sprintf("too few in-body images (%d), expected at least %d", count, opts.MinImages)}}
	case count > opts.MaxImages:
		return []Failure{{c.Name(), fmt.Sprintf("too many in-body images (%d), expected at most %d", count, opts.MaxImages)}}
	}
	return nil
}

type featuredImageNotDuplicatedInBody struct{}

func (featuredImageNotDuplicatedInBody) Name() string { return "FeaturedImageNotDuplicatedInBody" }

func (c featuredImageNotDuplicatedInBody) Run(s *Subject, _ Options) []Failure {
	if s.Item.FeaturedMediaID == 0 {
		return nil
	}
	for _, id := range markup.InBodyImageIDs(s.Body) {
		if id == s.Item.FeaturedMediaID {
			return []Failure{{c.Name(), fmt.Sprintf("featured image %d also appears in the body", id)}}
		}
	}
	return nil
}

type headingStructurePresent struct{}

func (headingStructurePresent) Name() string { return "HeadingStructurePresent" }

func (c headingStructurePresent) Run(s *Subject, _ Options) []Failure {
	if markup.HasLevel2Heading(s.Body) {
		return nil
	}
	return []Failure{{c.Name(), "no level-2 heading found in body"}}
}

type faqCountExact struct{}

func (faqCountExact) Name() string { return "FaqCountExact" }

func (c faqCountExact) Run(s *Subject, opts Options) []Failure {
	if opts.FaqCountExact == 0 {
		return nil
	}
	got := markup.FAQQuestionCount(s.Body)
	if got == opts.FaqCountExact {
		return nil
	}
	return []Failure{{c.Name(), fmt.Sprintf("FAQ question count is %d, expected exactly %d", got, opts.FaqCountExact)}}
}

type protectedMarkersPresent struct{}

func (protectedMarkersPresent) Name() string { return "ProtectedMarkersPresent" }

func (c protectedMarkersPresent) Run(s *Subject, _ Options) []Failure {
	var failures []Failure
	for _, marker := range s.Item.ProtectedMarkers {
		if !strings.Contains(s.Body, marker) {
			failures = append(failures, Failure{c.Name(), fmt.Sprintf("protected marker %q missing from body", marker)})
		}
	}
	return failures
}
