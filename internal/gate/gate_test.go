package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
)

const validBody = `<h2 id="setup">Setup</h2>
<p>Some text with a marker countdown-widget-v2 inside.</p>
<figure><img src="a.jpg" class="wp-image-101"/></figure>
<figure><img src="b.jpg" class="wp-image-102"/></figure>`

func subject() *Subject {
	return &Subject{
		Item: &content.Item{
			Slug:             "setup-guide",
			FeaturedMediaID:  900,
			ProtectedMarkers: []string{"countdown-widget-v2"},
		},
		Body: validBody,
	}
}

func ruleNames(failures []Failure) []string {
	names := make([]string, 0, len(failures))
	for _, f := range failures {
		names = append(names, f.Rule)
	}
	return names
}

func TestRunPassesCleanSubject(t *testing.T) {
	result := Run(subject(), Options{})
	assert.True(t, result.Passed)
	assert.Empty(t, result.Failures)
}

func TestRunCollectsAllFailures(t *testing.T) {
	s := subject()
	// No headings, no images, a stray placeholder, marker gone,
	// featured image in the body: five rules break at once.
	s.Body = `<p>{{link:contact}}</p><figure><img class="wp-image-900"/></figure>`

	result := Run(s, Options{})
	require.False(t, result.Passed)
	names := ruleNames(result.Failures)
	assert.Contains(t, names, "UnresolvedPlaceholders")
	assert.Contains(t, names, "ImageCountBounds")
	assert.Contains(t, names, "FeaturedImageNotDuplicatedInBody")
	assert.Contains(t, names, "HeadingStructurePresent")
	assert.Contains(t, names, "ProtectedMarkersPresent")
}

func TestUnresolvedPlaceholdersListsSlugs(t *testing.T) {
	s := subject()
	s.Unresolved = []string{"contact"}

	result := Run(s, Options{})
	require.False(t, result.Passed)
	found := false
	for _, f := range result.Failures {
		if f.Rule == "UnresolvedPlaceholders" {
			assert.Contains(t, f.Message, "contact")
			found = true
		}
	}
	assert.True(t, found)
}

func TestImageCountBounds(t *testing.T) {
	s := subject()
	result := Run(s, Options{MinImages: 3})
	require.False(t, result.Passed)
	assert.Contains(t, ruleNames(result.Failures), "ImageCountBounds")

	// Featured image id does not count toward the in-body total.
	s.Body = validBody + `<figure><img class="wp-image-900"/></figure>`
	s.Item.ProtectedMarkers = nil
	result = Run(s, Options{MinImages: 3})
	assert.Contains(t, ruleNames(result.Failures), "ImageCountBounds")
}

func TestFaqCountExactIsOptIn(t *testing.T) {
	s := subject()
	// No FAQ section at all: without enforcement this passes.
	assert.True(t, Run(s, Options{}).Passed)

	result := Run(s, Options{FaqCountExact: 5})
	require.False(t, result.Passed)
	assert.Contains(t, ruleNames(result.Failures), "FaqCountExact")
}

func TestFaqCountExactMatch(t *testing.T) {
	s := subject()
	s.Body = validBody + `
<section class="faq-section">
<h2>Frequently Asked Questions</h2>
<h3>Q1?</h3><p>A1</p>
<h3>Q2?</h3><p>A2</p>
</section>`
	assert.True(t, Run(s, Options{FaqCountExact: 2}).Passed)
	assert.False(t, Run(s, Options{FaqCountExact: 3}).Passed)
}
