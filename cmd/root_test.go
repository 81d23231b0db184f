package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
)

func newTestRoot() (*cobra.Command, *bytes.Buffer) {
	root := newRootCommand()
	registerSubcommands(root)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	return root, out
}

func TestVersionCommand(t *testing.T) {
	root, out := newTestRoot()
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "publisher")
}

func TestParseStatus(t *testing.T) {
	cases := map[string]content.Status{
		"draft":   content.StatusDraft,
		"PUBLISH": content.StatusPublish,
		"pending": content.StatusPending,
		"private": content.StatusPrivate,
	}
	for in, want := range cases {
		got, err := parseStatus(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := parseStatus("trash")
	assert.Error(t, err)
}

func TestInferType(t *testing.T) {
	ct, err := inferType("", "content/pages/about.json")
	require.NoError(t, err)
	assert.Equal(t, content.TypePage, ct)

	ct, err = inferType("", "content/posts/owl-care.json")
	require.NoError(t, err)
	assert.Equal(t, content.TypePost, ct)

	ct, err = inferType("pages", "anything")
	require.NoError(t, err)
	assert.Equal(t, content.TypePage, ct)

	_, err = inferType("widgets", "anything")
	assert.Error(t, err)
}
