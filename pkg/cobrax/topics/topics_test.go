package topics

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"variants.md":        {Data: []byte("# Variants\n\nbasic and extended")},
		"option-dry-run.txt": {Data: []byte("Dry run help")},
		"nested/backups.md":  {Data: []byte("# Backups")},
		"ignore.json":        {Data: []byte("{}")},
	}
}

func TestTopicManager_ScanTopics(t *testing.T) {
	t.Run("default extensions", func(t *testing.T) {
		tm := New(testFS())
		require.NoError(t, tm.scanTopics())

		assert.Equal(t, []string{"backups", "option-dry-run", "variants"}, tm.ListTopics())
		topic, ok := tm.GetTopic("variants")
		require.True(t, ok)
		assert.Equal(t, "# Variants\n\nbasic and extended", topic.Content)
		assert.Equal(t, "variants.md", topic.FilePath)
	})

	t.Run("custom extensions", func(t *testing.T) {
		tm := NewWithOptions(testFS(), Options{Extensions: []string{".json"}})
		require.NoError(t, tm.scanTopics())
		assert.Equal(t, []string{"ignore"}, tm.ListTopics())
	})

	t.Run("no files", func(t *testing.T) {
		tm := New(nil)
		require.NoError(t, tm.scanTopics())
		assert.Empty(t, tm.ListTopics())
	})
}

func TestTopicManager_GetTopic(t *testing.T) {
	tm := New(testFS())
	require.NoError(t, tm.scanTopics())

	tests := []struct {
		input    string
		expected string
		exists   bool
	}{
		{"variants", "variants", true},
		{"option-dry-run", "option-dry-run", true},
		{"dry-run", "option-dry-run", true},
		{"--dry-run", "option-dry-run", true},
		{"-v", "", false},
		{"nonexistent", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			topic, exists := tm.GetTopic(tt.input)
			assert.Equal(t, tt.exists, exists)
			if exists {
				assert.Equal(t, tt.expected, topic.Name)
			}
		})
	}
}

func newTestRoot() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	root := &cobra.Command{Use: "app", Run: func(cmd *cobra.Command, args []string) {}}
	root.AddCommand(&cobra.Command{Use: "plan", Short: "Show the plan", Run: func(cmd *cobra.Command, args []string) {}})
	root.SetOut(&buf)
	root.SetErr(&buf)
	return root, &buf
}

func TestInitialize_HelpCommand(t *testing.T) {
	t.Run("topic", func(t *testing.T) {
		root, buf := newTestRoot()
		_, err := Initialize(root, testFS())
		require.NoError(t, err)

		root.SetArgs([]string{"help", "dry-run"})
		require.NoError(t, root.Execute())
		assert.Equal(t, "Dry run help", buf.String())
	})

	t.Run("topics list", func(t *testing.T) {
		root, buf := newTestRoot()
		_, err := Initialize(root, testFS())
		require.NoError(t, err)

		root.SetArgs([]string{"help", "topics"})
		require.NoError(t, root.Execute())
		out := buf.String()
		assert.Contains(t, out, "General topics:\n  backups\n  variants\n")
		assert.Contains(t, out, "Option topics:\n  --dry-run\n")
		assert.Contains(t, out, "Use 'app help <topic>'")
	})

	t.Run("command falls through", func(t *testing.T) {
		root, buf := newTestRoot()
		_, err := Initialize(root, testFS())
		require.NoError(t, err)

		root.SetArgs([]string{"help", "plan"})
		require.NoError(t, root.Execute())
		assert.Contains(t, buf.String(), "Show the plan")
	})
}

func TestPlainAndGlamourRenderers(t *testing.T) {
	assert.Equal(t, "x", (&PlainRenderer{}).Render("x", ".md"))

	r := NewGlamourRenderer()
	assert.Equal(t, "plain text", r.Render("plain text", ".txt"))
	assert.Contains(t, r.Render("# Title\n\nbody", ".md"), "Title")
}
