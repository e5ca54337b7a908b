package scrape

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadChannelList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.txt")
	content := "# gardening channels\n\nEpic Gardening\n  Self Sufficient Me  \n\n# commented-out\n#Old Channel\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	channels, err := ReadChannelList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Epic Gardening", "Self Sufficient Me"}, channels)
}

func TestReadChannelList_MissingFile(t *testing.T) {
	_, err := ReadChannelList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestReadPromptTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Summarize this transcript.\n"), 0644))

	prompt, err := ReadPromptTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "Summarize this transcript.", prompt)
}

func TestReadPromptTemplate_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0644))

	_, err := ReadPromptTemplate(path)
	assert.Error(t, err)
}
