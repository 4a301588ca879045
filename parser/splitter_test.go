package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSectionsKeepsSmallSectionsWhole(t *testing.T) {
	text := "Intro text.\n## Security\nWe encrypt everything.\n## Support\n24/7 coverage."

	chunks := SplitSections(text, 4000, 500)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Intro text.", chunks[0])
	assert.Equal(t, "## Security\nWe encrypt everything.", chunks[1])
	assert.Equal(t, "## Support\n24/7 coverage.", chunks[2])
}

func TestSplitSectionsWindowsOversizedSection(t *testing.T) {
	content := strings.Repeat("a", 10500)

	chunks := SplitSections(content, 4000, 500)

	require.Len(t, chunks, 3)
	assert.Equal(t, content[0:4000], chunks[0])
	assert.Equal(t, content[3500:7500], chunks[1])
	assert.Equal(t, content[7000:10500], chunks[2])
}

func TestSplitSectionsNeverExceedsThreshold(t *testing.T) {
	text := "Preamble " + strings.Repeat("x", 9000) +
		"\n## Long\n" + strings.Repeat("y", 6500) +
		"\n## Short\ndone"

	chunks := SplitSections(text, 4000, 500)

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 4000, "chunk %d", i)
	}
}

func TestSplitSectionsSkipsBlankSections(t *testing.T) {
	text := "\n## \n   \n## Real\ncontent"

	chunks := SplitSections(text, 4000, 500)

	require.Len(t, chunks, 1)
	assert.Equal(t, "## Real\ncontent", chunks[0])
}

func TestSplitSectionsEmptyInput(t *testing.T) {
	assert.Empty(t, SplitSections("", 4000, 500))
	assert.Empty(t, SplitSections("   \n  ", 4000, 500))
}
