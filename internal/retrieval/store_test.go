package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSearchEmptyCorpus(t *testing.T) {
	s := newTestStore(t)
	results, err := s.Search(context.Background(), "baggage allowance", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAddAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, Passage{
		Text:   "Economy passengers may check in two pieces of baggage up to 23 kg each.",
		Source: "baggage-policy.md",
	}))
	require.NoError(t, s.Add(ctx, Passage{
		Text:   "Web check-in opens 48 hours before departure.",
		Source: "checkin.md",
	}))

	results, err := s.Search(ctx, "baggage allowance for economy", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "baggage-policy.md", results[0].Source)
	assert.Contains(t, results[0].Text, "23 kg")
}

func TestSearchLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Add(ctx, Passage{Text: "baggage rules section", Source: "doc.md"}))
	}

	results, err := s.Search(ctx, "baggage", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchPunctuationSafe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, Passage{Text: "pets travel in the cabin", Source: "pets.md"}))

	// Quotes and FTS operators in user input must not break the query.
	results, err := s.Search(ctx, `"pets" AND (cabin)?!`, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestBuildMatchQuery(t *testing.T) {
	assert.Equal(t, `"baggage" OR "rules"`, buildMatchQuery("baggage rules"))
	assert.Equal(t, "", buildMatchQuery("  ?! ,,"))
}

func TestSplitTextShort(t *testing.T) {
	chunks := splitText("a short document", chunkSize, chunkOverlap)
	assert.Equal(t, []string{"a short document"}, chunks)
}

func TestSplitTextSectionBoundaries(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString("\n## Section\n")
		b.WriteString(strings.Repeat("policy detail sentence. ", 20))
	}
	chunks := splitText(b.String(), chunkSize, chunkOverlap)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), chunkSize+chunkOverlap)
	}
}

func TestIngestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "baggage.md"),
		[]byte("## Baggage\nTwo pieces up to 23 kg for economy."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not markdown, must be skipped"), 0o644))

	s := newTestStore(t)
	n, err := s.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := s.Search(context.Background(), "baggage economy", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "baggage.md", results[0].Source)
}
