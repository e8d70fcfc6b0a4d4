package retrieval

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// separators in priority order: split on section headings first, then
// paragraphs, then words.
var separators = []string{"\n## ", "\n### ", "\n", " "}

// IngestDir walks dir for markdown files, splits them into overlapping
// chunks, and indexes each chunk with the file path as its source.
// Returns the number of chunks indexed.
func (s *Store) IngestDir(ctx context.Context, dir string) (int, error) {
	total := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}

		chunks := splitText(string(data), chunkSize, chunkOverlap)
		for _, chunk := range chunks {
			if err := s.Add(ctx, Passage{Text: chunk, Source: rel}); err != nil {
				return err
			}
		}
		total += len(chunks)
		s.log.Info().Str("file", rel).Int("chunks", len(chunks)).Msg("indexed document")
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("ingest %s: %w", dir, err)
	}
	return total, nil
}

// splitText recursively splits text into chunks of at most size runes,
// preferring natural boundaries and keeping overlap runes of trailing
// context between consecutive chunks.
func splitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	parts := splitBySeparators(text, separators)

	var chunks []string
	var current strings.Builder
	for _, part := range parts {
		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(part)) > size {
			chunk := strings.TrimSpace(current.String())
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			tail := tailRunes(current.String(), overlap)
			current.Reset()
			current.WriteString(tail)
		}
		current.WriteString(part)
	}
	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitBySeparators breaks text on the first separator that appears,
// recursing with the remaining separators for oversized fragments.
func splitBySeparators(text string, seps []string) []string {
	if len(seps) == 0 {
		return []string{text}
	}
	sep := seps[0]
	if !strings.Contains(text, sep) {
		return splitBySeparators(text, seps[1:])
	}

	var out []string
	pieces := strings.Split(text, sep)
	for i, piece := range pieces {
		if i > 0 {
			piece = sep + piece
		}
		if len([]rune(piece)) > chunkSize {
			out = append(out, splitBySeparators(piece, seps[1:])...)
		} else {
			out = append(out, piece)
		}
	}
	return out
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
