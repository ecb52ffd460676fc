package services

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// ChunkSplitter splits extracted text into bounded-size chunks. Splitting
// is deterministic for identical text and policy, which the detail view
// relies on when it re-derives chunks from stored bytes.
type ChunkSplitter struct {
	splitter textsplitter.RecursiveCharacter
}

func NewChunkSplitter(chunkSize, chunkOverlap int) *ChunkSplitter {
	return &ChunkSplitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split joins the extracted segments and produces ordered chunks. Empty
// input yields no chunks.
func (cs *ChunkSplitter) Split(segments []string) ([]string, error) {
	text := strings.TrimSpace(strings.Join(segments, "\n\n"))
	if text == "" {
		return nil, nil
	}

	chunks, err := cs.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
