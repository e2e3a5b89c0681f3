package services

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// TextChunker splits guidance documents into embedding-sized pieces.
type TextChunker interface {
	Chunk(text string, size, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// Chunk packs paragraphs into chunks of at most size runes. Paragraphs longer
// than size are split on sentence ends first. Each chunk after the first starts
// with the last overlap runes of its predecessor.
func (c *textChunker) Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}

	var pieces []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= size {
			pieces = append(pieces, para)
			continue
		}
		for _, sentence := range splitSentences(para) {
			pieces = append(pieces, splitRunes(sentence, size)...)
		}
	}

	var (
		chunks []string
		buf    strings.Builder
		length int
		fresh  bool
	)
	emit := func() {
		chunk := buf.String()
		chunks = append(chunks, chunk)
		tail := lastRunes(chunk, overlap)
		buf.Reset()
		buf.WriteString(tail)
		length = utf8.RuneCountInString(tail)
		fresh = false
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if fresh && length+2+n > size {
			emit()
		}
		if length > 0 && length+2+n > size {
			// The overlap tail does not fit next to this piece.
			buf.Reset()
			length = 0
		}
		if length > 0 {
			buf.WriteString("\n\n")
			length += 2
		}
		buf.WriteString(piece)
		length += n
		fresh = true
	}
	if fresh {
		chunks = append(chunks, buf.String())
	}

	return chunks
}

// splitSentences keeps the terminating punctuation with each sentence.
func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}
	var out []string
	for len(runes) > 0 {
		n := min(size, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
