package core

import "unicode/utf8"

// SentenceChunker regroups an incremental token stream into chunks
// that are safe to hand to the synthesis engine: every emitted chunk
// ends on a punctuation or whitespace boundary, never mid-word.
type SentenceChunker struct {
	pending string
}

func isChunkDelimiter(r rune) bool {
	switch r {
	case ' ', '.', ',', '!', '?', ';', ':', '—', '\n':
		return true
	}
	return false
}

// Feed appends one fragment and returns zero or more completed chunks.
// A fragment that starts with a delimiter closes the pending chunk:
// the delimiter joins the pending text and the remainder starts fresh.
func (c *SentenceChunker) Feed(fragment string) []string {
	if fragment == "" {
		return nil
	}
	var out []string
	if c.pending != "" {
		if r, size := utf8.DecodeRuneInString(fragment); isChunkDelimiter(r) {
			out = append(out, c.pending+fragment[:size])
			c.pending = ""
			fragment = fragment[size:]
			if fragment == "" {
				return out
			}
		}
	}
	c.pending += fragment
	if r, _ := utf8.DecodeLastRuneInString(c.pending); isChunkDelimiter(r) {
		out = append(out, c.pending)
		c.pending = ""
	}
	return out
}

// Flush returns the trailing remainder at end of stream, if any.
func (c *SentenceChunker) Flush() (string, bool) {
	if c.pending == "" {
		return "", false
	}
	out := c.pending
	c.pending = ""
	return out, true
}
