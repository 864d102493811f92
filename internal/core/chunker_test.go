package core

import (
	"reflect"
	"testing"
)

func collectChunks(fragments []string) []string {
	var c SentenceChunker
	var out []string
	for _, f := range fragments {
		out = append(out, c.Feed(f)...)
	}
	if rest, ok := c.Flush(); ok {
		out = append(out, rest)
	}
	return out
}

func TestChunkerFlushesOnDelimiterBoundary(t *testing.T) {
	got := collectChunks([]string{"Hel", "lo, ", "world."})
	want := []string{"Hello, ", "world."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestChunkerDelimiterPrefixClosesPending(t *testing.T) {
	got := collectChunks([]string{"Hola", ", que tal"})
	want := []string{"Hola,", " que tal"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestChunkerTrailingRemainder(t *testing.T) {
	got := collectChunks([]string{"no ending"})
	want := []string{"no ending"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestChunkerEmptyStream(t *testing.T) {
	if got := collectChunks(nil); len(got) != 0 {
		t.Fatalf("expected no chunks, got %q", got)
	}
}
