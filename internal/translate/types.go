// Package translate abstracts the text-translation engine.
package translate

import "context"

// Translator converts text between languages. TranslateStream yields
// incremental fragments as the engine produces them; the fragment
// channel closes at end of stream and the error channel carries at
// most one error.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	TranslateStream(ctx context.Context, text, sourceLang, targetLang string) (<-chan string, <-chan error)
}
