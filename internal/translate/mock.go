package translate

import "context"

type mockTranslator struct {
	apply func(text, sourceLang, targetLang string) string
}

// NewMockTranslator translates without any engine. A nil apply echoes
// the input unchanged.
func NewMockTranslator(apply func(text, sourceLang, targetLang string) string) Translator {
	if apply == nil {
		apply = func(text, _, _ string) string { return text }
	}
	return &mockTranslator{apply: apply}
}

func (m *mockTranslator) Translate(_ context.Context, text, sourceLang, targetLang string) (string, error) {
	return m.apply(text, sourceLang, targetLang), nil
}

func (m *mockTranslator) TranslateStream(ctx context.Context, text, sourceLang, targetLang string) (<-chan string, <-chan error) {
	frags := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		defer close(frags)
		defer close(errs)
		select {
		case frags <- m.apply(text, sourceLang, targetLang):
		case <-ctx.Done():
			errs <- ctx.Err()
		}
	}()
	return frags, errs
}
