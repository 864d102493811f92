package translate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultTranslateModel = "gpt-4o-mini"

// OpenAITranslator translates through a chat completion. Streaming
// deltas map directly onto the pipeline's fragment feed.
type OpenAITranslator struct {
	client openai.Client
	model  string
}

func NewOpenAITranslator(apiKey, model string) *OpenAITranslator {
	if model == "" {
		model = defaultTranslateModel
	}
	return &OpenAITranslator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func translationPrompt(text, sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translation only.\n\n%s",
		sourceLang, targetLang, text,
	)
}

func (t *OpenAITranslator) params(text, sourceLang, targetLang string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: t.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(translationPrompt(text, sourceLang, targetLang)),
		},
	}
}

func (t *OpenAITranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := t.client.Chat.Completions.New(ctx, t.params(text, sourceLang, targetLang))
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (t *OpenAITranslator) TranslateStream(ctx context.Context, text, sourceLang, targetLang string) (<-chan string, <-chan error) {
	frags := make(chan string, 16)
	errs := make(chan error, 1)
	go func() {
		defer close(frags)
		defer close(errs)
		stream := t.client.Chat.Completions.NewStreaming(ctx, t.params(text, sourceLang, targetLang))
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case frags <- delta:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err := stream.Err(); err != nil && !errors.Is(err, io.EOF) {
			errs <- fmt.Errorf("openai stream: %w", err)
		}
	}()
	return frags, errs
}
