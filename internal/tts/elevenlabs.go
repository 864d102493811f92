package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	elevenDefaultWSURL  = "wss://api.elevenlabs.io"
	elevenDefaultAPIURL = "https://api.elevenlabs.io"
	elevenDefaultModel  = "eleven_multilingual_v2"
	elevenWriteDeadline = 5 * time.Second
	elevenCloneTimeout  = 60 * time.Second
)

// ElevenLabsClient talks to the ElevenLabs streaming TTS API
// (stream-input websocket) and the voice-clone REST endpoint.
type ElevenLabsClient struct {
	apiKey string
	wsURL  string
	apiURL string
	model  string
	http   *http.Client
	dialer *websocket.Dialer
}

func NewElevenLabsClient(apiKey, wsURL, apiURL, model string) *ElevenLabsClient {
	if wsURL == "" {
		wsURL = elevenDefaultWSURL
	}
	if apiURL == "" {
		apiURL = elevenDefaultAPIURL
	}
	if model == "" {
		model = elevenDefaultModel
	}
	return &ElevenLabsClient{
		apiKey: apiKey,
		wsURL:  wsURL,
		apiURL: apiURL,
		model:  model,
		http:   &http.Client{Timeout: elevenCloneTimeout},
		dialer: websocket.DefaultDialer,
	}
}

type elevenStream struct {
	conn  *websocket.Conn
	audio chan []byte

	mu  sync.Mutex
	err error

	readDone chan struct{}
}

type elevenInbound struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *ElevenLabsClient) OpenStream(ctx context.Context, voiceID string) (Stream, error) {
	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream-input?model_id=%s", c.wsURL, voiceID, c.model)
	header := http.Header{}
	header.Set("xi-api-key", c.apiKey)

	conn, _, err := c.dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs dial: %w", err)
	}

	// Opening message: a lone space primes the stream.
	open := map[string]any{
		"text": " ",
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.8,
		},
	}
	if err := conn.WriteJSON(open); err != nil {
		conn.Close()
		return nil, fmt.Errorf("elevenlabs open: %w", err)
	}

	s := &elevenStream{
		conn:     conn,
		audio:    make(chan []byte, 16),
		readDone: make(chan struct{}),
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	go func() {
		defer close(s.audio)
		defer close(s.readDone)
		defer stop()
		defer conn.Close()
		for {
			var in elevenInbound
			if err := conn.ReadJSON(&in); err != nil {
				if ctx.Err() != nil {
					s.setErr(ctx.Err())
				} else {
					s.setErr(fmt.Errorf("elevenlabs read: %w", err))
				}
				return
			}
			if in.Error != "" {
				s.setErr(fmt.Errorf("elevenlabs: %s: %s", in.Error, in.Message))
				return
			}
			if in.Audio != "" {
				pcm, err := base64.StdEncoding.DecodeString(in.Audio)
				if err != nil {
					s.setErr(fmt.Errorf("elevenlabs audio decode: %w", err))
					return
				}
				select {
				case s.audio <- pcm:
				case <-ctx.Done():
					s.setErr(ctx.Err())
					return
				}
			}
			if in.IsFinal {
				return
			}
		}
	}()

	return s, nil
}

func (s *elevenStream) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Send feeds one text chunk. The trailing space keeps the engine from
// waiting for more context before speaking.
func (s *elevenStream) Send(_ context.Context, text string) error {
	if text == "" {
		return nil
	}
	if !strings.HasSuffix(text, " ") {
		text += " "
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(elevenWriteDeadline))
	if err := s.conn.WriteJSON(map[string]any{"text": text, "try_trigger_generation": true}); err != nil {
		return fmt.Errorf("elevenlabs send: %w", err)
	}
	return nil
}

// CloseSend ends the text feed with the protocol's empty-text marker
// and waits until the engine finishes pushing audio back.
func (s *elevenStream) CloseSend(ctx context.Context) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(elevenWriteDeadline))
	if err := s.conn.WriteJSON(map[string]any{"text": ""}); err != nil {
		return fmt.Errorf("elevenlabs close send: %w", err)
	}
	select {
	case <-s.readDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *elevenStream) Audio() <-chan []byte { return s.audio }

func (s *elevenStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CreateVoice uploads a recorded sample to the instant voice clone
// endpoint and returns the engine voice id.
func (c *ElevenLabsClient) CreateVoice(ctx context.Context, name string, sample io.Reader, filename string) (string, error) {
	var body strings.Builder
	w := multipart.NewWriter(&body)
	if err := w.WriteField("name", name); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("files", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, sample); err != nil {
		return "", fmt.Errorf("elevenlabs clone sample: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/voices/add", strings.NewReader(body.String()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("elevenlabs clone: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("elevenlabs clone: status %d: %s", resp.StatusCode, b)
	}

	var out struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("elevenlabs clone decode: %w", err)
	}
	if out.VoiceID == "" {
		return "", fmt.Errorf("elevenlabs clone: empty voice_id")
	}
	log.Info().Str("module", "tts.elevenlabs").Str("voice", out.VoiceID).Str("name", name).Msg("voice cloned")
	return out.VoiceID, nil
}
