package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	speechmaticsDefaultURL = "wss://eu2.rt.speechmatics.com/v2"
	// Audio is pushed to the engine in fixed chunks pulled from the
	// ingest buffer.
	speechmaticsChunkSize = 1024
	speechmaticsMaxDelay  = 2
)

// SpeechmaticsClient speaks the Speechmatics realtime websocket
// protocol: StartRecognition, binary AddAudio frames, AddTranscript
// events back, EndOfStream on shutdown.
type SpeechmaticsClient struct {
	apiKey string
	url    string
	dialer *websocket.Dialer
}

func NewSpeechmaticsClient(apiKey, url string) *SpeechmaticsClient {
	if url == "" {
		url = speechmaticsDefaultURL
	}
	return &SpeechmaticsClient{
		apiKey: apiKey,
		url:    url,
		dialer: websocket.DefaultDialer,
	}
}

type smAudioFormat struct {
	Type       string `json:"type"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

type smTranscriptionConfig struct {
	Language string `json:"language"`
	MaxDelay int    `json:"max_delay"`
}

type smStartRecognition struct {
	Message             string                `json:"message"`
	AudioFormat         smAudioFormat         `json:"audio_format"`
	TranscriptionConfig smTranscriptionConfig `json:"transcription_config"`
}

type smServerMessage struct {
	Message  string `json:"message"`
	Reason   string `json:"reason,omitempty"`
	Metadata struct {
		Transcript string `json:"transcript"`
	} `json:"metadata"`
}

func (c *SpeechmaticsClient) Stream(ctx context.Context, cfg StreamConfig, src AudioSource, onFragment func(string)) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)

	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("speechmatics dial: %w", err)
	}
	defer conn.Close()

	start := smStartRecognition{
		Message: "StartRecognition",
		AudioFormat: smAudioFormat{
			Type:       "raw",
			Encoding:   "pcm_f32le",
			SampleRate: cfg.SampleRate,
		},
		TranscriptionConfig: smTranscriptionConfig{
			Language: cfg.Language,
			MaxDelay: speechmaticsMaxDelay,
		},
	}
	if err := conn.WriteJSON(start); err != nil {
		return fmt.Errorf("speechmatics start: %w", err)
	}

	// Audio writer runs independently of transcript reads: both sides
	// of the engine socket are active at once.
	var wg sync.WaitGroup
	writeErr := make(chan error, 1)
	var writeMu sync.Mutex // guards conn writes between pump and EndOfStream

	wg.Add(1)
	go func() {
		defer wg.Done()
		seq := 0
		for {
			pcm, err := src.Read(ctx, speechmaticsChunkSize)
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			if err != nil {
				writeErr <- err
				return
			}
			seq++
			writeMu.Lock()
			err = conn.WriteMessage(websocket.BinaryMessage, pcm)
			writeMu.Unlock()
			if err != nil {
				writeErr <- fmt.Errorf("speechmatics add audio: %w", err)
				return
			}
		}
		writeMu.Lock()
		_ = conn.WriteJSON(map[string]any{"message": "EndOfStream", "last_seq_no": seq})
		writeMu.Unlock()
	}()

	stop := context.AfterFunc(ctx, func() {
		// Unblocks the read loop below.
		_ = conn.Close()
	})
	defer stop()

	var readErr error
	for {
		var msg smServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				readErr = fmt.Errorf("speechmatics read: %w", err)
			}
			break
		}
		switch msg.Message {
		case "AddTranscript":
			if msg.Metadata.Transcript != "" {
				onFragment(msg.Metadata.Transcript)
			}
		case "EndOfTranscript":
			readErr = nil
			goto done
		case "Error":
			readErr = fmt.Errorf("speechmatics: %s", msg.Reason)
			goto done
		default:
			// RecognitionStarted, AudioAdded, Info: nothing to do.
		}
	}
done:
	wg.Wait()
	select {
	case err := <-writeErr:
		if readErr == nil && ctx.Err() == nil {
			readErr = err
		}
	default:
	}
	if readErr != nil {
		log.Error().Err(readErr).Str("module", "stt.speechmatics").Msg("stream ended with error")
	}
	return readErr
}
