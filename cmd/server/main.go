package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/danielavelez12/crosstalk/internal/adapters/http"
	"github.com/danielavelez12/crosstalk/internal/adapters/ws"
	"github.com/danielavelez12/crosstalk/internal/app"
	"github.com/danielavelez12/crosstalk/internal/config"
	"github.com/danielavelez12/crosstalk/internal/store"
	"github.com/danielavelez12/crosstalk/internal/stt"
	"github.com/danielavelez12/crosstalk/internal/translate"
	"github.com/danielavelez12/crosstalk/internal/tts"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	var (
		transcriber stt.Transcriber
		translator  translate.Translator
		synth       tts.Synthesizer
		cloner      tts.VoiceCloner
	)
	if cfg.MockEngines() {
		log.Warn().Msg("running with mock engines; set API keys for real ones")
		mock := tts.NewMockSynthesizer(0)
		transcriber = stt.NewMockTranscriber(cfg.FrameSize, nil)
		translator = translate.NewMockTranslator(nil)
		synth = mock
		cloner = mock
	} else {
		transcriber = stt.NewSpeechmaticsClient(cfg.SpeechmaticsKey, cfg.SpeechmaticsURL)
		translator = translate.NewOpenAITranslator(cfg.OpenAIKey, cfg.TranslateModel)
		eleven := tts.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsWSURL, cfg.ElevenLabsURL, "")
		synth = eleven
		cloner = eleven
	}

	reg := app.NewRegistry()
	roster := app.NewRoster()
	pipeline := &app.Pipeline{
		Translator: translator,
		Synth:      synth,
		Fanout:     &app.Fanout{Out: reg, FrameSize: cfg.FrameSize},
	}
	relay := app.NewRelay(reg, roster, pipeline, transcriber, st, cfg.DefaultVoice, cfg.SampleRate)
	wsCtl := ws.NewController(relay, cfg.ReadLimit)

	r := router.SetupRouter(ctx, cfg, st, cloner, wsCtl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("crosstalk server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
