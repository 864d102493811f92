package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	ReadLimit  int64  `mapstructure:"read_limit"`
	Secret     string `mapstructure:"secret"`

	DBPath     string `mapstructure:"db_path"`
	SampleRate int    `mapstructure:"sample_rate"`
	FrameSize  int    `mapstructure:"frame_size"`

	SpeechmaticsKey string `mapstructure:"speechmatics_key"`
	SpeechmaticsURL string `mapstructure:"speechmatics_url"`

	OpenAIKey      string `mapstructure:"openai_key"`
	TranslateModel string `mapstructure:"translate_model"`

	ElevenLabsKey   string `mapstructure:"elevenlabs_key"`
	ElevenLabsWSURL string `mapstructure:"elevenlabs_ws_url"`
	ElevenLabsURL   string `mapstructure:"elevenlabs_url"`
	DefaultVoice    string `mapstructure:"default_voice"`
}

// MockEngines reports whether to run against in-process mock
// collaborators instead of the real ones: any missing API key keeps
// the whole pipeline local.
func (c *Config) MockEngines() bool {
	return c.SpeechmaticsKey == "" || c.OpenAIKey == "" || c.ElevenLabsKey == ""
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 131072)
	v.SetDefault("db_path", "./data/crosstalk.db")
	v.SetDefault("sample_rate", 16000)
	v.SetDefault("frame_size", 1024)
	v.SetDefault("translate_model", "gpt-4o-mini")

	// Secrets come from the environment, never the yaml file.
	_ = v.BindEnv("speechmatics_key", "SPEECHMATICS_API_KEY")
	_ = v.BindEnv("openai_key", "OPENAI_API_KEY")
	_ = v.BindEnv("elevenlabs_key", "ELEVENLABS_API_KEY")
	_ = v.BindEnv("default_voice", "ELEVENLABS_DEFAULT_VOICE")
	_ = v.BindEnv("secret", "CROSSTALK_SECRET")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Bool("mock_engines", cfg.MockEngines()).Msg("config ready")
	return &cfg, nil
}
