package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AvailableVoices is the fixed set of voices the speech service accepts.
var AvailableVoices = []string{
	"alloy", "ash", "ballad", "coral", "echo",
	"fable", "onyx", "nova", "sage", "shimmer",
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	TTSModel string `yaml:"tts_model"`
	BaseURL  string `yaml:"base_url"`
	Mock     bool   `yaml:"mock"`
}

type VoicesConfig struct {
	Host            string `yaml:"host"`
	HostInstruction string `yaml:"host_instruction"`
	Guest           string `yaml:"guest"`
}

type AudioConfig struct {
	SilenceMinMS int    `yaml:"silence_min_ms"`
	SilenceMaxMS int    `yaml:"silence_max_ms"`
	SampleRate   int    `yaml:"sample_rate"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type StoreConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	MaxEpisodes int    `yaml:"max_episodes"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type Config struct {
	AppName   string          `yaml:"app_name"`
	Turns     int             `yaml:"turns"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Voices    VoicesConfig    `yaml:"voices"`
	Audio     AudioConfig     `yaml:"audio"`
	Output    OutputConfig    `yaml:"output"`
	Store     StoreConfig     `yaml:"store"`
	Bus       BusConfig       `yaml:"bus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AudioDir is where per-clip temp files are written.
func (c Config) AudioDir() string { return filepath.Join(c.Output.Dir, "audio") }

// TranscriptDir is where episode transcripts are written.
func (c Config) TranscriptDir() string { return filepath.Join(c.Output.Dir, "transcripts") }

func Default() Config {
	return Config{
		AppName: "pedantalk",
		Turns:   20,
		OpenAI: OpenAIConfig{
			Model:    "gpt-4o",
			TTSModel: "tts-1",
		},
		Voices: VoicesConfig{
			Host: "nova",
		},
		Audio: AudioConfig{
			SilenceMinMS: 500,
			SilenceMaxMS: 1500,
			SampleRate:   44100,
			FFmpegPath:   "ffmpeg",
			FFprobePath:  "ffprobe",
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Store: StoreConfig{
			Enabled:     true,
			Path:        filepath.Join("output", "pedantalk.db"),
			MaxEpisodes: 500,
		},
		Bus: BusConfig{
			Enabled:        false,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPInsecure: true,
		},
	}
}

// Load reads the optional YAML config, applies .env and environment
// overrides, picks the guest voice when unset, and validates the result.
func Load(path string) (Config, error) {
	// .env values become plain environment variables, same as the shell.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.Voices.Guest == "" {
		cfg.Voices.Guest = RandomGuestVoice(cfg.Voices.Host)
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RandomGuestVoice picks any voice other than the host's.
func RandomGuestVoice(hostVoice string) string {
	candidates := make([]string, 0, len(AvailableVoices))
	for _, v := range AvailableVoices {
		if v != hostVoice {
			candidates = append(candidates, v)
		}
	}
	return candidates[rand.Intn(len(candidates))]
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.AppName, "PEDANTALK_APP_NAME")
	overrideInt(&cfg.Turns, "PEDANTALK_TURNS")
	overrideString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	overrideString(&cfg.OpenAI.Model, "MODEL_NAME")
	overrideString(&cfg.OpenAI.TTSModel, "PEDANTALK_TTS_MODEL")
	overrideString(&cfg.OpenAI.BaseURL, "PEDANTALK_OPENAI_BASE_URL")
	overrideBool(&cfg.OpenAI.Mock, "PEDANTALK_OPENAI_MOCK")
	overrideString(&cfg.Voices.Host, "HOST_VOICE")
	overrideString(&cfg.Voices.HostInstruction, "HOST_VOICE_INSTRUCTION")
	overrideString(&cfg.Voices.Guest, "GUEST_VOICE")
	overrideInt(&cfg.Audio.SilenceMinMS, "SILENCE_MIN_MS")
	overrideInt(&cfg.Audio.SilenceMaxMS, "SILENCE_MAX_MS")
	overrideInt(&cfg.Audio.SampleRate, "PEDANTALK_SAMPLE_RATE")
	overrideString(&cfg.Audio.FFmpegPath, "PEDANTALK_FFMPEG_PATH")
	overrideString(&cfg.Audio.FFprobePath, "PEDANTALK_FFPROBE_PATH")
	overrideString(&cfg.Output.Dir, "OUTPUT_DIR")
	overrideBool(&cfg.Store.Enabled, "PEDANTALK_STORE_ENABLED")
	overrideString(&cfg.Store.Path, "PEDANTALK_STORE_PATH")
	overrideInt(&cfg.Store.MaxEpisodes, "PEDANTALK_STORE_MAX_EPISODES")
	overrideBool(&cfg.Bus.Enabled, "PEDANTALK_BUS_ENABLED")
	overrideStringSlice(&cfg.Bus.Servers, "PEDANTALK_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "PEDANTALK_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "PEDANTALK_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "PEDANTALK_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "PEDANTALK_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "PEDANTALK_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Telemetry.LogLevel, "PEDANTALK_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "PEDANTALK_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "PEDANTALK_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "PEDANTALK_TELEMETRY_PROMETHEUS_BIND")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

// VoiceAllowed reports whether name belongs to the fixed voice set.
func VoiceAllowed(name string) bool {
	for _, v := range AvailableVoices {
		if v == name {
			return true
		}
	}
	return false
}

// Validate enforces everything that must hold before generation starts.
func Validate(cfg Config) error {
	if cfg.AppName == "" {
		return errors.New("app_name must not be empty")
	}
	if !cfg.OpenAI.Mock && cfg.OpenAI.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required but not set")
	}
	if cfg.Turns < 5 {
		return errors.New("turns must be at least 5")
	}
	if cfg.Audio.SilenceMinMS < 0 {
		return errors.New("audio.silence_min_ms must not be negative")
	}
	if cfg.Audio.SilenceMinMS >= cfg.Audio.SilenceMaxMS {
		return errors.New("audio.silence_min_ms must be less than audio.silence_max_ms")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.FFmpegPath == "" || cfg.Audio.FFprobePath == "" {
		return errors.New("audio.ffmpeg_path and audio.ffprobe_path must not be empty")
	}
	if !VoiceAllowed(cfg.Voices.Host) {
		return fmt.Errorf("voices.host must be one of %s", strings.Join(AvailableVoices, ", "))
	}
	if cfg.Voices.Guest != "" {
		if !VoiceAllowed(cfg.Voices.Guest) {
			return fmt.Errorf("voices.guest must be one of %s", strings.Join(AvailableVoices, ", "))
		}
		if cfg.Voices.Guest == cfg.Voices.Host {
			return errors.New("voices.guest must differ from voices.host")
		}
	}
	if cfg.Output.Dir == "" {
		return errors.New("output.dir must not be empty")
	}
	if cfg.Store.Enabled {
		if cfg.Store.Path == "" {
			return errors.New("store.path must not be empty when the store is enabled")
		}
		if cfg.Store.MaxEpisodes < 0 {
			return errors.New("store.max_episodes must be >= 0")
		}
	}
	if cfg.Bus.Enabled && len(cfg.Bus.Servers) == 0 {
		return errors.New("bus.servers must not be empty when the bus is enabled")
	}
	return nil
}

// EnsureDirectories creates the output tree if it does not exist yet.
func EnsureDirectories(cfg Config) error {
	for _, dir := range []string{cfg.Output.Dir, cfg.AudioDir(), cfg.TranscriptDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	return nil
}
