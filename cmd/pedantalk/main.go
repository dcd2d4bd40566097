package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pedantalk/pedantalk/internal/config"
	"github.com/pedantalk/pedantalk/internal/runtime"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath      string
		topic           string
		turns           int
		hostVoice       string
		hostInstruction string
		showVersion     bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file (optional)")
	flag.StringVar(&topic, "topic", "", "Episode topic title; generated when empty")
	flag.IntVar(&turns, "turns", 0, "Total conversation turns including the outro")
	flag.StringVar(&hostVoice, "host-voice", "", fmt.Sprintf("Host voice, one of: %s", strings.Join(config.AvailableVoices, ", ")))
	flag.StringVar(&hostInstruction, "host-voice-instruction", "", "Speech style instruction for the host voice")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Flags win over config file and environment.
	if turns > 0 {
		cfg.Turns = turns
	}
	if hostVoice != "" {
		cfg.Voices.Host = hostVoice
		if cfg.Voices.Guest == hostVoice {
			cfg.Voices.Guest = config.RandomGuestVoice(hostVoice)
		}
	}
	if hostInstruction != "" {
		cfg.Voices.HostInstruction = hostInstruction
	}
	if err := config.Validate(cfg); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rt := runtime.New(cfg, logger, runtime.Options{TopicTitle: topic})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Start(ctx); err != nil {
		logger.Error("episode generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
