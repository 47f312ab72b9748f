package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/discode/internal/bus"
	"github.com/nextlevelbuilder/discode/internal/config"
	"github.com/nextlevelbuilder/discode/internal/gateway"
	"github.com/nextlevelbuilder/discode/internal/messaging"
	"github.com/nextlevelbuilder/discode/internal/messaging/discord"
	"github.com/nextlevelbuilder/discode/internal/pipeline"
	"github.com/nextlevelbuilder/discode/internal/routing"
	"github.com/nextlevelbuilder/discode/internal/telemetry"
	"github.com/nextlevelbuilder/discode/internal/term"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the hook server and chat bridge",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.Init(ctx, cfg.Telemetry, Version)
	if err != nil {
		slog.Error("telemetry init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		provider.Shutdown(shutdownCtx)
	}()

	metrics, err := telemetry.NewMetrics(provider.Meter)
	if err != nil {
		slog.Error("metrics init failed", "error", err)
		os.Exit(1)
	}

	table, err := routing.LoadFile(cfg.RoutingFile)
	if err != nil {
		slog.Error("routing load failed", "path", cfg.RoutingFile, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := table.Watch(ctx, cfg.RoutingFile); err != nil {
			slog.Warn("routing watcher stopped", "error", err)
		}
	}()

	var chat messaging.Messaging
	switch cfg.Chat.Platform {
	case config.PlatformDiscord:
		client, err := discord.New(cfg.Chat.Token)
		if err != nil {
			slog.Error("discord client init failed", "error", err)
			os.Exit(1)
		}
		if err := client.Start(ctx); err != nil {
			slog.Error("discord connect failed", "error", err)
			os.Exit(1)
		}
		defer client.Stop(context.Background())
		chat = client
	default:
		slog.Error("unsupported chat platform", "platform", cfg.Chat.Platform)
		os.Exit(1)
	}

	windows := term.NewManager()
	events := bus.NewMemoryBus()

	p := pipeline.New(pipeline.Deps{
		Table:         table,
		Chat:          chat,
		Pending:       pipeline.NewPendingTracker(),
		Tasks:         pipeline.NewTaskBoard(),
		Stream:        pipeline.NewStreamUpdater(chat, metrics),
		Metrics:       metrics,
		IdleTimeout:   time.Duration(cfg.Timeouts.QuestionMS) * time.Millisecond,
		ThinkingDelay: time.Duration(cfg.Timeouts.QuestionMS) * time.Millisecond / 10,
	})

	server := gateway.NewServer(cfg, p, windows, events)
	go server.BroadcastFrames(ctx, time.Second)
	if err := server.Start(ctx); err != nil {
		slog.Error("hook server exited", "error", err)
		os.Exit(1)
	}
}
