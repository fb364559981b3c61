// Package main provides the vidcourier CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"vidcourier/internal/chat/telegram"
	"vidcourier/internal/core"
	"vidcourier/internal/fetch"
	"vidcourier/internal/flood"
	httpserver "vidcourier/internal/http"
	"vidcourier/internal/i18n"
	"vidcourier/internal/store"
	"vidcourier/internal/thumb"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vidcourier",
	Short: "vidcourier - Telegram video download courier",
	Long: `vidcourier is a Telegram bot that accepts video links, downloads them
one at a time per user with size gating and quality fallback, and delivers
the files back into the chat.`,
	RunE: runVidcourier,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("telegram-bot-token", "", "Telegram bot token")
	rootCmd.PersistentFlags().String("telegram-mirror-channel", "", "channel ID or @name mirroring all deliveries")
	rootCmd.PersistentFlags().String("download-dir", "./downloads", "directory for transferred media")
	rootCmd.PersistentFlags().String("session-dir", "./sessions", "directory for persisted user sessions")
	rootCmd.PersistentFlags().Bool("keep-files", false, "keep downloaded files after delivery")
	rootCmd.PersistentFlags().String("ytdlp-path", "yt-dlp", "path to the yt-dlp binary")
	rootCmd.PersistentFlags().String("ffmpeg-path", "ffmpeg", "path to the ffmpeg binary")
	rootCmd.PersistentFlags().String("language", i18n.DefaultLanguage, "bot language for user-facing messages")
	rootCmd.PersistentFlags().Int64("direct-video-limit", core.DefaultDirectVideoLimitBytes, "largest size in bytes delivered as a video without a quality prompt")
	rootCmd.PersistentFlags().Int64("hard-upload-limit", core.DefaultHardUploadLimitBytes, "absolute upload size cap in bytes")
	rootCmd.PersistentFlags().Int("server-port", core.DefaultServerPort, "HTTP server port")
	rootCmd.PersistentFlags().Int("flood-limit", core.DefaultFloodLimitPerMin, "allowed submissions per user per minute")
	rootCmd.PersistentFlags().Duration("transfer-timeout", core.DefaultTransferTimeout, "per-attempt download timeout")
	rootCmd.PersistentFlags().Duration("probe-timeout", core.DefaultProbeTimeout, "metadata probe timeout")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := cfgFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := gotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading env file: %v\n", err)
			os.Exit(1)
		}
	}

	viper.SetEnvPrefix("VIDCOURIER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Telegram.BotToken = viper.GetString("telegram-bot-token")
	cfg.Telegram.MirrorChannelID = viper.GetString("telegram-mirror-channel")

	cfg.Download.Dir = viper.GetString("download-dir")
	cfg.Download.KeepFiles = viper.GetBool("keep-files")
	cfg.Download.YTDLPPath = viper.GetString("ytdlp-path")
	cfg.Download.FFmpegPath = viper.GetString("ffmpeg-path")
	if timeout := viper.GetDuration("transfer-timeout"); timeout > 0 {
		cfg.Download.TransferTimeout = timeout
	}
	if timeout := viper.GetDuration("probe-timeout"); timeout > 0 {
		cfg.Download.ProbeTimeout = timeout
	}
	if limit := viper.GetInt64("direct-video-limit"); limit > 0 {
		cfg.Download.DirectVideoLimitBytes = limit
	}
	if limit := viper.GetInt64("hard-upload-limit"); limit > 0 {
		cfg.Download.HardUploadLimitBytes = limit
	}

	cfg.Server.Port = viper.GetInt("server-port")

	cfg.Log.Level = viper.GetString("log-level")

	cfg.App.Language = viper.GetString("language")
	cfg.App.SessionDir = viper.GetString("session-dir")
	if limit := viper.GetInt("flood-limit"); limit > 0 {
		cfg.App.FloodLimitPerMin = limit
	}

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runVidcourier(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting vidcourier",
		zap.String("download_dir", config.Download.Dir),
		zap.String("session_dir", config.App.SessionDir),
		zap.String("language", config.App.Language))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := os.MkdirAll(config.Download.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}

	sessionStore, err := store.NewFileStore(config.App.SessionDir, config.App.SessionCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}

	frontend := telegram.NewFrontend(&telegram.Config{
		BotToken: config.Telegram.BotToken,
	}, logger.Named("telegram"))

	fetcher := fetch.NewYTDLP(config.Download.YTDLPPath, logger.Named("ytdlp"))
	thumbnailer := thumb.NewFFmpeg(config.Download.FFmpegPath, logger.Named("ffmpeg"))

	floodgate := flood.New(config.App.FloodLimitPerMin)
	defer floodgate.Stop()

	metrics := httpserver.NewMetrics()
	httpServer := httpserver.NewServer(&config.Server, metrics, logger.Named("http"))

	localizer := i18n.NewLocalizer(config.App.Language)

	dispatcher := core.NewDispatcher(
		config,
		frontend,
		fetcher,
		thumbnailer,
		sessionStore,
		floodgate,
		metrics,
		localizer,
		logger.Named("dispatcher"),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return dispatcher.Start(gCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				dispatcher.PublishGauges()
			}
		}
	})

	logger.Info("vidcourier started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("vidcourier stopped with error", zap.Error(err))
		return err
	}

	logger.Info("vidcourier stopped gracefully")
	return nil
}

func validateConfig() error {
	if config.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}

	if config.Download.HardUploadLimitBytes <= config.Download.DirectVideoLimitBytes {
		return fmt.Errorf("hard upload limit must exceed the direct video limit")
	}

	if !i18n.IsSupported(config.App.Language) {
		return fmt.Errorf("unsupported language: %s", config.App.Language)
	}

	return nil
}
