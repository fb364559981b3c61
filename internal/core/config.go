package core

import (
	"time"

	"vidcourier/internal/i18n"
)

const (
	// DefaultDirectVideoLimitBytes is the largest file sent as a video
	// without a quality prompt.
	DefaultDirectVideoLimitBytes = 50 * 1024 * 1024
	// DefaultHardUploadLimitBytes is the absolute upload cap.
	DefaultHardUploadLimitBytes = 1_950_000_000
	// DefaultTransferTimeout bounds a single download attempt.
	DefaultTransferTimeout = 5 * time.Minute
	// DefaultProbeTimeout bounds a metadata probe.
	DefaultProbeTimeout = 15 * time.Second

	DefaultServerPort       = 8080
	DefaultFloodLimitPerMin = 20
	DefaultSessionCacheSize = 256
)

type Config struct {
	Telegram TelegramConfig
	Download DownloadConfig
	Server   ServerConfig
	Log      LogConfig
	App      AppConfig
}

type TelegramConfig struct {
	BotToken        string
	MirrorChannelID string
}

type DownloadConfig struct {
	Dir                   string
	DirectVideoLimitBytes int64
	HardUploadLimitBytes  int64
	TransferTimeout       time.Duration
	ProbeTimeout          time.Duration
	KeepFiles             bool
	YTDLPPath             string
	FFmpegPath            string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	Language         string
	SessionDir       string
	SessionCacheSize int
	FloodLimitPerMin int
}

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{},
		Download: DownloadConfig{
			Dir:                   "./downloads",
			DirectVideoLimitBytes: DefaultDirectVideoLimitBytes,
			HardUploadLimitBytes:  DefaultHardUploadLimitBytes,
			TransferTimeout:       DefaultTransferTimeout,
			ProbeTimeout:          DefaultProbeTimeout,
			YTDLPPath:             "yt-dlp",
			FFmpegPath:            "ffmpeg",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         DefaultServerPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Language:         i18n.DefaultLanguage,
			SessionDir:       "./sessions",
			SessionCacheSize: DefaultSessionCacheSize,
			FloodLimitPerMin: DefaultFloodLimitPerMin,
		},
	}
}
