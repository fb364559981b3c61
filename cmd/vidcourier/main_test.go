package main

import (
	"testing"

	"github.com/spf13/viper"

	"vidcourier/internal/core"
)

func TestBuildConfigSizeLimits(t *testing.T) {
	viper.Set("direct-video-limit", int64(10*1024*1024))
	viper.Set("hard-upload-limit", int64(500*1024*1024))
	t.Cleanup(func() {
		viper.Set("direct-video-limit", int64(core.DefaultDirectVideoLimitBytes))
		viper.Set("hard-upload-limit", int64(core.DefaultHardUploadLimitBytes))
	})

	cfg := buildConfig()

	if cfg.Download.DirectVideoLimitBytes != 10*1024*1024 {
		t.Errorf("DirectVideoLimitBytes = %d, want %d", cfg.Download.DirectVideoLimitBytes, 10*1024*1024)
	}
	if cfg.Download.HardUploadLimitBytes != 500*1024*1024 {
		t.Errorf("HardUploadLimitBytes = %d, want %d", cfg.Download.HardUploadLimitBytes, 500*1024*1024)
	}
}

func TestBuildConfigDefaultSizeLimits(t *testing.T) {
	cfg := buildConfig()

	if cfg.Download.DirectVideoLimitBytes != core.DefaultDirectVideoLimitBytes {
		t.Errorf("DirectVideoLimitBytes = %d, want default %d",
			cfg.Download.DirectVideoLimitBytes, core.DefaultDirectVideoLimitBytes)
	}
	if cfg.Download.HardUploadLimitBytes != core.DefaultHardUploadLimitBytes {
		t.Errorf("HardUploadLimitBytes = %d, want default %d",
			cfg.Download.HardUploadLimitBytes, core.DefaultHardUploadLimitBytes)
	}
}

func TestValidateConfigRejectsInvertedLimits(t *testing.T) {
	config = core.DefaultConfig()
	config.Telegram.BotToken = "token"
	config.Download.DirectVideoLimitBytes = 2_000_000_000
	config.Download.HardUploadLimitBytes = 1_000_000

	if err := validateConfig(); err == nil {
		t.Error("inverted size limits must fail validation")
	}
}
