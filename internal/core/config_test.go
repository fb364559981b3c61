package core

import (
	"testing"

	"vidcourier/internal/i18n"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.App.Language != i18n.DefaultLanguage {
		t.Errorf("Expected default language to be %s, got %s", i18n.DefaultLanguage, config.App.Language)
	}

	if config.Download.DirectVideoLimitBytes != DefaultDirectVideoLimitBytes {
		t.Errorf("Expected direct video limit %d, got %d", DefaultDirectVideoLimitBytes, config.Download.DirectVideoLimitBytes)
	}

	if config.Download.HardUploadLimitBytes != DefaultHardUploadLimitBytes {
		t.Errorf("Expected hard upload limit %d, got %d", DefaultHardUploadLimitBytes, config.Download.HardUploadLimitBytes)
	}

	if config.Telegram.BotToken != "" {
		t.Errorf("Expected bot token to require explicit configuration, got %s", config.Telegram.BotToken)
	}

	if config.Download.KeepFiles {
		t.Error("Expected downloads to be cleaned up by default")
	}
}

func TestLanguageConfiguration(t *testing.T) {
	config := DefaultConfig()

	supportedLanguages := i18n.GetSupportedLanguages()
	for _, lang := range supportedLanguages {
		config.App.Language = lang
		localizer := i18n.NewLocalizer(config.App.Language)
		if localizer == nil {
			t.Errorf("Failed to create localizer for language %s", lang)
		}

		message := localizer.T("error.generic")
		if message == "" {
			t.Errorf("Empty message for key 'error.generic' in language %s", lang)
		}
	}
}

func TestConfigConstants(t *testing.T) {
	if DefaultDirectVideoLimitBytes <= 0 {
		t.Error("DefaultDirectVideoLimitBytes should be positive")
	}

	if DefaultHardUploadLimitBytes <= DefaultDirectVideoLimitBytes {
		t.Error("Hard upload limit should exceed the direct video limit")
	}

	if DefaultTransferTimeout <= DefaultProbeTimeout {
		t.Error("Transfer timeout should exceed the probe timeout")
	}

	if DefaultServerPort <= 0 || DefaultServerPort > 65535 {
		t.Error("DefaultServerPort should be a valid port number")
	}
}
