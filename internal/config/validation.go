package config

import (
	"fmt"
	"net/url"
	"strings"
)

func validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if _, err := url.Parse(cfg.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url is not a valid URL: %w", err)
	}
	if strings.TrimSpace(cfg.API.ResourceID) == "" {
		return fmt.Errorf("api.resource_id cannot be empty")
	}
	if strings.TrimSpace(cfg.API.Key) == "" {
		return fmt.Errorf("api key missing: set api.key or the %s environment variable", cfg.API.KeyEnv)
	}
	if cfg.API.BatchSize > 10000 {
		return fmt.Errorf("api.batch_size %d exceeds the upstream per-request maximum of 10000", cfg.API.BatchSize)
	}
	if cfg.Notify.Telegram.Enabled {
		tg := cfg.Notify.Telegram
		if strings.TrimSpace(tg.BotToken) == "" || strings.TrimSpace(tg.ChatID) == "" {
			return fmt.Errorf("notify.telegram enabled but bot_token/chat_id missing")
		}
	}
	return nil
}
