package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config armazena as configurações da aplicação
type Config struct {
	TelegramToken  string
	TelegramChatID int64
	DatabasePath   string
	ImagesDir      string
	CheapThreshold float64
	MaxConcurrent  int64
}

// Load carrega as configurações das variáveis de ambiente
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN não configurado")
	}

	cfg := &Config{
		TelegramToken:  token,
		DatabasePath:   getEnv("DATABASE_PATH", "./olx.db"),
		ImagesDir:      getEnv("IMAGES_DIR", "./data/images"),
		CheapThreshold: 150,
		MaxConcurrent:  5,
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID inválido: %w", err)
		}
		cfg.TelegramChatID = chatID
	}

	if raw := os.Getenv("CHEAP_THRESHOLD"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("CHEAP_THRESHOLD inválido: %s", raw)
		}
		cfg.CheapThreshold = v
	}

	if raw := os.Getenv("MAX_CONCURRENT_REQUESTS"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("MAX_CONCURRENT_REQUESTS inválido: %s", raw)
		}
		cfg.MaxConcurrent = v
	}

	return cfg, nil
}

// getEnv retorna a variável de ambiente ou um valor padrão
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
