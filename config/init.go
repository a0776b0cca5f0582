package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/tracing"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *DatabaseConfig
	GmailConfig    *GmailConfig
	IMAPConfig     *IMAPConfig
	LLMConfig      *LLMConfig
	StorageConfig  *StorageConfig
	PollerConfig   *PollerConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &DatabaseConfig{},
		GmailConfig:    &GmailConfig{},
		IMAPConfig:     &IMAPConfig{},
		LLMConfig:      &LLMConfig{},
		StorageConfig:  &StorageConfig{},
		PollerConfig:   &PollerConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading paperdesk config: %v", err)
	}

	return config, nil
}
