package main

import (
	"fmt"
	"strings"
	"time"

	"dnkquest-backend/internal/repository"
	"dnkquest-backend/internal/service"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`

	Auth         AuthConfig            `yaml:"auth"`
	Chain        service.PaymentConfig `yaml:"chain"`
	Verification VerificationConfig    `yaml:"verification"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type AuthConfig struct {
	DebugMode    bool     `yaml:"debugMode"`
	AdminWallets []string `yaml:"adminWallets"`
}

type VerificationConfig struct {
	CooldownSeconds int  `yaml:"cooldownSeconds"`
	GraceSeconds    int  `yaml:"graceSeconds"`
	ProbeURLs       bool `yaml:"probeUrls"`
}

func (c VerificationConfig) Cooldown() time.Duration {
	if c.CooldownSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.CooldownSeconds) * time.Second
}

func (c VerificationConfig) GraceDelay() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
