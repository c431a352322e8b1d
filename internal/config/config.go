// Package config loads the client configuration from the environment
// using Viper, with defaults suited to running against a local backend.
//
// # Environment Variables
//
//   - LISTEN_ADDR: address the local UI listens on. Default: 127.0.0.1:3000
//   - AUTH_URL: base URL of the auth service. Default: http://localhost:5001
//   - LISTINGS_URL: base URL of the listings service. Default: http://localhost:5000
//   - TOKEN_STORE: where the credential is kept (sqlite, postgres, mysql,
//     gorm-mysql, redis, memory). Default: sqlite
//   - TOKEN_DSN: database file or DSN for the sql backends. Default: hubx.db
//   - REDIS_ADDR / REDIS_PASSWORD: redis backend connection.
//   - LOG_LEVEL: debug, info, warn, error. Default: info
//   - REDIRECT_DELAY: delay before leaving the login view. Default: 1500ms
//   - HTTP_TIMEOUT: timeout for calls to the remote services. Default: 30s
//   - SELLER_ID / SELLER_NAME: seller recorded on listings created from this client.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr    string        `mapstructure:"LISTEN_ADDR"`
	AuthURL       string        `mapstructure:"AUTH_URL"`
	ListingsURL   string        `mapstructure:"LISTINGS_URL"`
	TokenStore    string        `mapstructure:"TOKEN_STORE"` // sqlite, postgres, mysql, gorm-mysql, redis, memory
	TokenDSN      string        `mapstructure:"TOKEN_DSN"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	RedirectDelay time.Duration `mapstructure:"REDIRECT_DELAY"`
	HTTPTimeout   time.Duration `mapstructure:"HTTP_TIMEOUT"`
	SellerID      string        `mapstructure:"SELLER_ID"`
	SellerName    string        `mapstructure:"SELLER_NAME"`
}

var tokenStores = map[string]bool{
	"sqlite":     true,
	"postgres":   true,
	"mysql":      true,
	"gorm-mysql": true,
	"redis":      true,
	"memory":     true,
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("LISTEN_ADDR", "127.0.0.1:3000")
	v.SetDefault("AUTH_URL", "http://localhost:5001")
	v.SetDefault("LISTINGS_URL", "http://localhost:5000")
	v.SetDefault("TOKEN_STORE", "sqlite")
	v.SetDefault("TOKEN_DSN", "hubx.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIRECT_DELAY", 1500*time.Millisecond)
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("SELLER_ID", "")
	v.SetDefault("SELLER_NAME", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.TokenStore = strings.ToLower(cfg.TokenStore)
	if !tokenStores[cfg.TokenStore] {
		return nil, fmt.Errorf("config: unknown TOKEN_STORE %q", cfg.TokenStore)
	}

	return &cfg, nil
}
