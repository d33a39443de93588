package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	API   APIConfig   `koanf:"api"`
	OIDC  OIDCConfig  `koanf:"oidc"`
	State StateConfig `koanf:"state"`
	Log   LogConfig   `koanf:"log"`
}

type APIConfig struct {
	// Origin is the base URL of the Contract Intelligence Platform backend.
	Origin string `koanf:"origin"`
}

type OIDCConfig struct {
	// Issuer is the OpenID Connect provider, e.g. https://accounts.google.com.
	Issuer       string   `koanf:"issuer"`
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	Scopes       []string `koanf:"scopes"`
	// CallbackPort is the loopback port the sign-in flow listens on for the
	// provider redirect.
	CallbackPort int `koanf:"callback_port"`
}

type StateConfig struct {
	// Dir holds the session database. Defaults to ~/.cip.
	Dir string `koanf:"dir"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load from config.yaml file first
	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("CIP_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CIP_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("api.origin") {
		k.Set("api.origin", "http://localhost:5000")
	}
	if !k.Exists("oidc.issuer") {
		k.Set("oidc.issuer", "https://accounts.google.com")
	}
	if !k.Exists("oidc.scopes") {
		k.Set("oidc.scopes", []string{"openid", "profile", "email"})
	}
	if !k.Exists("oidc.callback_port") {
		k.Set("oidc.callback_port", 8924)
	}
	if !k.Exists("log.level") {
		k.Set("log.level", "info")
	}
	if !k.Exists("state.dir") {
		home, err := os.UserHomeDir()
		if err == nil {
			k.Set("state.dir", filepath.Join(home, ".cip"))
		} else {
			k.Set("state.dir", ".cip")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in secrets
	cfg.OIDC.ClientID = substituteEnvVars(cfg.OIDC.ClientID)
	cfg.OIDC.ClientSecret = substituteEnvVars(cfg.OIDC.ClientSecret)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
