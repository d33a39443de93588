package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Save original env vars
	origOrigin := os.Getenv("CIP_API__ORIGIN")
	defer func() {
		if origOrigin != "" {
			os.Setenv("CIP_API__ORIGIN", origOrigin)
		} else {
			os.Unsetenv("CIP_API__ORIGIN")
		}
	}()

	t.Run("default origin", func(t *testing.T) {
		os.Unsetenv("CIP_API__ORIGIN")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.API.Origin != "http://localhost:5000" {
			t.Errorf("Load() origin = %v, want http://localhost:5000", cfg.API.Origin)
		}
		if cfg.OIDC.Issuer != "https://accounts.google.com" {
			t.Errorf("Load() issuer = %v, want https://accounts.google.com", cfg.OIDC.Issuer)
		}
		if cfg.OIDC.CallbackPort != 8924 {
			t.Errorf("Load() callback port = %v, want 8924", cfg.OIDC.CallbackPort)
		}
	})

	t.Run("env var origin override", func(t *testing.T) {
		os.Setenv("CIP_API__ORIGIN", "https://cip.example.com")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.API.Origin != "https://cip.example.com" {
			t.Errorf("Load() origin = %v, want https://cip.example.com", cfg.API.Origin)
		}
	})
}

func TestSubstituteEnvVars(t *testing.T) {
	// Set test env var
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "${TEST_VAR}",
			want:  "test-value",
		},
		{
			name:  "substitution in string",
			input: "prefix-${TEST_VAR}-suffix",
			want:  "prefix-test-value-suffix",
		},
		{
			name:  "no substitution",
			input: "plain-string",
			want:  "plain-string",
		},
		{
			name:  "undefined var",
			input: "${UNDEFINED_VAR}",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
