package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8095" {
		t.Errorf("default port: got %s", cfg.HTTPPort)
	}
	if cfg.TypingTTL != 3*time.Second {
		t.Errorf("default typing ttl: got %v", cfg.TypingTTL)
	}
	if cfg.SpeakingTTL != time.Second {
		t.Errorf("default speaking ttl: got %v", cfg.SpeakingTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidateRequiresJWTSecret(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing JWT_SECRET should fail validation")
	}
}

func TestDatabaseURLEscapesPassword(t *testing.T) {
	cfg, _ := Load()
	cfg.DB.Password = "p@ss/word"
	url := cfg.DatabaseURL()
	if want := "p%40ss%2Fword"; !strings.Contains(url, want) {
		t.Errorf("password not escaped in %s", url)
	}
}
