package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.HTTP.Port != 5000 {
		t.Fatalf("port = %d", c.App.HTTP.Port)
	}
	if c.Notifications.TTLDays != 30 {
		t.Fatalf("ttlDays = %d", c.Notifications.TTLDays)
	}
	if c.Media.Folder != "pet-adoption" {
		t.Fatalf("folder = %q", c.Media.Folder)
	}
	if len(c.CORS.AllowOrigins) != 1 {
		t.Fatalf("allowOrigins = %v", c.CORS.AllowOrigins)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	yaml := "app:\n  http:\n    port: 7000\ndb:\n  driver: mysql\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_APP_HTTP_PORT", "7100")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.HTTP.Port != 7100 {
		t.Fatalf("port = %d, env should win", c.App.HTTP.Port)
	}
	if c.DB.Driver != "mysql" {
		t.Fatalf("driver = %q", c.DB.Driver)
	}
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_APP_ENV", "production")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for default secret in production")
	}

	t.Setenv("APP_JWT_SECRET", "a-real-secret")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
