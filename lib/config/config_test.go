package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Listen != "0.0.0.0:25" {
		t.Fatalf("listen = %q", c.Listen)
	}
	if !c.RequireAuth {
		t.Fatalf("expected RequireAuth default true")
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	contents := "listen: \"127.0.0.1:2525\"\nrequire_auth: false\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Listen != "127.0.0.1:2525" {
		t.Fatalf("listen = %q", c.Listen)
	}
	if c.RequireAuth {
		t.Fatalf("expected require_auth overridden to false")
	}
}

func TestEnvVarOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	if err := os.WriteFile(path, []byte("listen: \"127.0.0.1:2525\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	os.Setenv("RELAY_LISTEN", "127.0.0.1:9999")
	defer os.Unsetenv("RELAY_LISTEN")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Listen != "127.0.0.1:9999" {
		t.Fatalf("listen = %q, expected env override", c.Listen)
	}
}

func TestGetAccessor(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, ok := c.Get("data_dir")
	if !ok || v != "data" {
		t.Fatalf("get(data_dir) = %q, %v", v, ok)
	}
	if _, ok := c.Get("nonexistent"); ok {
		t.Fatalf("expected unknown key to miss")
	}
}
