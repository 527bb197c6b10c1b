package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"machine", "learning"}, "machine learning"},
		{[]string{"machine learning"}, "machine learning"},
		{[]string{"  spaced  "}, "spaced"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := buildQuery(tc.args); got != tc.want {
			t.Errorf("buildQuery(%v) = %q, want %q", tc.args, got, tc.want)
		}
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}
