package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBuildQueryText(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"chocolate", "cake", "recipe"}, "chocolate cake recipe"},
		{[]string{"single"}, "single"},
		{[]string{"  padded  "}, "padded"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := buildQueryText(tt.args); got != tt.want {
			t.Errorf("buildQueryText(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestAskArgsReorder(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			"flags already first",
			[]string{"-mode", "list", "pasta"},
			[]string{"-mode", "list", "pasta"},
		},
		{
			"flags after query move to front",
			[]string{"pasta", "dishes", "-mode", "summarize"},
			[]string{"-mode", "summarize", "pasta", "dishes"},
		},
		{
			"no flags",
			[]string{"pasta", "dishes"},
			[]string{"pasta", "dishes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := askArgsReorder(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("askArgsReorder(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadConfigMissingDefaultUsesBuiltins(t *testing.T) {
	// Run from a directory without a config.yaml so the cwd fallback misses.
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, path, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if path != "" {
		t.Errorf("expected no resolved path, got %q", path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
}

func TestLoadConfigPrefersCwdConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("server:\n  port: 9191\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, path, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("port: got %d, want 9191", cfg.Server.Port)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("resolved path: got %q", path)
	}
}
