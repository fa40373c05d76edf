package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: hats, Property 10: Config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasServiceURL") {
			cfg.ServiceURL = nonEmptyString.Draw(t, "serviceURL")
		}
		if rapid.Bool().Draw(t, "hasDefaultFormat") {
			cfg.DefaultFormat = nonEmptyString.Draw(t, "defaultFormat")
		}
		if rapid.Bool().Draw(t, "hasOutputDir") {
			cfg.OutputDir = nonEmptyString.Draw(t, "outputDir")
		}
		if rapid.Bool().Draw(t, "hasPollInterval") {
			cfg.PollInterval = nonEmptyString.Draw(t, "pollInterval")
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")
		env := configGen.Draw(t, "env")

		merged := Merge(global, project, env)
		defaults := Defaults()

		checkStringField(t, "ServiceURL",
			[]string{global.ServiceURL, project.ServiceURL, env.ServiceURL},
			defaults.ServiceURL, merged.ServiceURL)
		checkStringField(t, "DefaultFormat",
			[]string{global.DefaultFormat, project.DefaultFormat, env.DefaultFormat},
			defaults.DefaultFormat, merged.DefaultFormat)
		checkStringField(t, "OutputDir",
			[]string{global.OutputDir, project.OutputDir, env.OutputDir},
			defaults.OutputDir, merged.OutputDir)
		checkStringField(t, "PollInterval",
			[]string{global.PollInterval, project.PollInterval, env.PollInterval},
			defaults.PollInterval, merged.PollInterval)
	})
}

// checkStringField asserts that the last non-empty layer wins, and that the
// default survives when every layer is empty.
func checkStringField(t *rapid.T, name string, layers []string, defaultVal, mergedVal string) {
	t.Helper()
	want := defaultVal
	for _, v := range layers {
		if v != "" {
			want = v
		}
	}
	if mergedVal != want {
		t.Fatalf("%s: layers %q, default %q: expected %q, got %q", name, layers, defaultVal, want, mergedVal)
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.ServiceURL != "http://127.0.0.1:8000/api" {
		t.Errorf("ServiceURL: got %q", d.ServiceURL)
	}
	if d.DefaultFormat != "markdown" {
		t.Errorf("DefaultFormat: want %q, got %q", "markdown", d.DefaultFormat)
	}
	if d.OutputDir != "." {
		t.Errorf("OutputDir: want %q, got %q", ".", d.OutputDir)
	}
	if d.PollEvery() != 2*time.Second {
		t.Errorf("PollEvery: want 2s, got %v", d.PollEvery())
	}
	if d.Timeout() != 0 {
		t.Errorf("Timeout: want none, got %v", d.Timeout())
	}
}

func TestDurations(t *testing.T) {
	cases := []struct {
		poll, timeout string
		wantPoll      time.Duration
		wantTimeout   time.Duration
	}{
		{"500ms", "10s", 500 * time.Millisecond, 10 * time.Second},
		{"soon", "whenever", DefaultPollInterval, 0},
		{"-1s", "-1s", DefaultPollInterval, 0},
		{"", "", DefaultPollInterval, 0},
	}
	for _, tc := range cases {
		c := Config{PollInterval: tc.poll, RequestTimeout: tc.timeout}
		if got := c.PollEvery(); got != tc.wantPoll {
			t.Errorf("PollEvery(%q) = %v, want %v", tc.poll, got, tc.wantPoll)
		}
		if got := c.Timeout(); got != tc.wantTimeout {
			t.Errorf("Timeout(%q) = %v, want %v", tc.timeout, got, tc.wantTimeout)
		}
	}
}

func TestEnvOverridesFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	chdir(t, tmp)

	cfgDir := filepath.Join(tmp, ".config", "hats")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	global := `{"service_url": "http://global:1/api", "poll_interval": "5s", "output_dir": "reports"}`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(global), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(".hatsconfig", []byte(`{"poll_interval": "3s"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HATS_SERVICE_URL", "http://env:2/api")
	t.Setenv("HATS_POLL_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceURL != "http://env:2/api" {
		t.Errorf("ServiceURL: got %q", cfg.ServiceURL)
	}
	if cfg.PollEvery() != 3*time.Second {
		t.Errorf("PollEvery: got %v", cfg.PollEvery())
	}
	if cfg.OutputDir != "reports" {
		t.Errorf("OutputDir: got %q", cfg.OutputDir)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	if *cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "hats")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
