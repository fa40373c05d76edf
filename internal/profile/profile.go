// Package profile manages the user's persistent hats profile.
// The profile is stored at ~/.config/hats/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	Name          string `json:"name"`
	ServiceURL    string `json:"service_url"`
	DefaultFormat string `json:"default_format"` // "markdown" | "json" | "yaml"
	OutputDir     string `json:"output_dir"`     // default report output dir
}

// ConfigDir returns the hats config directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hats"), nil
}

func profilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.json"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'hats setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// RunSetup runs the interactive setup wizard, reading answers from in and
// writing prompts to out. If existing is non-nil, it is used as the default
// for each prompt (edit mode).
func RunSetup(in io.Reader, out io.Writer, existing *Profile) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	prof := &Profile{
		ServiceURL:    "http://127.0.0.1:8000/api",
		DefaultFormat: "markdown",
		OutputDir:     ".",
	}
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │     hats · first-time setup     │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error

	prof.Name, err = ask("  Your name", prof.Name)
	if err != nil {
		return nil, err
	}

	prof.ServiceURL, err = ask("  Analysis service URL", prof.ServiceURL)
	if err != nil {
		return nil, err
	}
	prof.ServiceURL = strings.TrimRight(prof.ServiceURL, "/")

	format, err := ask("  Default report format (markdown/json/yaml)", prof.DefaultFormat)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "json":
		prof.DefaultFormat = "json"
	case "yaml", "yml":
		prof.DefaultFormat = "yaml"
	default:
		prof.DefaultFormat = "markdown"
	}

	prof.OutputDir, err = ask("  Default report directory", prof.OutputDir)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	return prof, nil
}
