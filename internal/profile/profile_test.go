package profile

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunSetupDefaults(t *testing.T) {
	var out bytes.Buffer
	prof, err := RunSetup(strings.NewReader("Ada\n\n\n\n"), &out, nil)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	want := Profile{
		Name:          "Ada",
		ServiceURL:    "http://127.0.0.1:8000/api",
		DefaultFormat: "markdown",
		OutputDir:     ".",
	}
	if *prof != want {
		t.Errorf("got %+v, want %+v", *prof, want)
	}
	if !strings.Contains(out.String(), "Analysis service URL [http://127.0.0.1:8000/api]") {
		t.Errorf("prompt missing default: %q", out.String())
	}
}

func TestRunSetupEditsExisting(t *testing.T) {
	existing := &Profile{Name: "Ada", ServiceURL: "http://old/api", DefaultFormat: "json", OutputDir: "out"}
	answers := "\nhttp://new:9000/api/\nYML\nreports"
	prof, err := RunSetup(strings.NewReader(answers), &bytes.Buffer{}, existing)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if prof.Name != "Ada" || prof.ServiceURL != "http://new:9000/api" ||
		prof.DefaultFormat != "yaml" || prof.OutputDir != "reports" {
		t.Errorf("got %+v", *prof)
	}
	if existing.ServiceURL != "http://old/api" {
		t.Error("existing profile was mutated")
	}
}

func TestRunSetupTruncatedInput(t *testing.T) {
	if _, err := RunSetup(strings.NewReader("Ada\n"), &bytes.Buffer{}, nil); err == nil {
		t.Error("expected an error when input ends early")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if Exists() {
		t.Fatal("profile should not exist in a fresh home")
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error loading a missing profile")
	}

	prof := &Profile{Name: "Ada", ServiceURL: "http://svc/api", DefaultFormat: "yaml", OutputDir: "r"}
	if err := Save(prof); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("profile should exist after Save")
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *prof {
		t.Errorf("got %+v, want %+v", *got, *prof)
	}
}
