// Package inputwatch reads analysis input from a problem file and re-reads it
// whenever the file changes on disk.
//
// A problem file holds the problem statement, optionally followed by a line
// containing only "---" and the background context.
package inputwatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/hats/internal/session"
)

// Separator divides the problem statement from the background context.
const Separator = "---"

// DefaultDebounce collapses bursts of write events from editors that save in
// several steps.
const DefaultDebounce = 200 * time.Millisecond

// Parse splits problem file content into an Input. Only the first separator
// line counts; later ones belong to the background context.
func Parse(content string) session.Input {
	var problem, background []string
	inBackground := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !inBackground && strings.TrimSpace(line) == Separator {
			inBackground = true
			continue
		}
		if inBackground {
			background = append(background, line)
		} else {
			problem = append(problem, line)
		}
	}
	return session.Input{
		ProblemStatement:  strings.TrimSpace(strings.Join(problem, "\n")),
		BackgroundContext: strings.TrimSpace(strings.Join(background, "\n")),
	}
}

// ReadInput reads and parses the problem file at path.
func ReadInput(path string) (session.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return session.Input{}, fmt.Errorf("reading problem file: %w", err)
	}
	return Parse(string(data)), nil
}

// Watch calls onChange with the freshly parsed file each time path is written,
// created or renamed into place, until ctx is cancelled. The parent
// directory is watched so that editors which replace the file are followed.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(session.Input, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			in, err := ReadInput(abs)
			onChange(in, err)

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
		}
	}
}
