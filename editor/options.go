package editor

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"marker-mind/board"
	"marker-mind/gesture"
	"marker-mind/history"
)

// Options configures an Editor.
type Options struct {
	HistoryCapacity  int
	SaveTimeout      time.Duration
	AutoSaveInterval time.Duration // zero disables auto-save
	CancelPolicy     gesture.CancelPolicy

	// Handle geometry in screen pixels.
	HandleRadius       float64
	RotateHandleOffset float64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		HistoryCapacity:    history.DefaultCapacity,
		SaveTimeout:        board.DefaultSaveTimeout,
		AutoSaveInterval:   30 * time.Second,
		CancelPolicy:       gesture.CommitOnCancel,
		HandleRadius:       8,
		RotateHandleOffset: 24,
	}
}

// LoadOptions reads the EDITOR_* environment variables on top of the
// defaults.
func LoadOptions() (Options, error) {
	opts := DefaultOptions()

	if v := os.Getenv("EDITOR_HISTORY_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("EDITOR_HISTORY_CAPACITY must be a positive integer, got %q", v)
		}
		opts.HistoryCapacity = n
	}
	if v := os.Getenv("EDITOR_SAVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return opts, fmt.Errorf("EDITOR_SAVE_TIMEOUT must be a positive duration, got %q", v)
		}
		opts.SaveTimeout = d
	}
	if v := os.Getenv("EDITOR_AUTOSAVE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return opts, fmt.Errorf("EDITOR_AUTOSAVE_INTERVAL must be a duration, got %q", v)
		}
		opts.AutoSaveInterval = d
	}
	if v := os.Getenv("EDITOR_CANCEL_POLICY"); v != "" {
		switch v {
		case "commit":
			opts.CancelPolicy = gesture.CommitOnCancel
		case "abort":
			opts.CancelPolicy = gesture.AbortOnCancel
		default:
			return opts, fmt.Errorf("EDITOR_CANCEL_POLICY must be commit or abort, got %q", v)
		}
	}
	return opts, nil
}

// BoardOptions returns the part of opts the board store uses.
func (o Options) BoardOptions() board.Options {
	return board.Options{
		HistoryCapacity: o.HistoryCapacity,
		SaveTimeout:     o.SaveTimeout,
	}
}
