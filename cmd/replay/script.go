package main

import (
	"encoding/json"
	"fmt"
	"io"

	"marker-mind/core"
	"marker-mind/editor"
	"marker-mind/pointer"
	"marker-mind/viewport"

	"github.com/sirupsen/logrus"
)

// Script is a recorded editing session.
type Script struct {
	Board  string     `json:"board"`
	Screen core.Point `json:"screen"`
	Steps  []Step     `json:"steps"`
}

// Step is one recorded input. Op selects which of the other fields apply.
type Step struct {
	Op        string          `json:"op"`
	Event     pointer.Event   `json:"event"`
	Tool      string          `json:"tool,omitempty"`
	DeltaY    float64         `json:"deltaY,omitempty"`
	At        core.Point      `json:"at"`
	Direction int             `json:"direction,omitempty"`
	ID        string          `json:"id,omitempty"`
	Object    json.RawMessage `json:"object,omitempty"`
}

// Result is what a replay leaves behind.
type Result struct {
	Viewport viewport.Viewport `json:"viewport"`
	Objects  core.Snapshot     `json:"objects"`
	Dirty    bool              `json:"dirty"`
}

// ParseScript decodes a script and checks every step up front.
func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if s.Board != "" {
		if err := core.ValidateBoardID(s.Board); err != nil {
			return nil, err
		}
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return &s, nil
}

func (st Step) validate() error {
	switch st.Op {
	case "down", "move", "up", "cancel", "wheel", "undo", "redo", "clear", "deselect", "reset":
		return nil
	case "tool":
		_, err := editor.ParseTool(st.Tool)
		return err
	case "zoom":
		if st.Direction == 0 {
			return fmt.Errorf("zoom needs a direction")
		}
		return nil
	case "select", "delete":
		if st.ID == "" {
			return fmt.Errorf("%s needs an id", st.Op)
		}
		return nil
	case "create":
		_, err := core.DecodeObject(st.Object)
		return err
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

// Run plays the script against e. It stops at the first failing step.
func (s *Script) Run(e *editor.Editor) error {
	if s.Screen != (core.Point{}) {
		e.View().SetScreenSize(s.Screen)
	}
	for i, st := range s.Steps {
		if err := st.apply(e); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, st.Op, err)
		}
	}
	logrus.WithFields(logrus.Fields{
		"board_id": e.Board().ID(),
		"steps":    len(s.Steps),
	}).Info("Script replayed")
	return nil
}

func (st Step) apply(e *editor.Editor) error {
	b := e.Board()
	switch st.Op {
	case "down":
		return e.PointerDown(st.Event)
	case "move":
		e.PointerMove(st.Event)
	case "up":
		e.PointerUp(st.Event)
	case "cancel":
		e.PointerCancel(st.Event)
	case "wheel":
		e.Wheel(st.DeltaY, st.At)
	case "zoom":
		e.StepZoom(st.Direction)
	case "reset":
		e.ResetView()
	case "tool":
		t, err := editor.ParseTool(st.Tool)
		if err != nil {
			return err
		}
		e.SetTool(t)
	case "undo":
		b.Undo()
	case "redo":
		b.Redo()
	case "clear":
		b.Clear()
	case "select":
		return b.Select(st.ID)
	case "deselect":
		b.ClearSelection()
	case "delete":
		return b.Delete(st.ID)
	case "create":
		obj, err := core.DecodeObject(st.Object)
		if err != nil {
			return err
		}
		_, err = b.Create(obj)
		return err
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}

// Snapshot captures the outcome of a replay.
func Snapshot(e *editor.Editor) Result {
	return Result{
		Viewport: e.View().State(),
		Objects:  e.Board().Snapshot(),
		Dirty:    e.Board().Dirty(),
	}
}
