package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/germanamz/easel/pkg/engine"
)

// engineEventMsg delivers an engine event from the bridge goroutine.
type engineEventMsg struct {
	event engine.Event
}

// sendCompleteMsg is returned by the tea.Cmd that calls sess.Send.
type sendCompleteMsg struct {
	err      error
	duration time.Duration
}

// programReadyMsg passes the *tea.Program to the model so it can start the
// event bridge goroutine.
type programReadyMsg struct {
	program *tea.Program
}

// tickMsg drives spinner animation while a Send is in flight.
type tickMsg time.Time
