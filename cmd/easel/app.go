package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/germanamz/easel/pkg/engine"
)

// appState represents the console state machine.
type appState int

const (
	stateIdle appState = iota
	stateProcessing
)

// appModel is the root bubbletea model for the dev console.
type appModel struct {
	ctx     context.Context
	sess    *engine.Session
	eng     *engine.Engine
	verbose bool

	viewport viewport.Model
	input    textarea.Model
	lines    []string

	state        appState
	spinnerIdx   int
	lastDuration time.Duration
	cancelBridge context.CancelFunc

	width  int
	height int
	ready  bool
}

func newAppModel(ctx context.Context, sess *engine.Session, eng *engine.Engine, verbose bool) appModel {
	ta := textarea.New()
	ta.Placeholder = "Describe what to draw, edit, or generate..."
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.CharLimit = 0
	ta.Focus()

	return appModel{
		ctx:     ctx,
		sess:    sess,
		eng:     eng,
		verbose: verbose,
		input:   ta,
		state:   stateIdle,
	}
}

func (m appModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.cancelBridge != nil {
				m.cancelBridge()
			}
			return m, tea.Quit
		case tea.KeyEnter:
			if m.state == stateIdle {
				return m, m.handleSubmit()
			}
			return m, nil
		}

	case programReadyMsg:
		m.cancelBridge = startBridge(m.ctx, msg.program, m.eng.Events())
		return m, nil

	case engineEventMsg:
		m.handleEvent(msg.event)
		return m, nil

	case sendCompleteMsg:
		m.state = stateIdle
		m.lastDuration = msg.duration
		m.input.Focus()
		if msg.err != nil && m.ctx.Err() == nil {
			m.appendLine(errorBlockStyle.Render("error: " + msg.err.Error()))
		}
		return m, nil

	case tickMsg:
		if m.state == stateProcessing {
			m.spinnerIdx++
			return m, tickCmd()
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m appModel) View() string {
	if !m.ready {
		return "loading..."
	}

	status := statusStyle.Render(m.statusLine())

	return m.viewport.View() + "\n" + m.input.View() + "\n" + status
}

func (m *appModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	inputHeight := m.input.Height() + 1
	vpHeight := msg.Height - inputHeight - 2
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width)
	initMarkdownRenderer(msg.Width - 2)
	m.refreshViewport()
}

func (m *appModel) handleSubmit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	m.input.Reset()
	m.input.Blur()

	m.appendLine(userBlockStyle.Render(userPrefixStyle.Render("You > ") + text))

	m.state = stateProcessing

	sess := m.sess
	ctx := m.ctx
	send := func() tea.Msg {
		start := time.Now()
		_, err := sess.Send(ctx, text)
		return sendCompleteMsg{err: err, duration: time.Since(start)}
	}

	return tea.Batch(send, tickCmd())
}

// handleEvent renders an engine event into the transcript.
func (m *appModel) handleEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventToolCallStart:
		if d, ok := ev.Data.(engine.ToolCallData); ok {
			line := toolNameStyle.Render("⚒ "+d.Name) + " " + truncate(d.Arguments, 60)
			m.appendLine(line)
		}

	case engine.EventToolCallEnd:
		d, ok := ev.Data.(engine.ToolResultData)
		if !ok {
			return
		}
		if d.IsError {
			m.appendLine(toolErrorStyle.Render("  ✗ " + truncate(d.Content, 80)))
		} else if m.verbose {
			m.appendLine(toolResultStyle.Render("  ✓ " + truncate(d.Content, 80)))
		}

	case engine.EventModelFallback:
		if d, ok := ev.Data.(engine.FallbackData); ok {
			m.appendLine(noticeStyle.Render("falling back to secondary model: " + truncate(d.Reason, 60)))
		}

	case engine.EventMediaFallback:
		if d, ok := ev.Data.(engine.FallbackData); ok {
			m.appendLine(noticeStyle.Render(fmt.Sprintf("media fallback (%s): %s", d.Flow, truncate(d.Reason, 60))))
		}

	case engine.EventMaskEditor:
		if d, ok := ev.Data.(engine.MaskEditorData); ok {
			m.appendLine(noticeStyle.Render(fmt.Sprintf("mask editor requested for %s: %q", d.ShapeID, d.Prompt)))
		}

	case engine.EventAnswer:
		if text, ok := ev.Data.(string); ok {
			m.appendLine(answerBlockStyle.Render(answerPrefixStyle.Render("Easel > ") + "\n" + renderMarkdown(text)))
		}

	case engine.EventToggleChanged:
		if d, ok := ev.Data.(engine.ToggleData); ok {
			m.appendLine(statusStyle.Render(fmt.Sprintf("fallback for %s set to %t", d.Flow, d.Enabled)))
		}

	case engine.EventError:
		if text, ok := ev.Data.(string); ok {
			m.appendLine(errorBlockStyle.Render(text))
		}
	}
}

func (m *appModel) statusLine() string {
	shapes := len(m.eng.Canvas().Shapes())

	switch m.state {
	case stateProcessing:
		frame := spinnerFrames[m.spinnerIdx%len(spinnerFrames)]
		return fmt.Sprintf("%s working... | %d shape(s) on canvas", spinnerStyle.Render(frame), shapes)
	default:
		if m.lastDuration > 0 {
			return fmt.Sprintf("ready (%s) | %d shape(s) on canvas | enter to send, ctrl+c to quit", fmtDuration(m.lastDuration), shapes)
		}
		return fmt.Sprintf("ready | %d shape(s) on canvas | enter to send, ctrl+c to quit", shapes)
	}
}

func (m *appModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refreshViewport()
}

func (m *appModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func tickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
