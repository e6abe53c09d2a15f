// Package tui implements the monitor CLI's Bubble Tea model: it opens an
// ordinary RESP connection to an rkv server, issues SUBSCRIBE on the
// channels named on the command line, and renders incoming messages as
// a scrolling list. It is a direct descendant of the teacher's
// tui.Model (the same Init/Update/View loop over a live event stream,
// the same connectedMsg/errMsg message shapes) trimmed from its four
// views (list/inspect/explain/analytics) down to the one scrolling list
// this server's single event kind — a pub/sub message — needs.
package tui

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/rkvdb/rkv/highlight"
	"github.com/rkvdb/rkv/resp"
)

// event is one rendered row: a received pub/sub message, or a typed
// command this client sent.
type event struct {
	at      time.Time
	channel string
	payload string
	sent    bool // true for a command this client typed, false for a received message
}

// Model is the Bubble Tea model backing the monitor CLI.
type Model struct {
	target   string
	channels []string

	nc  net.Conn
	dec *resp.Decoder
	enc *resp.Encoder

	events []event
	cursor int
	follow bool
	width  int
	height int
	err    error

	input       string
	editing     bool
	copiedFlash string
}

type connectedMsg struct {
	nc  net.Conn
	dec *resp.Decoder
	enc *resp.Encoder
}

type valueMsg struct{ v resp.Value }

type errMsg struct{ err error }

// New builds a Model that will connect to target and subscribe to
// channels once Init runs.
func New(target string, channels []string) Model {
	return Model{target: target, channels: channels, follow: true}
}

func (m Model) Init() tea.Cmd {
	return connect(m.target, m.channels)
}

func connect(target string, channels []string) tea.Cmd {
	return func() tea.Msg {
		nc, err := net.DialTimeout("tcp", target, 5*time.Second)
		if err != nil {
			return errMsg{fmt.Errorf("dial %s: %w", target, err)}
		}
		enc := resp.NewEncoder(nc)
		dec := resp.NewDecoder(nc)

		parts := make([][]byte, 0, len(channels)+1)
		parts = append(parts, []byte("SUBSCRIBE"))
		for _, ch := range channels {
			parts = append(parts, []byte(ch))
		}
		if err := enc.Encode(resp.BulkStringsArray(parts...)); err != nil {
			_ = nc.Close()
			return errMsg{fmt.Errorf("subscribe: %w", err)}
		}
		// Drain one confirmation reply per channel before streaming begins.
		for range channels {
			if _, err := dec.Decode(); err != nil {
				_ = nc.Close()
				return errMsg{fmt.Errorf("subscribe confirmation: %w", err)}
			}
		}
		return connectedMsg{nc: nc, dec: dec, enc: enc}
	}
}

func recvValue(dec *resp.Decoder) tea.Cmd {
	return func() tea.Msg {
		v, err := dec.Decode()
		if err != nil {
			return errMsg{err}
		}
		return valueMsg{v}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectedMsg:
		m.nc, m.dec, m.enc = msg.nc, msg.dec, msg.enc
		return m, recvValue(m.dec)

	case valueMsg:
		if ev, ok := decodeEvent(msg.v); ok {
			m.events = append(m.events, ev)
			if m.follow {
				m.cursor = max(len(m.events)-1, 0)
			}
		}
		return m, recvValue(m.dec)

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	}
	return m, nil
}

// decodeEvent interprets a pushed value as either a "message" or a
// "subscribe"/"unsubscribe" confirmation (spec.md §4.9); only the former
// becomes a visible row.
func decodeEvent(v resp.Value) (event, bool) {
	if v.Type != resp.Array || v.Null || len(v.Array) < 3 {
		return event{}, false
	}
	kind := v.Array[0]
	if kind.Type != resp.Bulk || string(kind.Bulk) != "message" {
		return event{}, false
	}
	channel := v.Array[1]
	payload := v.Array[2]
	return event{at: time.Now(), channel: string(channel.Bulk), payload: string(payload.Bulk)}, true
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditKey(msg)
	}
	switch msg.String() {
	case "q", "ctrl+c":
		if m.nc != nil {
			_ = m.nc.Close()
		}
		return m, tea.Quit
	case "j", "down":
		m.follow = false
		m.cursor = min(m.cursor+1, max(len(m.events)-1, 0))
	case "k", "up":
		m.follow = false
		m.cursor = max(m.cursor-1, 0)
	case "G":
		m.follow = true
		m.cursor = max(len(m.events)-1, 0)
	case "c":
		if m.cursor < len(m.events) {
			if err := copyMessagePayload(context.Background(), m.events[m.cursor].payload); err == nil {
				m.copiedFlash = "copied"
			}
		}
	case ":":
		m.editing = true
		m.input = ""
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input = ""
		return m, nil
	case "enter":
		m.editing = false
		line := m.input
		m.input = ""
		if line == "" {
			return m, nil
		}
		m.events = append(m.events, event{at: time.Now(), payload: line, sent: true})
		return m, sendLine(m.enc, line)
	case "backspace":
		if n := len(m.input); n > 0 {
			m.input = m.input[:n-1]
		}
		return m, nil
	case "ctrl+c":
		if m.nc != nil {
			_ = m.nc.Close()
		}
		return m, tea.Quit
	case "space":
		m.input += " "
		return m, nil
	}

	// Ignore non-printable keys.
	if len(msg.Runes) == 0 {
		return m, nil
	}
	m.input += string(msg.Runes)
	return m, nil
}

// sendLine splits a typed command line on whitespace and sends it as a
// bulk-string array request, the same shape every rkv command takes.
func sendLine(enc *resp.Encoder, line string) tea.Cmd {
	return func() tea.Msg {
		fields := strings.Fields(line)
		parts := make([][]byte, len(fields))
		for i, f := range fields {
			parts[i] = []byte(f)
		}
		if err := enc.Encode(resp.BulkStringsArray(parts...)); err != nil {
			return errMsg{fmt.Errorf("send: %w", err)}
		}
		return nil
	}
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	channelStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
)

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	if m.err != nil {
		return fmt.Sprintf("error: %v\n", m.err)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("rkv monitor — %s %v", m.target, m.channels)))
	b.WriteString("\n\n")

	if len(m.events) == 0 {
		b.WriteString("waiting for messages...\n")
	}
	for i, ev := range m.events {
		line := formatEvent(ev)
		line = ansi.Cut(line, 0, max(m.width-1, 1))
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.editing {
		b.WriteString(": " + highlight.Command(m.input))
	} else {
		b.WriteString("q: quit  j/k: scroll  G: follow  c: copy  ::: type a command")
		if m.copiedFlash != "" {
			b.WriteString("  [" + m.copiedFlash + "]")
		}
	}
	return b.String()
}

func formatEvent(ev event) string {
	ts := ev.at.Format("15:04:05.000")
	if ev.sent {
		return fmt.Sprintf("%s %s %s", ts, channelStyle.Render(">"), highlight.Command(ev.payload))
	}
	return fmt.Sprintf("%s %s", ts, highlight.Message(ev.channel, []byte(ev.payload)))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Run starts the Bubble Tea program against target, subscribing to
// channels, and blocks until the user quits.
func Run(target string, channels []string) error {
	p := tea.NewProgram(New(target, channels))
	_, err := p.Run()
	return err
}
