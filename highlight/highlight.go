// Package highlight applies ANSI terminal syntax coloring to the text
// the monitor CLI renders: the command line a user types, and the
// payload of a pub/sub message as it scrolls by. It is a direct
// adaptation of the teacher's highlight package, which ran chroma's SQL
// lexer over query text; here the lexer runs over a RESP command line,
// which is lexically the same shape as a shell command (a verb followed
// by space-separated arguments, some quoted).
package highlight

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
)

func init() {
	lexer = lexers.Get("bash")
	formatter = formatters.Get("terminal256")
	style = styles.Get("monokai")
}

// Command returns s (a typed RESP command line, e.g. "SET key value EX
// 10") with ANSI syntax highlighting applied. On error or empty input,
// the original string is returned unchanged.
func Command(s string) string {
	if s == "" || lexer == nil {
		return s
	}

	iterator, err := lexer.Tokenise(nil, s)
	if err != nil {
		return s
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return s
	}

	return strings.TrimRight(buf.String(), "\n")
}

var (
	channelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Message renders one received pub/sub message as the channel in bold, a
// faint " › " separator, and the payload unstyled, for the monitor's
// scrolling list.
func Message(channel string, payload []byte) string {
	return channelStyle.Render(channel) + dimStyle.Render(" › ") + string(payload)
}
