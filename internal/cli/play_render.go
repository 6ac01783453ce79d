package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/mgpai22/subsail/internal/subtitle"
)

const (
	ansiItalic    = "\x1b[3m"
	ansiBold      = "\x1b[1m"
	ansiUnderline = "\x1b[4m"
	ansiReset     = "\x1b[0m"
	ansiClearLine = "\r\x1b[K"
)

// playRenderer draws the visible subtitle. On a terminal it redraws one status
// line in place with ANSI styling; otherwise it prints a line whenever the
// visible text changes.
type playRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	inPlace bool
	last    string
	drawn   bool
}

func newPlayRenderer(out io.Writer) *playRenderer {
	return &playRenderer{out: out, inPlace: isTerminal(out)}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *playRenderer) show(st subtitle.PlaybackState, spans []subtitle.StyledSpan) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inPlace {
		fmt.Fprintf(r.out, "%s%s  %s", ansiClearLine, statusLine(st), styledLine(spans))
		r.drawn = true
		return
	}

	text := subtitle.Markup(spans)
	if text == r.last {
		return
	}
	r.last = text
	if text == "" {
		fmt.Fprintf(r.out, "%s  -\n", formatClock(st.EffectiveTime()))
		return
	}
	fmt.Fprintf(r.out, "%s  %s\n", formatClock(st.EffectiveTime()), strings.ReplaceAll(text, "\n", " / "))
}

// message prints a notice on its own line without losing the status line.
func (r *playRenderer) message(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inPlace && r.drawn {
		fmt.Fprint(r.out, ansiClearLine)
		r.drawn = false
	}
	fmt.Fprintf(r.out, format+"\n", args...)
}

func statusLine(st subtitle.PlaybackState) string {
	line := fmt.Sprintf("[%s %-7s %s", formatClock(st.ClockTime), st.Status, st.AdjustMode)
	if st.OffsetValue != 0 {
		line += fmt.Sprintf(" %+.3fs", st.OffsetValue.Seconds())
	}
	return line + "]"
}

func styledLine(spans []subtitle.StyledSpan) string {
	var sb strings.Builder
	for _, span := range spans {
		text := strings.ReplaceAll(span.Text, "\n", " / ")
		if !span.Italic && !span.Bold && !span.Underline {
			sb.WriteString(text)
			continue
		}
		if span.Italic {
			sb.WriteString(ansiItalic)
		}
		if span.Bold {
			sb.WriteString(ansiBold)
		}
		if span.Underline {
			sb.WriteString(ansiUnderline)
		}
		sb.WriteString(text)
		sb.WriteString(ansiReset)
	}
	return sb.String()
}
