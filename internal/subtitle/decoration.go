package subtitle

import (
	"strings"
	"unicode"
)

type styleState struct {
	italic, bold, underline int
}

func (s *styleState) span(text string) StyledSpan {
	return StyledSpan{
		Text:      text,
		Italic:    s.italic > 0,
		Bold:      s.bold > 0,
		Underline: s.underline > 0,
	}
}

func (s *styleState) apply(name string, on bool) {
	var counter *int
	switch name {
	case "i":
		counter = &s.italic
	case "b":
		counter = &s.bold
	case "u":
		counter = &s.underline
	default:
		return
	}
	if on {
		*counter++
	} else if *counter > 0 {
		*counter--
	}
}

// Normalize turns raw cue markup into styled spans. Italic, bold and
// underline survive, from both HTML-like tags and {\i1}-style overrides;
// every other decoration is dropped while its text is kept.
func Normalize(raw string) []StyledSpan {
	var (
		spans []StyledSpan
		state styleState
		text  strings.Builder
	)

	flush := func() {
		if text.Len() == 0 {
			return
		}
		spans = append(spans, state.span(text.String()))
		text.Reset()
	}

	for i := 0; i < len(raw); {
		switch {
		case raw[i] == '<':
			end := strings.IndexByte(raw[i+1:], '>')
			if end < 0 || !isMarkupTag(raw[i+1:i+1+end]) {
				text.WriteByte(raw[i])
				i++
				continue
			}
			name, closing := tagName(raw[i+1 : i+1+end])
			flush()
			state.apply(name, !closing)
			i += end + 2
		case strings.HasPrefix(raw[i:], `{\`):
			end := strings.IndexByte(raw[i:], '}')
			if end < 0 {
				text.WriteByte(raw[i])
				i++
				continue
			}
			flush()
			applyOverrides(&state, raw[i+1:i+end])
			i += end + 1
		default:
			text.WriteByte(raw[i])
			i++
		}
	}
	flush()

	return NormalizeSpans(spans)
}

// isMarkupTag accepts "i", "/b", "font color=red" and the like, but not
// "3" or " x" so literal angle brackets stay text.
func isMarkupTag(body string) bool {
	body = strings.TrimPrefix(body, "/")
	if body == "" || strings.ContainsRune(body, '<') {
		return false
	}
	return unicode.IsLetter(rune(body[0]))
}

func tagName(body string) (string, bool) {
	closing := strings.HasPrefix(body, "/")
	body = strings.TrimPrefix(body, "/")
	if idx := strings.IndexFunc(body, func(r rune) bool {
		return unicode.IsSpace(r) || r == '/'
	}); idx >= 0 {
		body = body[:idx]
	}
	return strings.ToLower(body), closing
}

// applyOverrides handles an ASS override block body such as `\i1\b0\fs20`.
func applyOverrides(state *styleState, block string) {
	for _, cmd := range strings.Split(block, `\`) {
		if cmd == "" {
			continue
		}
		if cmd == "r" {
			*state = styleState{}
			continue
		}
		name := cmd[:1]
		arg := cmd[1:]
		if name != "i" && name != "b" && name != "u" {
			continue
		}
		// \b accepts font weights, anything but 0 counts as bold
		if arg == "" || strings.TrimLeft(arg, "0123456789") != "" {
			continue
		}
		state.apply(name, strings.Trim(arg, "0") != "")
	}
}

// NormalizeSpans merges neighbours with equal styles and drops empty spans.
// Applying it twice gives the same result as applying it once.
func NormalizeSpans(spans []StyledSpan) []StyledSpan {
	var out []StyledSpan
	for _, span := range spans {
		if span.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].sameStyle(span) {
			out[n-1].Text += span.Text
			continue
		}
		out = append(out, span)
	}
	return out
}

// Markup renders spans back into <i>/<b>/<u> tagged text.
func Markup(spans []StyledSpan) string {
	var sb strings.Builder
	for _, span := range spans {
		if span.Italic {
			sb.WriteString("<i>")
		}
		if span.Bold {
			sb.WriteString("<b>")
		}
		if span.Underline {
			sb.WriteString("<u>")
		}
		sb.WriteString(span.Text)
		if span.Underline {
			sb.WriteString("</u>")
		}
		if span.Bold {
			sb.WriteString("</b>")
		}
		if span.Italic {
			sb.WriteString("</i>")
		}
	}
	return sb.String()
}

// Plain drops styles and returns the bare text.
func Plain(spans []StyledSpan) string {
	var sb strings.Builder
	for _, span := range spans {
		sb.WriteString(span.Text)
	}
	return sb.String()
}
