package subtitle

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	microDVDLineRegex  = regexp.MustCompile(`^\{(\d+(?:\.\d+)?)\}\{(\d+(?:\.\d+)?)\}(.*)$`)
	microDVDStyleRegex = regexp.MustCompile(`\{([yY]):([^}]*)\}`)
	microDVDCodeRegex  = regexp.MustCompile(`\{[^}]*\}`)

	subViewerTimingRegex = regexp.MustCompile(
		`^(\d{1,2}):(\d{1,2}):(\d{1,2})[.,](\d{1,3})\s*,\s*(\d{1,2}):(\d{1,2}):(\d{1,2})[.,](\d{1,3})$`,
	)
)

// parseSUB handles both .sub layouts; the first non-empty line decides which.
func parseSUB(text string) (*parsed, error) {
	lines := strings.Split(text, "\n")

	dialect := DialectNone
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			dialect = detectSubDialect(line)
			break
		}
	}

	switch dialect {
	case DialectMicroDVD:
		return parseMicroDVD(lines), nil
	case DialectSubViewer:
		return parseSubViewer(lines), nil
	default:
		return nil, errorf(KindParse, "cannot detect .sub file type")
	}
}

func detectSubDialect(firstLine string) Dialect {
	switch {
	case strings.HasPrefix(firstLine, "{"):
		return DialectMicroDVD
	case strings.HasPrefix(firstLine, "["):
		return DialectSubViewer
	case unicode.IsDigit(rune(firstLine[0])):
		return DialectSubViewer
	default:
		return DialectNone
	}
}

func parseMicroDVD(lines []string) *parsed {
	p := &parsed{format: FormatSUB, dialect: DialectMicroDVD}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		matches := microDVDLineRegex.FindStringSubmatch(line)
		if matches == nil {
			p.skipped++
			continue
		}

		// converted files sometimes carry fractional frames
		startFrame, errStart := parseFrame(matches[1])
		endFrame, errEnd := parseFrame(matches[2])
		if errStart != nil || errEnd != nil {
			p.skipped++
			continue
		}
		text := strings.TrimSpace(matches[3])

		// {1}{1}<fps> carries the frame rate instead of a cue
		if startFrame == 1 && endFrame == 1 {
			fps, err := ParseFrameRate(microDVDCodeRegex.ReplaceAllString(text, ""))
			if err != nil {
				p.skipped++
				continue
			}
			p.embeddedFPS = &fps
			continue
		}

		if strings.EqualFold(text, "[END]") {
			break
		}

		if endFrame < startFrame {
			p.skipped++
			continue
		}

		p.cues = append(p.cues, rawCue{
			index:      len(p.cues) + 1,
			framed:     true,
			startFrame: startFrame,
			endFrame:   endFrame,
			text:       microDVDToMarkup(text),
		})
	}
	return p
}

func parseFrame(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// microDVDToMarkup rewrites {y:ibu} (line scope) and {Y:ibu} (cue scope)
// into tags the decoration normalizer understands, drops every other control
// code and turns | into line breaks.
func microDVDToMarkup(text string) string {
	var cueOpen, cueClose string
	for _, m := range microDVDStyleRegex.FindAllStringSubmatch(text, -1) {
		if m[1] == "Y" {
			open, closing := styleTags(m[2])
			cueOpen += open
			cueClose = closing + cueClose
		}
	}

	parts := strings.Split(text, "|")
	for i, part := range parts {
		var open, closing string
		for _, m := range microDVDStyleRegex.FindAllStringSubmatch(part, -1) {
			if m[1] == "y" {
				o, c := styleTags(m[2])
				open += o
				closing = c + closing
			}
		}
		parts[i] = open + strings.TrimSpace(microDVDCodeRegex.ReplaceAllString(part, "")) + closing
	}

	return cueOpen + strings.Join(parts, "\n") + cueClose
}

func styleTags(codes string) (string, string) {
	var open, closing string
	codes = strings.ToLower(codes)
	for _, tag := range []string{"i", "b", "u"} {
		if strings.Contains(codes, tag) {
			open += "<" + tag + ">"
			closing = "</" + tag + ">" + closing
		}
	}
	return open, closing
}

// parseSubViewer reads SubViewer 2.0: bracketed header lines, then blocks of
// a "start,end" timing line followed by text lines.
func parseSubViewer(lines []string) *parsed {
	p := &parsed{format: FormatSUB, dialect: DialectSubViewer}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}

		var textLines []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			i++
			textLines = append(textLines, strings.TrimSpace(lines[i]))
		}

		matches := subViewerTimingRegex.FindStringSubmatch(line)
		if matches == nil {
			p.skipped++
			continue
		}
		start, err := parseClock(matches[1], matches[2], matches[3], matches[4])
		if err != nil {
			p.skipped++
			continue
		}
		end, err := parseClock(matches[5], matches[6], matches[7], matches[8])
		if err != nil || end < start || len(textLines) == 0 {
			p.skipped++
			continue
		}

		text := strings.Join(textLines, "\n")
		text = strings.ReplaceAll(text, "[br]", "\n")
		text = strings.ReplaceAll(text, "[BR]", "\n")

		p.cues = append(p.cues, rawCue{
			index: len(p.cues) + 1,
			start: start,
			end:   end,
			text:  text,
		})
	}
	return p
}
