package subtitle

import (
	"regexp"
	"strconv"
	"strings"
)

var srtTimingRegex = regexp.MustCompile(
	`^(\d+):(\d{1,2}):(\d{1,2})[,.](\d{1,3})\s*-->\s*(\d+):(\d{1,2}):(\d{1,2})[,.](\d{1,3})(?:\s.*)?$`,
)

// parseSRT reads blank-line separated SubRip blocks. Blocks with a bad
// timing line, an end before their start or no text are skipped.
func parseSRT(text string) *parsed {
	p := &parsed{format: FormatSRT}

	for _, block := range splitBlocks(text) {
		cue, ok := parseSRTBlock(block)
		if !ok {
			p.skipped++
			continue
		}
		p.cues = append(p.cues, cue)
	}
	return p
}

func parseSRTBlock(lines []string) (rawCue, bool) {
	var cue rawCue

	timing := 0
	if index, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil && len(lines) > 1 {
		if index < 0 {
			return cue, false
		}
		cue.index = index
		timing = 1
	}

	matches := srtTimingRegex.FindStringSubmatch(strings.TrimSpace(lines[timing]))
	if len(matches) != 9 {
		return cue, false
	}

	start, err := parseClock(matches[1], matches[2], matches[3], matches[4])
	if err != nil {
		return cue, false
	}
	end, err := parseClock(matches[5], matches[6], matches[7], matches[8])
	if err != nil || end < start {
		return cue, false
	}

	textLines := make([]string, 0, len(lines)-timing-1)
	for _, line := range lines[timing+1:] {
		textLines = append(textLines, strings.TrimSpace(line))
	}
	if len(textLines) == 0 {
		return cue, false
	}

	cue.start = start
	cue.end = end
	cue.text = strings.Join(textLines, "\n")
	return cue, true
}

// splitBlocks groups non-blank lines separated by whitespace-only lines.
func splitBlocks(text string) [][]string {
	var (
		blocks  [][]string
		current []string
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}
