package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	outTag = "[OUT] "
	errTag = "[ERR] "
)

// CleanOutput strips terminal escape sequences and carriage returns from
// captured agent output.
func CleanOutput(raw string) string {
	return strings.ReplaceAll(ansi.Strip(raw), "\r", "")
}

// ColorizeOutput cleans captured output and colors stderr lines.
func ColorizeOutput(raw string) string {
	lines := strings.SplitAfter(CleanOutput(raw), "\n")
	var sb strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, errTag):
			body := strings.TrimSuffix(line, "\n")
			sb.WriteString(Render(ErrorStyle, body))
			if len(body) < len(line) {
				sb.WriteByte('\n')
			}
		case strings.HasPrefix(line, outTag):
			sb.WriteString(Render(MutedStyle, outTag[:len(outTag)-1]))
			sb.WriteString(line[len(outTag)-1:])
		default:
			sb.WriteString(line)
		}
	}
	return sb.String()
}

// TailLines returns the last n lines of s.
func TailLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	trimmed := strings.TrimSuffix(s, "\n")
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n") + "\n"
}

// StripStreamTags removes the [OUT]/[ERR] prefix from every line.
func StripStreamTags(s string) string {
	lines := strings.SplitAfter(s, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, outTag) || strings.HasPrefix(line, errTag) {
			lines[i] = line[len(outTag):]
		}
	}
	return strings.Join(lines, "")
}
