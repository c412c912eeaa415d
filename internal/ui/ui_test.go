package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/zhubert/claudectl/internal/model"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	orig := colorEnabled
	colorEnabled = enabled
	t.Cleanup(func() { colorEnabled = orig })
}

func TestFormatTable_AlignsColumns(t *testing.T) {
	withColor(t, false)
	out := FormatTable([]string{"ID", "STATUS"}, [][]string{
		{"abc", "Active"},
		{"abcdefgh", "Stopped"},
	})
	want := "ID        STATUS\n" +
		"abc       Active\n" +
		"abcdefgh  Stopped\n"
	if out != want {
		t.Errorf("FormatTable() =\n%s\nwant\n%s", out, want)
	}
}

func TestFormatTable_StyledCellsKeepAlignment(t *testing.T) {
	withColor(t, true)
	out := FormatTable([]string{"STATUS", "NAME"}, [][]string{
		{StatusBadge(model.StatusActive), "one"},
		{StatusBadge(model.StatusError), "two"},
	})
	lines := strings.Split(strings.TrimSuffix(ansi.Strip(out), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	col := strings.Index(lines[0], "NAME")
	for _, line := range lines[1:] {
		if idx := strings.LastIndex(line, " ") + 1; idx != col {
			t.Errorf("Column misaligned in %q: %d != %d", line, idx, col)
		}
	}
}

func TestTruncateCell(t *testing.T) {
	if got := TruncateCell("a\tb\nc", 10); got != "a b c" {
		t.Errorf("TruncateCell() = %q", got)
	}
	long := strings.Repeat("x", 60)
	got := TruncateCell(long, 50)
	if DisplayWidth(got) != 50 || !strings.HasSuffix(got, "...") {
		t.Errorf("TruncateCell(long) = %q (width %d)", got, DisplayWidth(got))
	}
	if DisplayWidth("日本") != 4 {
		t.Errorf("Wide runes should count two columns, got %d", DisplayWidth("日本"))
	}
}

func TestStatusBadge_Plain(t *testing.T) {
	withColor(t, false)
	for _, st := range []model.SessionStatus{model.StatusActive, model.StatusStopped, model.StatusError} {
		if got := StatusBadge(st); got != string(st) {
			t.Errorf("StatusBadge(%s) = %q", st, got)
		}
	}
}

func TestUniqueIDPrefixLengths(t *testing.T) {
	lengths := UniqueIDPrefixLengths([]string{"abc123", "abd456", "xyz", "ABC123"})
	if lengths["abc123"] != 3 || lengths["abd456"] != 3 || lengths["xyz"] != 1 {
		t.Errorf("UniqueIDPrefixLengths() = %v", lengths)
	}

	withColor(t, false)
	if got := HighlightID("abc123", 3); got != "abc123" {
		t.Errorf("HighlightID() without color = %q", got)
	}
	if ShortID("0123456789") != "01234567" || ShortID("abc") != "abc" {
		t.Error("ShortID() truncation wrong")
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatRuntime(3725); got != "1:02:05" {
		t.Errorf("FormatRuntime() = %q", got)
	}
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		then time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "30s ago"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
		{time.Time{}, "-"},
		{now.Add(time.Hour), "-"},
	}
	for _, tt := range tests {
		if got := FormatTimeAgo(tt.then, now); got != tt.want {
			t.Errorf("FormatTimeAgo(%v) = %q, want %q", tt.then, got, tt.want)
		}
	}
}

func TestCleanOutput(t *testing.T) {
	raw := "[OUT] \x1b[32mgreen\x1b[0m\r\n[ERR] plain\n"
	if got := CleanOutput(raw); got != "[OUT] green\n[ERR] plain\n" {
		t.Errorf("CleanOutput() = %q", got)
	}

	withColor(t, false)
	if got := ColorizeOutput(raw); got != "[OUT] green\n[ERR] plain\n" {
		t.Errorf("ColorizeOutput() without color = %q", got)
	}
}

func TestTailLines(t *testing.T) {
	s := "a\nb\nc\n"
	if got := TailLines(s, 2); got != "b\nc\n" {
		t.Errorf("TailLines(2) = %q", got)
	}
	if got := TailLines(s, 10); got != s {
		t.Errorf("TailLines(10) = %q", got)
	}
	if TailLines("", 3) != "" || TailLines(s, 0) != "" {
		t.Error("TailLines of empty input or zero lines should be empty")
	}
}

func TestStripStreamTags(t *testing.T) {
	in := "[OUT] hello\n[ERR] oops\nplain [OUT] inside\n"
	if got := StripStreamTags(in); got != "hello\noops\nplain [OUT] inside\n" {
		t.Errorf("StripStreamTags() = %q", got)
	}
}

func TestHighlightJSON(t *testing.T) {
	doc := `{"sessions": []}`
	withColor(t, false)
	if HighlightJSON(doc) != doc {
		t.Error("Highlighting must be a no-op without color")
	}
	withColor(t, true)
	got := HighlightJSON(doc)
	if strings.TrimSpace(ansi.Strip(got)) != doc {
		t.Errorf("Highlighted text changed content: %q", ansi.Strip(got))
	}
}

func TestRenderFooter(t *testing.T) {
	withColor(t, false)
	got := RenderFooter([]KeyBinding{{"q", "quit"}, {"s", "stop"}}, 80)
	if got != "q: quit  |  s: stop" {
		t.Errorf("RenderFooter() = %q", got)
	}
}
