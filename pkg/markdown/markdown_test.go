package markdown

import (
	"strings"
	"testing"

	"github.com/wcwagner/wwdc-dl/pkg/domain"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "00:00"},
		{"59", "00:59"},
		{"75", "01:15"},
		{"75.5", "01:15"},
		{"3599", "59:59"},
		{"3600", "1:00:00"},
		{"3661", "1:01:01"},
		{"7322", "2:02:02"},
		{"", "00:00"},
		{"abc", "00:00"},
		{"-5", "00:00"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Errorf("FormatTimestamp(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRender_SectionsOmittedWhenEmpty(t *testing.T) {
	session := &domain.Session{ID: "101", Title: "Keynote"}
	out := Render(session, &domain.Content{}, "2025")

	if !strings.HasPrefix(out, "# Keynote\n") {
		t.Errorf("missing title heading:\n%s", out)
	}
	if !strings.Contains(out, "**Session 101** - WWDC 2025") {
		t.Errorf("missing session line:\n%s", out)
	}
	for _, heading := range []string{"## Description", "## Chapters", "## Resources", "## Transcript"} {
		if strings.Contains(out, heading) {
			t.Errorf("empty content should omit %q:\n%s", heading, out)
		}
	}
}

func TestRender_UnknownTitle(t *testing.T) {
	out := Render(&domain.Session{ID: "101"}, &domain.Content{}, "2025")
	if !strings.HasPrefix(out, "# Unknown Session\n") {
		t.Errorf("expected fallback title:\n%s", out)
	}
}

func TestRender_StaticSections(t *testing.T) {
	session := &domain.Session{ID: "280", Title: "Rich text"}
	content := &domain.Content{
		Description: "Learn rich text.",
		Chapters: []domain.Chapter{
			{Time: "0:00", Name: "Introduction"},
			{Time: "3:17", Name: "Basics"},
		},
		Resources: []domain.Resource{
			{Title: "Docs", URL: "https://developer.apple.com/documentation/swiftui"},
		},
	}

	out := Render(session, content, "2025")
	if !strings.Contains(out, "## Description\nLearn rich text.") {
		t.Errorf("description missing:\n%s", out)
	}
	if !strings.Contains(out, "- 0:00 - Introduction") || !strings.Contains(out, "- 3:17 - Basics") {
		t.Errorf("chapter lines missing:\n%s", out)
	}
	if !strings.Contains(out, "- [Docs](https://developer.apple.com/documentation/swiftui)") {
		t.Errorf("resource link missing:\n%s", out)
	}
}

func TestRender_Interleave(t *testing.T) {
	session := &domain.Session{ID: "280", Title: "Rich text"}
	content := &domain.Content{
		Transcript: []domain.TranscriptEntry{
			{Timestamp: "0", Text: "Welcome."},
			{Timestamp: "70", Text: "First topic."},
			{Timestamp: "80", Text: "A code example."},
			{Timestamp: "280", Text: "Moving on."},
			{Timestamp: "290", Text: "Another example."},
		},
		CodeSamples: []domain.CodeSample{
			{Title: "First sample", Timestamp: "75", TimeDisplay: "1:15", Code: "let a = 1"},
			{Title: "Second sample", Timestamp: "283", TimeDisplay: "4:43", Code: "let b = 2"},
		},
	}

	out := Render(session, content, "2025")

	welcome := strings.Index(out, "[00:00] Welcome.")
	first := strings.Index(out, "[01:10] First topic.")
	sample1 := strings.Index(out, "### Code Sample: First sample - [1:15]")
	example := strings.Index(out, "[01:20] A code example.")
	moving := strings.Index(out, "[04:40] Moving on.")
	sample2 := strings.Index(out, "### Code Sample: Second sample - [4:43]")
	another := strings.Index(out, "[04:50] Another example.")

	for name, idx := range map[string]int{
		"welcome": welcome, "first": first, "sample1": sample1,
		"example": example, "moving": moving, "sample2": sample2, "another": another,
	} {
		if idx < 0 {
			t.Fatalf("%s line missing from output:\n%s", name, out)
		}
	}

	// Sample at 75s lands between the 70s and 80s entries; sample at 283s
	// lands between 280s and 290s.
	if !(welcome < first && first < sample1 && sample1 < example) {
		t.Errorf("first sample misplaced:\n%s", out)
	}
	if !(example < moving && moving < sample2 && sample2 < another) {
		t.Errorf("second sample misplaced:\n%s", out)
	}

	if strings.Count(out, "### Code Sample: First sample") != 1 {
		t.Errorf("first sample emitted more than once:\n%s", out)
	}
}

func TestRender_TieEmitsCodeFirst(t *testing.T) {
	content := &domain.Content{
		Transcript: []domain.TranscriptEntry{
			{Timestamp: "10", Text: "Before."},
			{Timestamp: "20", Text: "Exactly at the sample."},
		},
		CodeSamples: []domain.CodeSample{
			{Title: "Tied", Timestamp: "20", Code: "let x = 0"},
		},
	}

	out := Render(&domain.Session{ID: "1", Title: "T"}, content, "2025")
	sample := strings.Index(out, "### Code Sample: Tied")
	entry := strings.Index(out, "[00:20] Exactly at the sample.")
	if sample < 0 || entry < 0 {
		t.Fatalf("output missing lines:\n%s", out)
	}
	if sample > entry {
		t.Errorf("tied sample should render before the matching entry:\n%s", out)
	}
}

func TestRender_StragglersAndUntimed(t *testing.T) {
	content := &domain.Content{
		Transcript: []domain.TranscriptEntry{
			{Timestamp: "0", Text: "Only entry."},
		},
		CodeSamples: []domain.CodeSample{
			{Title: "Past the end", Timestamp: "500", Code: "let y = 1"},
			{Title: "No timestamp", Timestamp: "", Code: "let z = 2"},
			{Title: "Earlier straggler", Timestamp: "100", Code: "let w = 3"},
		},
	}

	out := Render(&domain.Session{ID: "1", Title: "T"}, content, "2025")
	entry := strings.Index(out, "[00:00] Only entry.")
	earlier := strings.Index(out, "### Code Sample: Earlier straggler - [01:40]")
	past := strings.Index(out, "### Code Sample: Past the end - [08:20]")
	untimed := strings.Index(out, "### Code Sample: No timestamp - [00:00]")
	if entry < 0 || earlier < 0 || past < 0 || untimed < 0 {
		t.Fatalf("output missing lines:\n%s", out)
	}

	// Timed stragglers flush ascending after the transcript, untimed last.
	if !(entry < earlier && earlier < past && past < untimed) {
		t.Errorf("straggler order wrong:\n%s", out)
	}
}

func TestRender_SamplesOnly(t *testing.T) {
	content := &domain.Content{
		CodeSamples: []domain.CodeSample{
			{Title: "Standalone", Timestamp: "30", Code: "print(1)"},
		},
	}

	out := Render(&domain.Session{ID: "1", Title: "T"}, content, "2025")
	if !strings.Contains(out, "## Transcript") {
		t.Errorf("transcript heading expected when samples exist:\n%s", out)
	}
	if !strings.Contains(out, "### Code Sample: Standalone - [00:30]") {
		t.Errorf("sample heading missing:\n%s", out)
	}
	if !strings.Contains(out, "```swift\nprint(1)\n```") {
		t.Errorf("fenced block missing:\n%s", out)
	}
}

func TestRender_UntimedTranscriptEntry(t *testing.T) {
	content := &domain.Content{
		Transcript: []domain.TranscriptEntry{
			{Timestamp: "", Text: "Bare line."},
			{Timestamp: "5", Text: "Timed line."},
		},
	}

	out := Render(&domain.Session{ID: "1", Title: "T"}, content, "2025")
	if !strings.Contains(out, "\nBare line.\n") {
		t.Errorf("untimed entry should render without a prefix:\n%s", out)
	}
	if !strings.Contains(out, "[00:05] Timed line.") {
		t.Errorf("timed entry missing:\n%s", out)
	}
}
