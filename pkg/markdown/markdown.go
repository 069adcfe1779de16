// Package markdown renders one session's extracted content into a single
// markdown document, interleaving code samples into the transcript by
// timestamp.
package markdown

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wcwagner/wwdc-dl/pkg/domain"
)

// Render produces the content.md document for a session. Sections with no
// source data are omitted entirely. Code samples keyed by timestamp are
// flushed into the transcript just before the first entry at or past their
// timestamp; samples with no usable timestamp are appended at the end in
// extraction order.
func Render(session *domain.Session, content *domain.Content, year string) string {
	var lines []string

	title := session.Title
	if title == "" {
		title = "Unknown Session"
	}
	lines = append(lines, fmt.Sprintf("# %s", title), "")
	lines = append(lines, fmt.Sprintf("**Session %s** - WWDC %s", session.ID, year), "")

	if content.Description != "" {
		lines = append(lines, "## Description", content.Description, "")
	}

	if len(content.Chapters) > 0 {
		lines = append(lines, "## Chapters")
		for _, chapter := range content.Chapters {
			lines = append(lines, fmt.Sprintf("- %s - %s", chapter.Time, chapter.Name))
		}
		lines = append(lines, "")
	}

	if len(content.Resources) > 0 {
		lines = append(lines, "## Resources")
		for _, resource := range content.Resources {
			lines = append(lines, fmt.Sprintf("- [%s](%s)", resource.Title, resource.URL))
		}
		lines = append(lines, "")
	}

	if len(content.Transcript) > 0 || len(content.CodeSamples) > 0 {
		lines = append(lines, "## Transcript", "")
		lines = appendTimeline(lines, content)
	}

	return strings.Join(lines, "\n")
}

// appendTimeline walks the transcript in order, flushing every still-pending
// code-sample group whose timestamp is at or before the current entry. Groups
// flush in ascending order and never twice; ties render code before text.
func appendTimeline(lines []string, content *domain.Content) []string {
	timed := make(map[int][]domain.CodeSample)
	var untimed []domain.CodeSample
	for _, sample := range content.CodeSamples {
		if secs, ok := parseSeconds(sample.Timestamp); ok {
			timed[secs] = append(timed[secs], sample)
		} else {
			untimed = append(untimed, sample)
		}
	}

	for _, entry := range content.Transcript {
		if secs, ok := parseSeconds(entry.Timestamp); ok {
			for _, codeSecs := range sortedKeys(timed) {
				if codeSecs > secs {
					break
				}
				for _, sample := range timed[codeSecs] {
					lines = appendCodeSample(lines, sample, codeSecs)
				}
				delete(timed, codeSecs)
			}
			lines = append(lines, fmt.Sprintf("[%s] %s", FormatTimestamp(entry.Timestamp), entry.Text))
		} else {
			lines = append(lines, entry.Text)
		}
	}

	// Never-reached groups flush after the walk, still in ascending order.
	for _, codeSecs := range sortedKeys(timed) {
		for _, sample := range timed[codeSecs] {
			lines = appendCodeSample(lines, sample, codeSecs)
		}
	}
	for _, sample := range untimed {
		lines = appendCodeSample(lines, sample, 0)
	}

	return lines
}

func appendCodeSample(lines []string, sample domain.CodeSample, secs int) []string {
	display := sample.TimeDisplay
	if display == "" {
		display = FormatTimestamp(strconv.Itoa(secs))
	}
	title := sample.Title
	if title == "" {
		title = "Code Sample"
	}
	language := sample.Language
	if language == "" {
		language = "swift"
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("### Code Sample: %s - [%s]", title, display))
	lines = append(lines, "")
	lines = append(lines, "```"+language)
	lines = append(lines, strings.TrimRight(sample.Code, " \t\n"))
	lines = append(lines, "```", "")
	return lines
}

// FormatTimestamp renders integer seconds as MM:SS, or H:MM:SS at an hour and
// above. Unparsable input yields the zero default rather than an error.
func FormatTimestamp(timestamp string) string {
	secs, ok := parseSeconds(timestamp)
	if !ok {
		return "00:00"
	}
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// parseSeconds accepts the raw timestamp strings found on session pages:
// decimal digits, occasionally with a fractional part.
func parseSeconds(timestamp string) (int, bool) {
	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(timestamp, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(f), true
}

func sortedKeys(m map[int][]domain.CodeSample) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
