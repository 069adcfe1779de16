// Package extract pulls typed records out of a raw session page. Every
// extractor returns an empty result when its anchor element is missing; a page
// without a details panel, code panel or transcript still yields a valid,
// mostly-empty Content. Only the page fetch itself can fail.
package extract

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"

	"github.com/wcwagner/wwdc-dl/pkg/domain"
)

// BaseURL is the site origin that relative resource links resolve against.
const BaseURL = "https://developer.apple.com"

// Markers for the code-samples panel are not stable across page revisions, so
// candidates are tried in order until one matches.
var codePanelSelectors = []string{
	"li.supplement.sample-code",
	`li[data-supplement-id="sample-code"]`,
	`li[data-supplement-id="code"]`,
}

var resourcePanelSelectors = []string{
	`li[data-supplement-id="resources"]`,
	"li.supplement.resources",
	"section.resources",
}

var (
	ogTitleRe   = regexp.MustCompile(`<meta property="og:title" content="([^"]+)"`)
	timeParamRe = regexp.MustCompile(`\?time=(\d+)`)
	chapterRe   = regexp.MustCompile(`^(\d+(?::\d+)+)\s*-\s*(.+)$`)
	digitsRe    = regexp.MustCompile(`^\d+$`)
	clickseekRe = regexp.MustCompile(`(\d+)`)
	langClassRe = regexp.MustCompile(`language-([a-z0-9+-]+)`)
)

// ParseDocument parses a session page into a goquery document.
func ParseDocument(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// VideoResult is the subset of session metadata recoverable from raw page
// text: the three video URL variants plus the cleaned page title.
type VideoResult struct {
	HD    string
	SD    string
	HLS   string
	Title string
}

// URLs returns the result as a domain value.
func (v VideoResult) URLs() domain.VideoURLs {
	return domain.VideoURLs{HD: v.HD, SD: v.SD, HLS: v.HLS}
}

// ExtractVideoURLs scans raw HTML for the three known video URL shapes for the
// given year and session id. The first match per category wins, and only the
// first .m3u8 overall is kept. The URLs live inside script blobs, so this
// works on the raw text rather than the parsed tree.
func ExtractVideoURLs(htmlContent, year, sessionID string) VideoResult {
	var res VideoResult

	if m := ogTitleRe.FindStringSubmatch(htmlContent); m != nil {
		res.Title = CleanTitle(html.UnescapeString(m[1]), year)
	}

	qYear := regexp.QuoteMeta(year)
	qID := regexp.QuoteMeta(sessionID)
	videoRe := regexp.MustCompile(`(?i)(https://devstreaming-cdn\.apple\.com/videos/wwdc/` +
		qYear + `/` + qID + `/[^"]*?/(downloads/wwdc` + qYear + `-` + qID + `_(hd|sd)\.mp4|cmaf\.m3u8))|` +
		`(https://events-delivery\.apple\.com/[^"]*?\.m3u8)`)

	for _, m := range videoRe.FindAllString(htmlContent, -1) {
		switch {
		case strings.Contains(m, "_hd.mp4"):
			if res.HD == "" {
				res.HD = m
			}
		case strings.Contains(m, "_sd.mp4"):
			if res.SD == "" {
				res.SD = m
			}
		case strings.Contains(m, ".m3u8"):
			if res.HLS == "" {
				res.HLS = m
			}
		}
	}

	return res
}

// CleanTitle strips the site's known trailing title suffixes. Longer suffixes
// are tried first so that a partial strip never leaves " - Videos" behind.
func CleanTitle(title, year string) string {
	suffixes := []string{
		fmt.Sprintf(" - WWDC %s - Apple Developer", year),
		" - Videos - Apple Developer",
		" - Apple Developer",
	}
	if len(year) == 4 {
		suffixes = append([]string{
			fmt.Sprintf(" - WWDC%s - Videos - Apple Developer", year[2:]),
		}, suffixes...)
	}

	for _, suffix := range suffixes {
		trimmed := strings.TrimSuffix(title, suffix)
		if trimmed != title {
			title = trimmed
			break
		}
	}
	return strings.TrimSpace(title)
}

// ExtractContent runs every panel extractor over one parsed session page.
func ExtractContent(doc *goquery.Document) domain.Content {
	return domain.Content{
		Description: ExtractDescription(doc),
		Chapters:    ExtractChapters(doc),
		Resources:   ExtractResources(doc),
		CodeSamples: ExtractCodeSamples(doc),
		Transcript:  ExtractTranscript(doc),
	}
}

// ExtractDescription returns the first paragraph of the details panel, falling
// back to the page's meta description. Returns "" when neither exists.
func ExtractDescription(doc *goquery.Document) string {
	details := doc.Find(`li[data-supplement-id="details"]`).First()
	if details.Length() > 0 {
		if p := details.Find("p").First(); p.Length() > 0 {
			if text := strings.TrimSpace(p.Text()); text != "" {
				return text
			}
		}
	}

	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		return strings.TrimSpace(content)
	}

	return ""
}

// ExtractChapters collects chapter markers from the details panel. Each item's
// visible text must be "<time> - <name>"; items without that shape are
// skipped. The raw seconds value comes from the jump link's time parameter,
// independent of the display time.
func ExtractChapters(doc *goquery.Document) []domain.Chapter {
	var chapters []domain.Chapter

	details := doc.Find(`li[data-supplement-id="details"]`).First()
	if details.Length() == 0 {
		return chapters
	}

	details.Find("li").Each(func(_ int, li *goquery.Selection) {
		link := li.Find(`a[href*="?time="]`).First()
		if link.Length() == 0 {
			return
		}

		m := chapterRe.FindStringSubmatch(strings.TrimSpace(li.Text()))
		if m == nil {
			return
		}

		var timestamp string
		if href, ok := link.Attr("href"); ok {
			if tm := timeParamRe.FindStringSubmatch(href); tm != nil {
				timestamp = tm[1]
			}
		}

		chapters = append(chapters, domain.Chapter{
			Time:      m[1],
			Timestamp: timestamp,
			Name:      strings.TrimSpace(m[2]),
		})
	})

	return chapters
}

// ExtractResources collects anchors inside the resources panel, resolving
// relative hrefs against the site origin and deduplicating by resolved URL
// (first seen wins).
func ExtractResources(doc *goquery.Document) []domain.Resource {
	var resources []domain.Resource

	panel := findFirst(doc, resourcePanelSelectors)
	if panel == nil {
		return resources
	}

	seen := make(map[string]bool)
	panel.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		text := strings.TrimSpace(link.Text())
		if href == "" || text == "" {
			return
		}

		resolved := resolveURL(href)
		if seen[resolved] {
			return
		}
		seen[resolved] = true

		resources = append(resources, domain.Resource{Title: text, URL: resolved})
	})

	return resources
}

// ExtractCodeSamples enumerates sample containers inside the code panel in
// document order. A sample whose decoded code is empty after trimming is
// discarded here and never reaches the renderer.
func ExtractCodeSamples(doc *goquery.Document) []domain.CodeSample {
	var samples []domain.CodeSample

	panel := findFirst(doc, codePanelSelectors)
	if panel == nil {
		return samples
	}

	panel.Find("li.sample-code-main-container").Each(func(_ int, container *goquery.Selection) {
		sample := domain.CodeSample{Language: "swift"}

		link := container.Find("a.jump-to-time-sample").First()
		if link.Length() > 0 {
			sample.Title = strings.TrimSpace(link.Text())
			sample.Timestamp = sampleTimestamp(link)
			sample.TimeDisplay = timeDisplayBefore(link)
		}

		code := container.Find("pre.code-source code").First()
		if code.Length() == 0 {
			return
		}
		// The HTML parser has already decoded entities; Text() is verbatim.
		sample.Code = code.Text()

		if class, ok := code.Attr("class"); ok {
			if m := langClassRe.FindStringSubmatch(class); m != nil {
				sample.Language = m[1]
			}
		}

		if strings.TrimSpace(sample.Code) == "" {
			return
		}
		samples = append(samples, sample)
	})

	return samples
}

// sampleTimestamp reads the jump link's data attribute, falling back to the
// numeric argument of its inline click handler. The result is always a string
// of decimal digits, or empty.
func sampleTimestamp(link *goquery.Selection) string {
	if ts, ok := link.Attr("data-start-time"); ok {
		ts = strings.TrimSpace(ts)
		if digitsRe.MatchString(ts) {
			return ts
		}
		if f, err := strconv.ParseFloat(ts, 64); err == nil && f >= 0 {
			return strconv.Itoa(int(f))
		}
	}

	if onclick, ok := link.Attr("onclick"); ok {
		if m := clickseekRe.FindStringSubmatch(onclick); m != nil {
			return m[1]
		}
	}

	return ""
}

// timeDisplayBefore reconstructs the human time label from the text nodes that
// precede the jump link inside its parent paragraph, trimming the trailing
// " -" separator.
func timeDisplayBefore(link *goquery.Selection) string {
	parent := link.Parent()
	if goquery.NodeName(parent) != "p" || len(parent.Nodes) == 0 || len(link.Nodes) == 0 {
		return ""
	}

	var b strings.Builder
	for child := parent.Nodes[0].FirstChild; child != nil; child = child.NextSibling {
		if child == link.Nodes[0] {
			break
		}
		if child.Type == nethtml.TextNode {
			b.WriteString(child.Data)
		}
	}

	text := strings.TrimSpace(b.String())
	text = strings.TrimSuffix(text, "-")
	return strings.TrimSpace(text)
}

// ExtractTranscript collects sentence spans from the transcript section.
// A sentence must carry a start-time attribute and non-empty text.
func ExtractTranscript(doc *goquery.Document) []domain.TranscriptEntry {
	var transcript []domain.TranscriptEntry

	section := doc.Find("section#transcript-content").First()
	if section.Length() == 0 {
		return transcript
	}

	section.Find("span.sentence").Each(func(_ int, sentence *goquery.Selection) {
		marker := sentence.Find("span[data-start]").First()
		if marker.Length() == 0 {
			return
		}
		timestamp, _ := marker.Attr("data-start")

		text := strings.TrimSpace(sentence.Text())
		if text == "" {
			return
		}

		transcript = append(transcript, domain.TranscriptEntry{
			Timestamp: strings.TrimSpace(timestamp),
			Text:      text,
		})
	})

	return transcript
}

// findFirst tries each selector in order and returns the first non-empty
// match, or nil.
func findFirst(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

func resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
