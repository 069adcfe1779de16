// Package export assembles downloaded session content into single LLM-ready
// text files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/wcwagner/wwdc-dl/pkg/cache"
	"github.com/wcwagner/wwdc-dl/pkg/httpclient"
)

// sessionDirRe matches per-session directory names, which always lead with
// the numeric session id.
var sessionDirRe = regexp.MustCompile(`^(\d+)-`)

// Exporter concatenates per-session documents under a year directory. With
// Resources set it also fetches each session's resource links and appends a
// markdown rendition of the readable page content.
type Exporter struct {
	client    *httpclient.HTTPClient
	resources bool
}

// New creates an exporter. client may be nil when resources is false.
func New(client *httpclient.HTTPClient, resources bool) *Exporter {
	return &Exporter{client: client, resources: resources}
}

// Consolidated writes one export file covering the named topics, or every
// topic directory under yearDir when topicFilter is empty.
func (e *Exporter) Consolidated(ctx context.Context, yearDir, outFile string, topicFilter []string) error {
	topicDirs, err := e.topicDirs(yearDir, topicFilter)
	if err != nil {
		return err
	}

	meta := cache.Load(cache.Path(filepath.Dir(yearDir), filepath.Base(yearDir)))

	var b strings.Builder
	fmt.Fprintf(&b, "# WWDC %s\n\n", filepath.Base(yearDir))

	for _, topicDir := range topicDirs {
		if err := e.exportTopic(ctx, topicDir, meta, &b); err != nil {
			log.Error().Str("topic", filepath.Base(topicDir)).Err(err).Msg("failed to export topic")
		}
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	if err := os.WriteFile(outFile, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// Topic writes an export file for a single topic directory.
func (e *Exporter) Topic(ctx context.Context, yearDir, topic, outFile string) error {
	return e.Consolidated(ctx, yearDir, outFile, []string{topic})
}

func (e *Exporter) topicDirs(yearDir string, topicFilter []string) ([]string, error) {
	if len(topicFilter) > 0 {
		dirs := make([]string, 0, len(topicFilter))
		for _, topic := range topicFilter {
			dir := filepath.Join(yearDir, topic)
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return nil, fmt.Errorf("topic directory not found: %s", topic)
			}
			dirs = append(dirs, dir)
		}
		return dirs, nil
	}

	entries, err := os.ReadDir(yearDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read year directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(yearDir, entry.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// exportTopic appends every session under one topic directory, in session-id
// order (directory names sort that way because the id leads).
func (e *Exporter) exportTopic(ctx context.Context, topicDir string, meta *cache.Metadata, b *strings.Builder) error {
	entries, err := os.ReadDir(topicDir)
	if err != nil {
		return fmt.Errorf("failed to read topic directory: %w", err)
	}

	fmt.Fprintf(b, "## Topic: %s\n\n", filepath.Base(topicDir))

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		e.exportSession(ctx, filepath.Join(topicDir, name), meta, b)
	}
	return nil
}

func (e *Exporter) exportSession(ctx context.Context, sessionDir string, meta *cache.Metadata, b *strings.Builder) {
	fmt.Fprintf(b, "=== Session: %s ===\n\n", filepath.Base(sessionDir))

	for _, file := range []string{"summary.md", "content.md"} {
		data, err := os.ReadFile(filepath.Join(sessionDir, file))
		if err != nil {
			continue
		}
		b.Write(bytes.TrimSpace(data))
		b.WriteString("\n\n")
	}

	// Any PDFs dropped into the session directory (slides, transcripts) get
	// their text inlined.
	pdfs, _ := filepath.Glob(filepath.Join(sessionDir, "*.pdf"))
	sort.Strings(pdfs)
	for _, path := range pdfs {
		text, err := pdfText(path)
		if err != nil {
			log.Warn().Str("pdf", filepath.Base(path)).Err(err).Msg("failed to extract PDF text")
			continue
		}
		fmt.Fprintf(b, "--- PDF: %s ---\n\n%s\n\n", filepath.Base(path), text)
	}

	if e.resources && e.client != nil {
		e.exportResources(ctx, filepath.Base(sessionDir), meta, b)
	}
}

// exportResources appends a markdown rendition of each resource page recorded
// in the metadata cache for this session.
func (e *Exporter) exportResources(ctx context.Context, dirName string, meta *cache.Metadata, b *strings.Builder) {
	m := sessionDirRe.FindStringSubmatch(dirName)
	if m == nil {
		return
	}
	session, ok := meta.Sessions[m[1]]
	if !ok {
		return
	}

	for _, resource := range session.Resources {
		text, err := e.resourceMarkdown(ctx, resource.URL)
		if err != nil {
			log.Warn().Str("url", resource.URL).Err(err).Msg("failed to fetch resource")
			continue
		}
		fmt.Fprintf(b, "--- Resource: %s (%s) ---\n\n%s\n\n", resource.Title, resource.URL, text)
	}
}

func (e *Exporter) resourceMarkdown(ctx context.Context, url string) (string, error) {
	html, err := e.client.GetString(ctx, url)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract readable content: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil {
		return "", fmt.Errorf("failed to convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// pdfText extracts plain text from a PDF file.
func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
