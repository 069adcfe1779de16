// Package summarize generates per-session summary.md files with Gemini.
package summarize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

const promptTemplate = `You are summarizing a developer conference session from its transcript and code samples.

Produce a markdown summary with these sections:
## Session Info
## Context
## Key Points
## New APIs
## Code Highlights

Be specific about API names and keep code references short. Session content follows:

%s`

// Summarizer wraps a Gemini client for batch session summarization.
type Summarizer struct {
	client *genai.Client
	model  string
}

// New creates a Summarizer. apiKey must be set; model falls back to
// DefaultModel when empty.
func New(ctx context.Context, apiKey, model string) (*Summarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Summarizer{client: client, model: model}, nil
}

// SummarizeSession reads a session's content.md and writes summary.md next to
// it. An existing summary is kept unless force is set.
func (s *Summarizer) SummarizeSession(ctx context.Context, contentFile string, force bool) error {
	summaryFile := filepath.Join(filepath.Dir(contentFile), "summary.md")
	if !force {
		if _, err := os.Stat(summaryFile); err == nil {
			return nil
		}
	}

	content, err := os.ReadFile(contentFile)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(fmt.Sprintf(promptTemplate, string(content))),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return fmt.Errorf("empty response from model")
	}

	if err := os.WriteFile(summaryFile, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

// SummarizeTree walks a year or topic directory and summarizes every session
// that has a content.md. Per-session failures are reported and the walk
// continues.
func (s *Summarizer) SummarizeTree(ctx context.Context, dir string, force bool) (succeeded, failed int) {
	// Year directories nest topic/session; topic directories nest session.
	contentFiles, _ := filepath.Glob(filepath.Join(dir, "*", "*", "content.md"))
	direct, _ := filepath.Glob(filepath.Join(dir, "*", "content.md"))
	contentFiles = append(contentFiles, direct...)

	for _, contentFile := range contentFiles {
		sessionDir := filepath.Base(filepath.Dir(contentFile))
		if err := s.SummarizeSession(ctx, contentFile, force); err != nil {
			failed++
			log.Error().Str("session", sessionDir).Err(err).Msg("failed to summarize")
			continue
		}
		succeeded++
		log.Info().Str("session", sessionDir).Msg("summarized")
	}
	return succeeded, failed
}
