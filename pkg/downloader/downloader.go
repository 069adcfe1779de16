// Package downloader coordinates metadata resolution, content and video
// persistence, and the on-disk cache for batches of sessions.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wcwagner/wwdc-dl/pkg/cache"
	"github.com/wcwagner/wwdc-dl/pkg/domain"
	"github.com/wcwagner/wwdc-dl/pkg/extract"
	"github.com/wcwagner/wwdc-dl/pkg/httpclient"
	"github.com/wcwagner/wwdc-dl/pkg/markdown"
	"github.com/wcwagner/wwdc-dl/pkg/sanitize"
	"github.com/wcwagner/wwdc-dl/pkg/topics"
)

// DefaultWorkers bounds how many sessions are processed simultaneously.
const DefaultWorkers = 5

// MediaDownloader acquires a video URL to a destination path. Implemented by
// pkg/media; tests substitute a fake.
type MediaDownloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Config holds construction parameters for a Downloader.
type Config struct {
	Year      string
	OutputDir string
	BaseURL   string // defaults to the production site
	FeedURL   string // defaults to topics.DefaultFeedURL
	Client    *httpclient.HTTPClient
	Topics    *topics.Index
	Media     MediaDownloader
	Workers   int
}

// Result is the per-session outcome of a batch. One session's failure never
// aborts the others.
type Result struct {
	SessionID string
	Title     string
	Skipped   bool
	Err       error
}

// Downloader owns the in-memory metadata cache for a batch run. The cache
// file is read once at batch start and written once at batch end; it is not
// safe to share the output directory between concurrent processes.
type Downloader struct {
	year      string
	outputDir string
	baseURL   string
	feedURL   string
	client    *httpclient.HTTPClient
	topics    *topics.Index
	media     MediaDownloader
	workers   int

	mu   sync.Mutex
	meta *cache.Metadata
}

// New creates a Downloader. Zero-value Workers falls back to DefaultWorkers.
func New(cfg Config) *Downloader {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://developer.apple.com"
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = topics.DefaultFeedURL
	}
	return &Downloader{
		year:      cfg.Year,
		outputDir: cfg.OutputDir,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		feedURL:   cfg.FeedURL,
		client:    cfg.Client,
		topics:    cfg.Topics,
		media:     cfg.Media,
		workers:   cfg.Workers,
		meta:      cache.Load(cache.Path(cfg.OutputDir, cfg.Year)),
	}
}

type job struct {
	sessionID string
	topic     string
}

// DownloadSessions downloads the given session ids. Topics are resolved from
// metadata during download.
func (d *Downloader) DownloadSessions(ctx context.Context, sessionIDs []string, textOnly, force bool) []Result {
	jobs := make([]job, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		jobs = append(jobs, job{sessionID: id})
	}
	return d.run(ctx, jobs, textOnly, force)
}

// DownloadTopic downloads every session listed under a topic, or under all
// topics when topic is "all".
func (d *Downloader) DownloadTopic(ctx context.Context, topic string, textOnly, force bool) ([]Result, error) {
	var sessions []domain.Session
	var err error

	if strings.EqualFold(topic, "all") {
		sessions, err = d.topics.AllSessions(ctx)
		if err != nil {
			// Topic pages occasionally restructure; the video feed still
			// enumerates sessions, just without topic placement.
			log.Warn().Err(err).Msg("topic pages yielded no sessions, trying the video feed")
			sessions, err = topics.SessionsFromFeed(ctx, d.feedURL, d.year)
		}
	} else {
		sessions, err = d.topics.SessionsForTopic(ctx, topic)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for topic %s: %w", topic, err)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no sessions found for topic: %s", topic)
	}

	log.Info().Str("topic", topic).Int("sessions", len(sessions)).Msg("found sessions")

	jobs := make([]job, 0, len(sessions))
	for _, s := range sessions {
		sessionTopic := s.Topic
		if sessionTopic == "" && !strings.EqualFold(topic, "all") {
			sessionTopic = topic
		}
		d.mu.Lock()
		if sessionTopic != "" {
			d.meta.TopicMapping[s.ID] = sessionTopic
		}
		d.mu.Unlock()
		jobs = append(jobs, job{sessionID: s.ID, topic: sessionTopic})
	}

	return d.run(ctx, jobs, textOnly, force), nil
}

// run schedules all jobs over a fixed pool of workers, collects per-session
// results, and persists the metadata cache once the batch completes. Jobs are
// deduplicated by session id before scheduling so one id is never in flight
// on two workers at once; the first occurrence keeps its topic.
func (d *Downloader) run(ctx context.Context, jobs []job, textOnly, force bool) []Result {
	seen := make(map[string]bool, len(jobs))
	unique := jobs[:0]
	for _, j := range jobs {
		if seen[j.sessionID] {
			continue
		}
		seen[j.sessionID] = true
		unique = append(unique, j)
	}
	jobs = unique

	jobChan := make(chan job, len(jobs))
	for _, j := range jobs {
		jobChan <- j
	}
	close(jobChan)

	resultsChan := make(chan Result, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				resultsChan <- d.downloadOne(ctx, j, textOnly, force)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]Result, 0, len(jobs))
	var succeeded, failed, skipped int
	for res := range resultsChan {
		switch {
		case res.Err != nil:
			failed++
			log.Error().Str("session", res.SessionID).Err(res.Err).Msg("session failed")
		case res.Skipped:
			skipped++
			log.Info().Str("session", res.SessionID).Msg("already downloaded, skipping")
		default:
			succeeded++
			log.Info().Str("session", res.SessionID).Str("title", res.Title).Msg("completed session")
		}
		results = append(results, res)
	}

	log.Info().Int("succeeded", succeeded).Int("failed", failed).Int("skipped", skipped).Msg("batch complete")

	if err := d.saveCache(); err != nil {
		log.Error().Err(err).Msg("failed to save metadata cache")
	}

	return results
}

// Resolve returns the cached metadata record for a session, fetching and
// caching it on first use. A session is never re-fetched within a run.
func (d *Downloader) Resolve(ctx context.Context, sessionID string) (*domain.Session, error) {
	d.mu.Lock()
	if session, ok := d.meta.Sessions[sessionID]; ok {
		d.mu.Unlock()
		return session, nil
	}
	d.mu.Unlock()

	pageURL := d.sessionURL(sessionID)
	html, err := d.client.GetString(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session page: %w", err)
	}

	videos := extract.ExtractVideoURLs(html, d.year, sessionID)
	topic, _ := d.topics.TopicForSession(ctx, sessionID)

	session := &domain.Session{
		ID:        sessionID,
		Year:      d.year,
		Title:     videos.Title,
		URL:       pageURL,
		VideoURLs: videos.URLs(),
		Topic:     topic,
	}

	d.mu.Lock()
	d.meta.Sessions[sessionID] = session
	if topic != "" {
		d.meta.TopicMapping[sessionID] = topic
	}
	d.mu.Unlock()

	return session, nil
}

// downloadOne processes a single session end to end: resolve metadata, save
// rendered content, then acquire the video unless textOnly.
func (d *Downloader) downloadOne(ctx context.Context, j job, textOnly, force bool) Result {
	res := Result{SessionID: j.sessionID}

	session, err := d.Resolve(ctx, j.sessionID)
	if err != nil {
		res.Err = fmt.Errorf("failed to get metadata: %w", err)
		return res
	}
	res.Title = session.Title

	topic := j.topic
	if topic == "" {
		topic = session.Topic
	}

	sessionPath, err := d.sessionDir(session, topic)
	if err != nil {
		res.Err = err
		return res
	}

	contentFile := filepath.Join(sessionPath, "content.md")
	videoFile := filepath.Join(sessionPath, "video.mp4")

	if !force && exists(contentFile) && (textOnly || exists(videoFile)) {
		res.Skipped = true
		return res
	}

	log.Info().Str("session", j.sessionID).Str("title", session.Title).Msg("downloading session")

	var errs []error
	if err := d.saveContent(ctx, session, contentFile); err != nil {
		errs = append(errs, err)
	}

	if !textOnly {
		if err := d.saveVideo(ctx, session, videoFile, force); err != nil {
			errs = append(errs, err)
		}
	}

	res.Err = errors.Join(errs...)
	return res
}

// saveContent fetches the session page, extracts its content, folds the
// chapters, resources and description back into the cached metadata record,
// and writes the rendered markdown.
func (d *Downloader) saveContent(ctx context.Context, session *domain.Session, contentFile string) error {
	html, err := d.client.GetString(ctx, d.sessionURL(session.ID))
	if err != nil {
		return fmt.Errorf("failed to fetch content: %w", err)
	}

	doc, err := extract.ParseDocument(html)
	if err != nil {
		return fmt.Errorf("failed to parse content: %w", err)
	}

	content := extract.ExtractContent(doc)
	if session.Title == "" && len(content.Transcript) == 0 && len(content.CodeSamples) == 0 {
		log.Warn().Str("session", session.ID).Msg("page yielded no title, transcript, or code")
	}

	d.mu.Lock()
	session.Chapters = content.Chapters
	session.Resources = content.Resources
	session.Description = content.Description
	d.mu.Unlock()

	rendered := markdown.Render(session, &content, d.year)
	if err := os.WriteFile(contentFile, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("failed to write content file: %w", err)
	}
	return nil
}

// saveVideo picks the preferred video URL (SD, then HD, then the HLS
// fallback) and delegates to the media downloader.
func (d *Downloader) saveVideo(ctx context.Context, session *domain.Session, videoFile string, force bool) error {
	if !force && exists(videoFile) {
		return nil
	}

	urls := session.VideoURLs
	downloadURL := urls.SD
	if downloadURL == "" {
		downloadURL = urls.HD
	}
	if downloadURL == "" {
		downloadURL = urls.HLS
	}
	if downloadURL == "" {
		return fmt.Errorf("no video URL found for session %s", session.ID)
	}

	if err := d.media.Download(ctx, downloadURL, videoFile); err != nil {
		return fmt.Errorf("failed to download video: %w", err)
	}
	return nil
}

// sessionDir computes and creates the per-session output directory:
// <out>/<year>/<topic-or-general>/<sanitized id-title>.
func (d *Downloader) sessionDir(session *domain.Session, topic string) (string, error) {
	bucket := "general"
	if topic != "" && topic != "general" && !strings.EqualFold(topic, "all") {
		bucket = sanitize.Filename(topic)
	}

	title := session.Title
	if title == "" {
		title = "session-" + session.ID
	}

	dir := filepath.Join(d.outputDir, d.year, bucket, sanitize.Filename(session.ID+"-"+title))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create session dir: %w", err)
	}
	return dir, nil
}

func (d *Downloader) sessionURL(sessionID string) string {
	return fmt.Sprintf("%s/videos/play/wwdc%s/%s/", d.baseURL, d.year, sessionID)
}

func (d *Downloader) saveCache() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.meta.Save(cache.Path(d.outputDir, d.year))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
