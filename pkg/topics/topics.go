// Package topics maintains the site's topic taxonomy and the session listings
// reachable from each topic page.
package topics

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/wcwagner/wwdc-dl/pkg/domain"
	"github.com/wcwagner/wwdc-dl/pkg/httpclient"
)

// Slugs is the fixed enumeration of topic categories in the site's taxonomy.
// Listing pages hang off /videos/<slug>/.
var Slugs = []string{
	"accessibility-inclusion",
	"app-services",
	"app-store-distribution-marketing",
	"audio-video",
	"business-education",
	"design",
	"developer-tools",
	"essentials",
	"graphics-games",
	"health-fitness",
	"machine-learning-ai",
	"maps-location",
	"photos-camera",
	"privacy-security",
	"safari-web",
	"spatial-computing",
	"swift",
	"swiftui-ui-frameworks",
	"system-services",
}

// sessionLinkRe matches session play links for any year, e.g.
// /videos/play/wwdc2025/280/.
var sessionLinkRe = regexp.MustCompile(`^/videos/play/wwdc(\d{4})/(\d+)/?$`)

// absSessionLinkRe is the absolute-URL form, as it appears in feed items.
var absSessionLinkRe = regexp.MustCompile(`/videos/play/wwdc(\d{4})/(\d+)/?$`)

// Index enumerates topics and resolves session listings for one year. Listing
// pages are fetched at most once per slug for the index's lifetime.
type Index struct {
	year    string
	baseURL string
	client  *httpclient.HTTPClient

	mu       sync.Mutex
	listings map[string][]domain.Session // slug -> sessions from that page, all years
	byID     map[string]string           // session id -> topic, year-filtered
}

// NewIndex creates an index for the given year against the production site.
func NewIndex(year string, client *httpclient.HTTPClient) *Index {
	return NewIndexWithBaseURL(year, client, "https://developer.apple.com")
}

// NewIndexWithBaseURL creates an index against an alternate origin. Tests use
// this to point at a local server.
func NewIndexWithBaseURL(year string, client *httpclient.HTTPClient, baseURL string) *Index {
	return &Index{
		year:     year,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   client,
		listings: make(map[string][]domain.Session),
		byID:     make(map[string]string),
	}
}

// ListTopics returns the known topic slugs. No network call is made.
func (i *Index) ListTopics() []string {
	out := make([]string, len(Slugs))
	copy(out, Slugs)
	return out
}

// SessionsForTopic returns the sessions advertised on a topic's listing page,
// filtered to the index's year. The page is fetched once and cached.
func (i *Index) SessionsForTopic(ctx context.Context, topic string) ([]domain.Session, error) {
	listing, err := i.listing(ctx, topic)
	if err != nil {
		return nil, err
	}

	var sessions []domain.Session
	for _, s := range listing {
		if s.Year == i.year {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// AllSessions returns the deduplicated union across every topic page for the
// index's year. When a session appears under multiple topics the first topic
// encountered wins, which keeps the list consistent with the mapping this
// method records.
func (i *Index) AllSessions(ctx context.Context) ([]domain.Session, error) {
	var all []domain.Session
	seen := make(map[string]bool)

	for _, topic := range Slugs {
		sessions, err := i.SessionsForTopic(ctx, topic)
		if err != nil {
			continue
		}
		for _, s := range sessions {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			all = append(all, s)
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no sessions found for year %s", i.year)
	}
	return all, nil
}

// TopicForSession finds which topic lists the given session id, scanning topic
// pages lazily until a match. Results are memoized; a session not listed under
// any topic returns ok=false.
func (i *Index) TopicForSession(ctx context.Context, sessionID string) (string, bool) {
	i.mu.Lock()
	if topic, ok := i.byID[sessionID]; ok {
		i.mu.Unlock()
		return topic, true
	}
	i.mu.Unlock()

	for _, topic := range Slugs {
		sessions, err := i.SessionsForTopic(ctx, topic)
		if err != nil {
			continue
		}
		for _, s := range sessions {
			if s.ID == sessionID {
				return topic, true
			}
		}
	}

	return "", false
}

// listing fetches and parses one topic page, caching the result for the
// index's lifetime regardless of year.
func (i *Index) listing(ctx context.Context, topic string) ([]domain.Session, error) {
	i.mu.Lock()
	if cached, ok := i.listings[topic]; ok {
		i.mu.Unlock()
		return cached, nil
	}
	i.mu.Unlock()

	pageURL := fmt.Sprintf("%s/videos/%s/", i.baseURL, topic)
	html, err := i.client.GetString(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch topic page %s: %w", topic, err)
	}

	sessions, err := parseListing(html, i.baseURL, topic)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	i.listings[topic] = sessions
	for _, s := range sessions {
		// First topic seen for an id wins, matching AllSessions dedupe.
		if s.Year == i.year {
			if _, ok := i.byID[s.ID]; !ok {
				i.byID[s.ID] = topic
			}
		}
	}
	i.mu.Unlock()

	return sessions, nil
}

// parseListing scans a topic page for session play links. Each link's display
// title comes from the nearest ancestor's heading, falling back to the
// anchor's own text.
func parseListing(html, baseURL, topic string) ([]domain.Session, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse topic page: %w", err)
	}

	var sessions []domain.Session
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		m := sessionLinkRe.FindStringSubmatch(href)
		if m == nil {
			return
		}

		sessions = append(sessions, domain.Session{
			ID:    m[2],
			Year:  m[1],
			Title: linkTitle(link),
			URL:   baseURL + href,
			Topic: topic,
		})
	})

	return sessions, nil
}

// linkTitle walks up from the anchor looking for a heading in each ancestor.
func linkTitle(link *goquery.Selection) string {
	for parent := link.Parent(); parent.Length() > 0; parent = parent.Parent() {
		if heading := parent.Find("h4").First(); heading.Length() > 0 {
			if title := strings.TrimSpace(heading.Text()); title != "" {
				return title
			}
		}
	}
	return strings.TrimSpace(link.Text())
}
