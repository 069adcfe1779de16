package topics

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/wcwagner/wwdc-dl/pkg/domain"
)

// DefaultFeedURL is the site's developer-videos RSS feed, used as a discovery
// fallback when topic listing pages stop yielding sessions.
const DefaultFeedURL = "https://developer.apple.com/videos/rss/videos.rss"

// SessionsFromFeed enumerates sessions for the given year from an RSS feed of
// video items. Items whose links are not session play URLs are ignored. The
// feed carries no topic information, so Topic is left empty.
func SessionsFromFeed(ctx context.Context, feedURL, year string) ([]domain.Session, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse video feed: %w", err)
	}

	var sessions []domain.Session
	seen := make(map[string]bool)
	for _, item := range feed.Items {
		id, itemYear, ok := parseSessionLink(item.Link)
		if !ok || itemYear != year || seen[id] {
			continue
		}
		seen[id] = true
		sessions = append(sessions, domain.Session{
			ID:    id,
			Year:  itemYear,
			Title: item.Title,
			URL:   item.Link,
		})
	}

	if len(sessions) == 0 {
		return nil, fmt.Errorf("no sessions for year %s in feed", year)
	}
	return sessions, nil
}

// parseSessionLink extracts the year and session id from an absolute session
// play URL.
func parseSessionLink(link string) (id, year string, ok bool) {
	m := absSessionLinkRe.FindStringSubmatch(link)
	if m == nil {
		return "", "", false
	}
	return m[2], m[1], true
}
