package topics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wcwagner/wwdc-dl/pkg/httpclient"
)

const swiftPage = `<html><body>
<ul class="collection-items">
  <li class="collection-item">
    <section class="grid">
      <h4 class="video-title">Meet Swift Testing</h4>
      <a href="/videos/play/wwdc2025/101/">Watch</a>
    </section>
  </li>
  <li class="collection-item">
    <section class="grid">
      <h4 class="video-title">Swift concurrency in depth</h4>
      <a href="/videos/play/wwdc2025/102/">Watch</a>
    </section>
  </li>
  <li class="collection-item">
    <section class="grid">
      <h4 class="video-title">Older session</h4>
      <a href="/videos/play/wwdc2024/250/">Watch</a>
    </section>
  </li>
  <li><a href="/videos/topics/">Not a session link</a></li>
</ul>
</body></html>`

// swiftuiPage carries no h4 headings anywhere, so titles fall back to the
// anchor text.
const swiftuiPage = `<html><body>
<ul class="collection-items">
  <li class="collection-item">
    <a href="/videos/play/wwdc2025/102/">Swift concurrency in depth</a>
  </li>
  <li class="collection-item">
    <a href="/videos/play/wwdc2025/300/">What's new in SwiftUI</a>
  </li>
</ul>
</body></html>`

func newTestIndex(t *testing.T) (*Index, *int) {
	t.Helper()

	fetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/videos/swift/", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(swiftPage))
	})
	mux.HandleFunc("/videos/swiftui-ui-frameworks/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(swiftuiPage))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewIndexWithBaseURL("2025", httpclient.NewClient(), server.URL), &fetches
}

func TestListTopics(t *testing.T) {
	index, _ := newTestIndex(t)

	topics := index.ListTopics()
	if len(topics) != len(Slugs) {
		t.Fatalf("got %d topics, want %d", len(topics), len(Slugs))
	}

	// The returned slice is a copy, not the package variable.
	topics[0] = "mutated"
	if index.ListTopics()[0] == "mutated" {
		t.Error("ListTopics should not expose shared state")
	}
}

func TestSessionsForTopic(t *testing.T) {
	index, fetches := newTestIndex(t)

	sessions, err := index.SessionsForTopic(context.Background(), "swift")
	if err != nil {
		t.Fatalf("SessionsForTopic: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2 (wwdc2024 entry filtered): %+v", len(sessions), sessions)
	}

	first := sessions[0]
	if first.ID != "101" || first.Year != "2025" || first.Topic != "swift" {
		t.Errorf("sessions[0] = %+v", first)
	}
	if first.Title != "Meet Swift Testing" {
		t.Errorf("title = %q, want heading text", first.Title)
	}

	// Second call must come from the cache.
	if _, err := index.SessionsForTopic(context.Background(), "swift"); err != nil {
		t.Fatalf("cached SessionsForTopic: %v", err)
	}
	if *fetches != 1 {
		t.Errorf("topic page fetched %d times, want 1", *fetches)
	}
}

func TestSessionsForTopic_FallbackTitle(t *testing.T) {
	index, _ := newTestIndex(t)

	sessions, err := index.SessionsForTopic(context.Background(), "swiftui-ui-frameworks")
	if err != nil {
		t.Fatalf("SessionsForTopic: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].Title != "Swift concurrency in depth" {
		t.Errorf("fallback title = %q", sessions[0].Title)
	}
	if sessions[1].ID != "300" || sessions[1].Title != "What's new in SwiftUI" {
		t.Errorf("sessions[1] = %+v", sessions[1])
	}
}

func TestSessionsForTopic_FetchError(t *testing.T) {
	index, _ := newTestIndex(t)

	if _, err := index.SessionsForTopic(context.Background(), "design"); err == nil {
		t.Fatal("expected error for a topic page that 404s")
	}
}

func TestAllSessions_Dedupe(t *testing.T) {
	index, _ := newTestIndex(t)

	sessions, err := index.AllSessions(context.Background())
	if err != nil {
		t.Fatalf("AllSessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3: %+v", len(sessions), sessions)
	}

	// Session 102 is listed under both topics; the first topic in the
	// taxonomy order wins.
	byID := make(map[string]string)
	for _, s := range sessions {
		if prev, dup := byID[s.ID]; dup {
			t.Fatalf("session %s appears twice (%s, %s)", s.ID, prev, s.Topic)
		}
		byID[s.ID] = s.Topic
	}
	if byID["102"] != "swift" {
		t.Errorf("session 102 topic = %q, want swift", byID["102"])
	}

	// The memoized mapping agrees with the dedupe: fetching the second topic
	// page must not reassign an id already seen under an earlier topic.
	topic, ok := index.TopicForSession(context.Background(), "102")
	if !ok || topic != "swift" {
		t.Errorf("TopicForSession(102) after AllSessions = %q, %v, want swift", topic, ok)
	}
}

func TestAllSessions_EmptyYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	index := NewIndexWithBaseURL("2025", httpclient.NewClient(), server.URL)
	if _, err := index.AllSessions(context.Background()); err == nil {
		t.Fatal("expected error when no topic page yields sessions")
	}
}

func TestTopicForSession(t *testing.T) {
	index, _ := newTestIndex(t)

	topic, ok := index.TopicForSession(context.Background(), "300")
	if !ok || topic != "swiftui-ui-frameworks" {
		t.Errorf("TopicForSession(300) = %q, %v", topic, ok)
	}

	// Memoized on the second lookup.
	topic, ok = index.TopicForSession(context.Background(), "300")
	if !ok || topic != "swiftui-ui-frameworks" {
		t.Errorf("memoized TopicForSession(300) = %q, %v", topic, ok)
	}

	if _, ok := index.TopicForSession(context.Background(), "999"); ok {
		t.Error("expected ok=false for an unlisted session")
	}
}
