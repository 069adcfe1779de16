package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wcwagner/wwdc-dl/pkg/cache"
	"github.com/wcwagner/wwdc-dl/pkg/domain"
	"github.com/wcwagner/wwdc-dl/pkg/httpclient"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newExportTree(t *testing.T) (out, yearDir string) {
	t.Helper()
	out = t.TempDir()
	yearDir = filepath.Join(out, "2025")

	writeFile(t, filepath.Join(yearDir, "swift", "101-meet-swift-testing", "content.md"),
		"# Meet Swift Testing\n\ntranscript body for 101\n")
	writeFile(t, filepath.Join(yearDir, "swift", "101-meet-swift-testing", "summary.md"),
		"Summary of session 101.\n")
	writeFile(t, filepath.Join(yearDir, "swift", "102-swift-concurrency", "content.md"),
		"# Swift concurrency\n\ntranscript body for 102\n")
	writeFile(t, filepath.Join(yearDir, "developer-tools", "150-xcode", "content.md"),
		"# Xcode\n\ntranscript body for 150\n")
	return out, yearDir
}

func TestConsolidated(t *testing.T) {
	_, yearDir := newExportTree(t)
	outFile := filepath.Join(t.TempDir(), "export.txt")

	e := New(nil, false)
	if err := e.Consolidated(context.Background(), yearDir, outFile, nil); err != nil {
		t.Fatalf("Consolidated: %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "# WWDC 2025\n") {
		t.Errorf("missing year header:\n%s", text)
	}

	// Topics in lexical order, sessions in id order within each.
	tools := strings.Index(text, "## Topic: developer-tools")
	swift := strings.Index(text, "## Topic: swift")
	s101 := strings.Index(text, "=== Session: 101-meet-swift-testing ===")
	s102 := strings.Index(text, "=== Session: 102-swift-concurrency ===")
	s150 := strings.Index(text, "=== Session: 150-xcode ===")
	if tools < 0 || swift < 0 || s101 < 0 || s102 < 0 || s150 < 0 {
		t.Fatalf("headers missing:\n%s", text)
	}
	if !(tools < s150 && s150 < swift && swift < s101 && s101 < s102) {
		t.Errorf("section order wrong:\n%s", text)
	}

	// Summary precedes the content for the session that has one.
	summary := strings.Index(text, "Summary of session 101.")
	body := strings.Index(text, "transcript body for 101")
	if summary < 0 || body < 0 || summary > body {
		t.Errorf("summary should precede content:\n%s", text)
	}
}

func TestTopic(t *testing.T) {
	_, yearDir := newExportTree(t)
	outFile := filepath.Join(t.TempDir(), "swift.txt")

	e := New(nil, false)
	if err := e.Topic(context.Background(), yearDir, "swift", outFile); err != nil {
		t.Fatalf("Topic: %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if !strings.Contains(text, "## Topic: swift") {
		t.Errorf("missing topic header:\n%s", text)
	}
	if strings.Contains(text, "developer-tools") {
		t.Errorf("filtered export should not include other topics:\n%s", text)
	}
}

func TestTopic_Unknown(t *testing.T) {
	_, yearDir := newExportTree(t)

	e := New(nil, false)
	err := e.Topic(context.Background(), yearDir, "no-such-topic", filepath.Join(t.TempDir(), "out.txt"))
	if err == nil || !strings.Contains(err.Error(), "topic directory not found") {
		t.Fatalf("expected missing-topic error, got %v", err)
	}
}

func TestConsolidated_WithResources(t *testing.T) {
	out, yearDir := newExportTree(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Doc</title></head><body>
<article><h1>Swift Testing guide</h1><p>Use the expect macro for assertions in your suites and enjoy clearer failure output.</p></article>
</body></html>`))
	}))
	defer server.Close()

	meta := cache.New()
	meta.Sessions["101"] = &domain.Session{
		ID: "101", Title: "Meet Swift Testing", Topic: "swift",
		Resources: []domain.Resource{{Title: "Testing guide", URL: server.URL + "/docs/testing"}},
	}
	if err := meta.Save(cache.Path(out, "2025")); err != nil {
		t.Fatal(err)
	}

	outFile := filepath.Join(t.TempDir(), "export.txt")
	e := New(httpclient.NewClient(), true)
	if err := e.Consolidated(context.Background(), yearDir, outFile, []string{"swift"}); err != nil {
		t.Fatalf("Consolidated: %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if !strings.Contains(text, "--- Resource: Testing guide") {
		t.Errorf("resource section missing:\n%s", text)
	}
	if !strings.Contains(text, "expect macro") {
		t.Errorf("resource body missing:\n%s", text)
	}
}
