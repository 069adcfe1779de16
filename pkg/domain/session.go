package domain

// VideoURLs holds the direct download and streaming URLs discovered on a
// session page. Any field may be empty when the page does not advertise that
// variant.
type VideoURLs struct {
	HD  string `json:"hd,omitempty"`
	SD  string `json:"sd,omitempty"`
	HLS string `json:"hls,omitempty"`
}

// Session is the cached metadata for one conference session. ID is numeric in
// practice and unique within a year. Description, Chapters and Resources are
// folded in after the session content has been downloaded once.
type Session struct {
	ID          string     `json:"id"`
	Year        string     `json:"year,omitempty"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	VideoURLs   VideoURLs  `json:"video_urls"`
	Topic       string     `json:"topic,omitempty"`
	Description string     `json:"description,omitempty"`
	Chapters    []Chapter  `json:"chapters,omitempty"`
	Resources   []Resource `json:"resources,omitempty"`
}

// Chapter is one named, timestamped subsection of a session video. Time is the
// display string as shown on the page ("3:17"); Timestamp is the raw seconds
// value from the page's jump link. The two may format the same instant
// differently and both are kept.
type Chapter struct {
	Time      string `json:"time"`
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
}

// Resource is a documentation or download link advertised alongside a session.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CodeSample is a snippet shown alongside the video at a specific moment.
// Timestamp is the raw seconds string from the page and may be empty when the
// page carried no usable value. Code is entity-decoded verbatim text.
type CodeSample struct {
	Title       string `json:"title"`
	Timestamp   string `json:"timestamp"`
	TimeDisplay string `json:"time_display"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}

// TranscriptEntry is one spoken sentence with its start time in seconds.
type TranscriptEntry struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// Content is everything extracted from a single session page beyond the
// metadata fields. It is produced and consumed within one download and never
// persisted as a unit.
type Content struct {
	Description string            `json:"description"`
	Chapters    []Chapter         `json:"chapters"`
	Resources   []Resource        `json:"resources"`
	CodeSamples []CodeSample      `json:"code_samples"`
	Transcript  []TranscriptEntry `json:"transcript"`
}
