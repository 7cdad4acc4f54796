package models

// Candidate is a normalized search hit.
type Candidate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type Draft struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	ImageQuery string `json:"image_query"`
	// Raw is set when the model output could not be parsed and is used as-is.
	Raw string `json:"-"`
}

// Post is what gets delivered to Telegram.
type Post struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}
