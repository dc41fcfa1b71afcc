package models

import "time"

// HistoryLimit caps the number of cast history entries kept.
const HistoryLimit = 50

// CastHistoryItem records one published cast, newest first in listings.
type CastHistoryItem struct {
	ID        string `json:"id" validate:"required"`
	Pair      string `json:"pair"`
	Interval  string `json:"interval"`
	Caption   string `json:"caption"`
	ImageURL  string `json:"imageUrl"`
	FrameURL  string `json:"frameUrl,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Hash      string `json:"hash,omitempty"`
}

// Embed is a media or link reference attached to a cast.
type Embed struct {
	URL string `json:"url" validate:"required,url"`
}

// CaptionRequest is the prompt context handed to the caption generator.
type CaptionRequest struct {
	Pair      string
	Interval  string
	LastPrice float64
	Signals   []Signal
}

// CastRequest is what the publishing collaborator receives.
type CastRequest struct {
	Text       string
	Embeds     []Embed
	SignerUUID string
}

// Blob is an uploaded object.
type Blob struct {
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Pathname    string `json:"pathname"`
	ContentType string `json:"contentType,omitempty"`
}

// CastEvent is emitted after a cast was published.
type CastEvent struct {
	Item        CastHistoryItem `json:"item"`
	PublishedAt time.Time       `json:"publishedAt"`
}

// SignalSnapshot is an archived analysis result.
type SignalSnapshot struct {
	Timestamp time.Time  `json:"timestamp"`
	Symbol    string     `json:"symbol"`
	Interval  string     `json:"interval"`
	Source    DataSource `json:"source"`
	LastPrice float64    `json:"lastPrice"`
	Signals   []Signal   `json:"signals"`
}
