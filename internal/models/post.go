// Package models defines the domain types shared by the API, the stores and the client.
package models

import (
	"strings"
	"time"
)

// Post is a feed entry combining optional text and zero or more attachments.
type Post struct {
	ID        uint        `json:"id"`
	User      string      `json:"user"`
	Text      string      `json:"text"`
	Media     []MediaItem `json:"media"`
	Timestamp time.Time   `json:"timestamp"`
}

// HasContent reports whether the post satisfies the "text or media" rule.
func (p *Post) HasContent() bool {
	return strings.TrimSpace(p.Text) != "" || len(p.Media) > 0
}

// Clone returns a copy that does not share the media slice.
func (p Post) Clone() Post {
	out := p
	out.Media = make([]MediaItem, len(p.Media))
	copy(out.Media, p.Media)
	return out
}

// MediaItem references one persisted upload.
type MediaItem struct {
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Kind       MediaKind `json:"kind"`
	Label      string    `json:"label"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType,omitempty"`
	PreviewURL string    `json:"previewUrl,omitempty"`
}
