package domain

import "time"

// SourceConfig describes one configured feed and the strategy that extracts its entries.
type SourceConfig struct {
	ID             string
	Name           string
	FeedURL        string
	AuthorSelector string
	Strategy       string
	Throttle       bool
}

// FeedEntry is a raw item of a fetched feed. Any subset of the body fields may be empty.
type FeedEntry struct {
	Title          string
	Link           string
	GUID           string
	Published      time.Time
	Discovered     time.Time
	Content        string
	ContentEncoded string
	Description    string
	Summary        string
	Subtitle       string
	Creator        string
	Thumbnail      string
}

// PublishedOrDiscovered falls back to the time the entry was fetched.
func (e FeedEntry) PublishedOrDiscovered() time.Time {
	if !e.Published.IsZero() {
		return e.Published
	}
	if !e.Discovered.IsZero() {
		return e.Discovered
	}
	return time.Now().UTC()
}

// ExtractionResult is produced by a content extractor for every entry.
type ExtractionResult struct {
	Description string
	Content     string
}

// ArticleRecord is the persisted, append-only article document.
type ArticleRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LinkURL      string    `json:"linkUrl"`
	PublishDate  time.Time `json:"publishDate"`
	Author       string    `json:"author"`
	BlogID       string    `json:"blogId"`
	BlogName     string    `json:"blogName"`
	Description  string    `json:"description"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	IsValid      bool      `json:"isValid"`
	SkillIDs     []string  `json:"skillIds"`
	JobGroupIDs  []string  `json:"jobGroupIds"`
	// CreatedAt and UpdatedAt are assigned by the store at commit time.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContentBody holds the plain-text body stored apart from its ArticleRecord.
type ContentBody struct {
	ArticleID string `json:"articleId"`
	Text      string `json:"text"`
}
