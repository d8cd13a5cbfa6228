package database

import (
	"time"

	"gallery-ingest/internal/mediatypes"
)

// Entry is one row of the media_entries table.
type Entry struct {
	ID           int64                 `json:"id"`
	Collection   mediatypes.Collection `json:"collection"`
	DisplayName  string                `json:"displayName"`
	MimeType     string                `json:"mimeType"`
	RelativePath string                `json:"relativePath"`
	DateTaken    time.Time             `json:"dateTaken"`
	Pending      bool                  `json:"pending"`
	Size         int64                 `json:"size"`
	Width        int                   `json:"width,omitempty"`
	Height       int                   `json:"height,omitempty"`
	StagedName   string                `json:"-"`
	CreatedAt    time.Time             `json:"createdAt"`
	PublishedAt  time.Time             `json:"publishedAt,omitempty"`
}

// EntryFilter narrows ListEntries. The zero value lists every visible entry.
type EntryFilter struct {
	Collection   mediatypes.Collection
	RelativePath string
	// Pending selects pending entries instead of visible ones.
	Pending bool
	Limit   int
	Offset  int
}

// CollectionStats holds per-collection counts.
type CollectionStats struct {
	Visible int   `json:"visible"`
	Pending int   `json:"pending"`
	Bytes   int64 `json:"bytes"`
}
