package model

import (
	"strings"
	"time"
)

// Source records how an item entered the library
type Source string

const (
	SourceTab      Source = "tab"
	SourceBookmark Source = "bookmark"
	SourceManual   Source = "manual"
	SourceImported Source = "imported"
)

// Valid reports whether s is a known source
func (s Source) Valid() bool {
	switch s {
	case SourceTab, SourceBookmark, SourceManual, SourceImported:
		return true
	}
	return false
}

// Item is a saved page reference or, when URL is blank, a free-form note
type Item struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	URL           string    `json:"url,omitempty" yaml:"url,omitempty"`
	Favicon       string    `json:"favicon,omitempty" yaml:"favicon,omitempty"`
	Notes         string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CollectionIDs []string  `json:"collectionIds" yaml:"collectionIds"`
	Tags          []string  `json:"tags" yaml:"tags"`
	Source        Source    `json:"source" yaml:"source"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// IsNote returns true if the item has no URL
func (i *Item) IsNote() bool {
	return strings.TrimSpace(i.URL) == ""
}

// InCollection returns true if the item is a member of the collection
func (i *Item) InCollection(collectionID string) bool {
	for _, id := range i.CollectionIDs {
		if id == collectionID {
			return true
		}
	}
	return false
}

// HasTag returns true if the item carries the tag (case-insensitive)
func (i *Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ItemFields holds the values for a new item
type ItemFields struct {
	Title         string
	URL           string
	Favicon       string
	Notes         string
	CollectionIDs []string
	Tags          []string
	Source        Source
}

// ItemPatch lists the item fields that may be updated. Nil fields are left unchanged.
type ItemPatch struct {
	Title         *string
	URL           *string
	Favicon       *string
	Notes         *string
	CollectionIDs *[]string
	Tags          *[]string
	Source        *Source
}

// Empty returns true if the patch changes nothing
func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.URL == nil && p.Favicon == nil && p.Notes == nil &&
		p.CollectionIDs == nil && p.Tags == nil && p.Source == nil
}

// Apply copies the set fields onto the item
func (p ItemPatch) Apply(i *Item) {
	if p.Title != nil {
		i.Title = *p.Title
	}
	if p.URL != nil {
		i.URL = *p.URL
	}
	if p.Favicon != nil {
		i.Favicon = *p.Favicon
	}
	if p.Notes != nil {
		i.Notes = *p.Notes
	}
	if p.CollectionIDs != nil {
		i.CollectionIDs = append([]string(nil), (*p.CollectionIDs)...)
	}
	if p.Tags != nil {
		i.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Source != nil {
		i.Source = *p.Source
	}
}

// Ptr returns a pointer to v, for building patches
func Ptr[T any](v T) *T {
	return &v
}
