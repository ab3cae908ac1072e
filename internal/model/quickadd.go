package model

import (
	"net/url"
	"strings"
)

// QuickAdd is the result of parsing a one-line item entry such as
// "https://go.dev/doc Go docs @lang #reading"
type QuickAdd struct {
	Title string
	URL   string
	Tags  []string
	// Collections holds collection names as typed, without the leading '#'
	Collections []string
}

// ParseQuickAdd splits text into a title, an optional URL, @tags and
// #collection references. The first token that parses as an absolute
// http(s) or file URL becomes the URL; later ones stay in the title.
func ParseQuickAdd(text string) QuickAdd {
	var q QuickAdd
	var titleParts []string

	for _, word := range strings.Fields(text) {
		switch {
		case len(word) > 1 && strings.HasPrefix(word, "@"):
			tag := strings.TrimPrefix(word, "@")
			if !containsFold(q.Tags, tag) {
				q.Tags = append(q.Tags, tag)
			}

		case len(word) > 1 && strings.HasPrefix(word, "#"):
			q.Collections = append(q.Collections, strings.TrimPrefix(word, "#"))

		case q.URL == "" && looksLikeURL(word):
			q.URL = word

		default:
			titleParts = append(titleParts, word)
		}
	}

	q.Title = strings.Join(titleParts, " ")
	if q.Title == "" && q.URL != "" {
		q.Title = TitleFromURL(q.URL)
	}
	return q
}

// Fields converts the parsed entry into new-item fields
func (q QuickAdd) Fields(collectionIDs []string) ItemFields {
	return ItemFields{
		Title:         q.Title,
		URL:           q.URL,
		Tags:          q.Tags,
		CollectionIDs: collectionIDs,
		Source:        SourceManual,
	}
}

// TitleFromURL derives a display title from a URL: its host plus path,
// or the raw string when it does not parse
func TitleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	title := strings.TrimPrefix(u.Host, "www.")
	if p := strings.TrimSuffix(u.Path, "/"); p != "" {
		title += p
	}
	return title
}

func looksLikeURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "file":
		return u.Path != ""
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
