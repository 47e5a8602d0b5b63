package generator

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/posts"
)

const (
	feedFileName = "feed.xml"
	maxFeedItems = 100
)

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
	Description string  `xml:"description,omitempty"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// buildRSSFeed lists the newest declared posts. Drafts never reach the feed,
// even in development where they are rendered.
func buildRSSFeed(site siteInfo, declared []*posts.Post, generatedAt time.Time) ([]byte, error) {
	items := make([]*posts.Post, 0, len(declared))
	for _, post := range declared {
		if !post.Draft {
			items = append(items, post)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		left := firstNonZeroTime(items[i].Date, items[i].UpdatedAt)
		right := firstNonZeroTime(items[j].Date, items[j].UpdatedAt)
		if left.Equal(right) {
			return items[i].Slug < items[j].Slug
		}
		return left.After(right)
	})
	if len(items) > maxFeedItems {
		items = items[:maxFeedItems]
	}

	title := strings.TrimSpace(site.Title)
	if title == "" {
		title = baseURLWithFallback(site.BaseURL)
	}
	channel := rssChannel{
		Title:         title,
		Link:          baseURLWithFallback(site.BaseURL),
		Description:   "Latest posts",
		Language:      strings.TrimSpace(site.Language),
		LastBuildDate: generatedAt.UTC().Format(time.RFC1123Z),
		Items:         make([]rssItem, 0, len(items)),
	}
	for _, post := range items {
		link := absoluteURL(site.BaseURL, buildRoute(site.Prefix, post.Slug))
		channel.Items = append(channel.Items, rssItem{
			Title:       post.Title,
			Link:        link,
			GUID:        rssGUID{Value: link, IsPermaLink: true},
			PubDate:     firstNonZeroTime(post.Date, post.UpdatedAt, generatedAt).UTC().Format(time.RFC1123Z),
			Description: strings.Join(strings.Fields(post.Summary), " "),
		})
	}

	data, err := xml.MarshalIndent(rssDocument{Version: "2.0", Channel: channel}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("generator: encode feed: %w", err)
	}
	return withXMLHeader(data), nil
}
