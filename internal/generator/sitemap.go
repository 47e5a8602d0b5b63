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
	sitemapFileName = "sitemap.xml"
	robotsFileName  = "robots.txt"
	fallbackBaseURL = "http://localhost"
	sitemapXMLNS    = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

// siteInfo carries the site-wide values used by discovery files.
type siteInfo struct {
	BaseURL  string
	Title    string
	Language string
	Prefix   string
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Location string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
}

func buildSitemap(site siteInfo, declared []*posts.Post, fallback time.Time) ([]byte, error) {
	seen := make(map[string]struct{}, len(declared))
	urls := make([]sitemapURL, 0, len(declared))
	for _, post := range declared {
		location := absoluteURL(site.BaseURL, buildRoute(site.Prefix, post.Slug))
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}
		lastMod := firstNonZeroTime(post.UpdatedAt, post.Date, fallback)
		urls = append(urls, sitemapURL{
			Location: location,
			LastMod:  lastMod.UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(urls, func(i, j int) bool {
		return urls[i].Location < urls[j].Location
	})

	data, err := xml.MarshalIndent(sitemapURLSet{XMLNS: sitemapXMLNS, URLs: urls}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("generator: encode sitemap: %w", err)
	}
	return withXMLHeader(data), nil
}

func buildRobots(baseURL string, includeSitemap bool) []byte {
	var builder strings.Builder
	builder.WriteString("User-agent: *\n")
	builder.WriteString("Allow: /\n")
	if includeSitemap {
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("Sitemap: %s\n", absoluteURL(baseURL, "/"+sitemapFileName)))
	}
	return []byte(builder.String())
}

func baseURLWithFallback(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return fallbackBaseURL
	}
	return trimmed
}

func absoluteURL(base, route string) string {
	target := baseURLWithFallback(base)
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return target
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return target + normalized
}

func firstNonZeroTime(instants ...time.Time) time.Time {
	for _, ts := range instants {
		if !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

func withXMLHeader(data []byte) []byte {
	out := make([]byte, 0, len(xml.Header)+len(data)+1)
	out = append(out, xml.Header...)
	out = append(out, data...)
	return append(out, '\n')
}
