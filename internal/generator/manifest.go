package generator

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	pathsFileName    = "paths.json"
	pathsFileVersion = 1
)

// pathsManifest tells the hosting layer which routes exist. Requests for any
// other route are rejected when Fallback is FallbackNone.
type pathsManifest struct {
	Version     int             `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	Fallback    Fallback        `json:"fallback"`
	Routes      []manifestRoute `json:"routes"`
}

type manifestRoute struct {
	Slug     string `json:"slug"`
	Route    string `json:"route"`
	Output   string `json:"output"`
	Checksum string `json:"checksum,omitempty"`
}

func newPathsManifest(prefix string, paths StaticPaths, rendered []RenderedPage, at time.Time) *pathsManifest {
	checksums := make(map[string]string, len(rendered))
	for _, page := range rendered {
		checksums[page.Slug] = page.Checksum
	}
	fallback := paths.Fallback
	if fallback == "" {
		fallback = FallbackNone
	}

	routes := make([]manifestRoute, 0, len(paths.Slugs))
	for _, slug := range paths.Slugs {
		routes = append(routes, manifestRoute{
			Slug:     slug,
			Route:    buildRoute(prefix, slug),
			Output:   buildOutputPath(prefix, slug),
			Checksum: checksums[slug],
		})
	}
	return &pathsManifest{
		Version:     pathsFileVersion,
		GeneratedAt: at.UTC(),
		Fallback:    fallback,
		Routes:      routes,
	}
}

func (m *pathsManifest) encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("generator: encode paths manifest: %w", err)
	}
	return append(data, '\n'), nil
}
