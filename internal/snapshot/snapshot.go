// Package snapshot defines the immutable bundle of scraped page data the
// audit pipeline consumes. A Snapshot is produced once by the collector (or
// assembled by hand in tests) and never mutated afterwards.
package snapshot

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Snapshot holds everything the rule evaluator may inspect for a single URL.
type Snapshot struct {
	// URL is the canonical URL the snapshot was taken from.
	URL string `json:"url"`

	// HTML is the raw page markup.
	HTML string `json:"html"`

	// Links are the URL strings extracted from the page, in document order.
	// They may be absolute or relative.
	Links []string `json:"links"`

	// RobotsTxt is the text of /robots.txt, empty when unavailable.
	RobotsTxt string `json:"robots_txt,omitempty"`

	// SitemapXML is the text of a discovered sitemap, empty when unavailable.
	SitemapXML string `json:"sitemap_xml,omitempty"`

	// FetchedAt records when the page was scraped. Informational only; it is
	// excluded from Hash so that identical content hashes identically.
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

// Hash returns a stable hex digest over the snapshot content. Two snapshots
// with identical URL, HTML, links, robots and sitemap text hash the same, so
// the digest can key caches and deduplicate stored runs.
func (s *Snapshot) Hash() string {
	h := sha256.New()

	writeField := func(b []byte) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		h.Write(n[:])
		h.Write(b)
	}

	writeField([]byte(s.URL))
	writeField([]byte(s.HTML))
	for _, l := range s.Links {
		writeField([]byte(l))
	}
	writeField([]byte(s.RobotsTxt))
	writeField([]byte(s.SitemapXML))

	return hex.EncodeToString(h.Sum(nil))
}
