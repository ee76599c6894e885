// Package scraper collects page snapshots for the audit pipeline: the page
// markup, its links, robots.txt and a discovered sitemap. Collection is the
// only place the system touches the network; everything downstream consumes
// the immutable snapshot.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/farolabs/faro/internal/logging"
	"github.com/farolabs/faro/internal/snapshot"
	"github.com/farolabs/faro/internal/webclient"
)

// Collector fetches a URL and assembles a snapshot from it.
type Collector struct {
	wc      webclient.WebClient
	logger  logging.Logger
	metrics *Metrics
}

// New creates a Collector. metrics may be nil to disable instrumentation.
func New(wc webclient.WebClient, logger logging.Logger, metrics *Metrics) *Collector {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Collector{
		wc:      wc,
		logger:  logger.With(logging.Field{Key: "component", Value: "scraper"}),
		metrics: metrics,
	}
}

// Collect fetches the page and its auxiliary resources. The page fetch is
// required; robots.txt and sitemap failures degrade to empty snapshot fields
// so one blocked side request never sinks the audit.
func (c *Collector) Collect(ctx context.Context, pageURL string) (*snapshot.Snapshot, error) {
	body, err := c.fetch(ctx, "page", pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", pageURL, err)
	}

	snap := &snapshot.Snapshot{
		URL:       pageURL,
		HTML:      string(body),
		Links:     extractLinks(string(body)),
		FetchedAt: time.Now().UTC(),
	}

	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		c.logger.Warn("cannot derive site origin, skipping robots and sitemap",
			logging.Field{Key: "url", Value: pageURL})
		return snap, nil
	}
	origin := base.Scheme + "://" + base.Host

	if robots, err := c.fetch(ctx, "robots", origin+"/robots.txt"); err == nil {
		snap.RobotsTxt = string(robots)
	} else {
		c.logger.Debug("robots.txt unavailable",
			logging.Field{Key: "url", Value: pageURL},
			logging.Field{Key: "error", Value: err.Error()})
	}

	snap.SitemapXML = c.discoverSitemap(ctx, origin, snap.RobotsTxt)

	return snap, nil
}

// fetch runs one instrumented GET and returns the body for 2xx responses.
func (c *Collector) fetch(ctx context.Context, phase, target string) ([]byte, error) {
	c.metrics.IncRequest(phase)
	start := time.Now()

	resp, err := c.wc.Get(ctx, target)
	c.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		c.metrics.IncError(phase)
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.metrics.IncError(phase)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// discoverSitemap tries the Sitemap directives from robots.txt first, then
// the conventional /sitemap.xml location. Returns "" when nothing resolves.
func (c *Collector) discoverSitemap(ctx context.Context, origin, robotsTxt string) string {
	var candidates []string
	for _, line := range strings.Split(robotsTxt, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			candidates = append(candidates, strings.TrimSpace(line[len("sitemap:"):]))
		}
	}
	candidates = append(candidates, origin+"/sitemap.xml")

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if body, err := c.fetch(ctx, "sitemap", candidate); err == nil {
			return string(body)
		}
	}
	return ""
}

// extractLinks walks the markup and returns every anchor href in document
// order, as written (absolute or relative). Parse failures return nil; the
// evaluator treats a missing link list the same as a page without links.
func extractLinks(markup string) []string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var links []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && strings.TrimSpace(attr.Val) != "" {
					links = append(links, strings.TrimSpace(attr.Val))
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links
}
