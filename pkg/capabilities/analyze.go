package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
)

const (
	// linkCheckTimeout bounds the HEAD probe per link.
	linkCheckTimeout = 5 * time.Second
	// slowThreshold classifies a responding link as slow.
	slowThreshold = 1000 * time.Millisecond
	// maxConcurrentChecks bounds the probe fan-out for one page.
	maxConcurrentChecks = 16
)

type urlPayload struct {
	URL string `json:"url"`
}

// pageLink is a hyperlink extracted from the analyzed page, resolved
// against the page URL.
type pageLink struct {
	url    string
	anchor string
}

func (d *Deps) analyzeWebsite(ctx context.Context, payload json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
	var p urlPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	links, err := d.collectLinks(ctx, p.URL)
	if err != nil {
		return nil, err
	}
	return d.checkLinks(ctx, links), nil
}

// collectLinks fetches the page and extracts every http(s) anchor,
// resolved against the page URL. Document order is preserved.
func (d *Deps) collectLinks(ctx context.Context, pageURL string) ([]pageLink, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("error fetching URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching URL: %w", err)
	}
	req.Header.Set("User-Agent", checkerUserAgent)

	resp, err := d.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching URL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("error fetching URL: status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing page: %w", err)
	}

	var links []pageLink
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(attr.Val)
				if err != nil {
					break
				}
				resolved := base.ResolveReference(ref)
				if resolved.Scheme == "http" || resolved.Scheme == "https" {
					links = append(links, pageLink{url: resolved.String(), anchor: anchorText(n)})
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func anchorText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// checkLinks probes every link with a bounded worker fan-out and
// partitions the records into ok, broken and slow. Records keep the
// document order of their links.
func (d *Deps) checkLinks(ctx context.Context, links []pageLink) envelope.LinkReportResult {
	type outcome struct {
		record envelope.LinkRecord
		bucket string
	}
	outcomes := make([]outcome, len(links))

	sem := make(chan struct{}, maxConcurrentChecks)
	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		go func(i int, link pageLink) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = outcome{}
			outcomes[i].record, outcomes[i].bucket = d.checkLink(ctx, link)
		}(i, link)
	}
	wg.Wait()

	var report envelope.LinkReportResult
	for _, o := range outcomes {
		switch o.bucket {
		case "broken":
			report.Broken = append(report.Broken, o.record)
		case "slow":
			report.Slow = append(report.Slow, o.record)
		default:
			report.OK = append(report.OK, o.record)
		}
	}
	return report
}

func (d *Deps) checkLink(ctx context.Context, link pageLink) (envelope.LinkRecord, string) {
	probeCtx, cancel := context.WithTimeout(ctx, linkCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, link.url, nil)
	if err != nil {
		return envelope.LinkRecord{URL: link.url, AnchorText: link.anchor, Error: err.Error()}, "broken"
	}
	req.Header.Set("User-Agent", checkerUserAgent)

	start := time.Now()
	resp, err := d.client().Do(req)
	if err != nil {
		return envelope.LinkRecord{URL: link.url, AnchorText: link.anchor, Error: err.Error()}, "broken"
	}
	resp.Body.Close()
	elapsed := time.Since(start)

	record := envelope.LinkRecord{
		URL:            link.url,
		AnchorText:     link.anchor,
		StatusCode:     resp.StatusCode,
		ResponseTimeMs: int(elapsed.Milliseconds()),
	}
	switch {
	case resp.StatusCode >= 400:
		return record, "broken"
	case elapsed > slowThreshold:
		return record, "slow"
	default:
		return record, "ok"
	}
}
