package caselaw

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LookupCitation resolves citation text through the citation-lookup endpoint.
// An empty slice means nothing matched.
func (c *Client) LookupCitation(ctx context.Context, text string) ([]CitationMatch, error) {
	var matches []CitationMatch
	found, err := c.do(ctx, request{
		endpoint: "citation_lookup",
		method:   http.MethodPost,
		path:     "citation-lookup/",
		form:     url.Values{"text": {text}},
	}, &matches)
	if err != nil || !found {
		return nil, err
	}
	return matches, nil
}

// SearchOpinions runs a full-text opinion search and follows the cursor
// up to the page limit
func (c *Client) SearchOpinions(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	q := searchQuery("o", opts)
	q.Set("q", query)
	hits, _, err := c.search(ctx, "search_opinions", q, opts.MaxPages)
	return hits, err
}

// SearchCaseName searches opinions by case name
func (c *Client) SearchCaseName(ctx context.Context, caseName string, opts SearchOptions) ([]SearchHit, error) {
	q := searchQuery("o", opts)
	q.Set("case_name", caseName)
	hits, _, err := c.search(ctx, "search_case_name", q, 1)
	return hits, err
}

// SearchDockets searches RECAP dockets, which cover unpublished federal matters
func (c *Client) SearchDockets(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	q := searchQuery("r", opts)
	q.Set("q", query)
	hits, _, err := c.search(ctx, "search_dockets", q, 1)
	return hits, err
}

// CitingOpinions returns opinions citing the cluster, optionally narrowed by
// extra query terms such as "overruled".
func (c *Client) CitingOpinions(ctx context.Context, clusterID string, terms string, opts SearchOptions) ([]SearchHit, error) {
	q := searchQuery("o", opts)
	q.Set("q", citesQuery(clusterID, terms))
	hits, _, err := c.search(ctx, "citing_opinions", q, opts.MaxPages)
	return hits, err
}

// CountCiting returns how many opinions cite the cluster, optionally
// narrowed by terms and filing dates. Only the first page is fetched.
func (c *Client) CountCiting(ctx context.Context, clusterID string, terms string, opts SearchOptions) (int, error) {
	q := searchQuery("o", opts)
	q.Set("q", citesQuery(clusterID, terms))
	_, count, err := c.search(ctx, "count_citing", q, 1)
	return count, err
}

// FetchOpinionText returns the plain text of a cluster's opinions. Missing
// clusters return an empty string and no error.
func (c *Client) FetchOpinionText(ctx context.Context, clusterID string) (string, error) {
	var page opinionPage
	found, err := c.do(ctx, request{
		endpoint: "opinions",
		method:   http.MethodGet,
		path:     "opinions/",
		query:    url.Values{"cluster": {clusterID}},
	}, &page)
	if err != nil || !found {
		return "", err
	}

	var parts []string
	for _, op := range page.Results {
		if text := opinionText(op); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// LookupPeople fetches judge metadata one person at a time with a fixed
// gap between calls, so judge enrichment never bursts the shared limiter.
func (c *Client) LookupPeople(ctx context.Context, ids []string) ([]Person, error) {
	c.peopleMu.Lock()
	defer c.peopleMu.Unlock()

	people := make([]Person, 0, len(ids))
	for _, id := range ids {
		if !c.lastPeople.IsZero() && c.peopleGap > 0 {
			if wait := c.peopleGap - time.Since(c.lastPeople); wait > 0 {
				if err := c.sleep(ctx, wait); err != nil {
					return people, err
				}
			}
		}

		var p Person
		found, err := c.do(ctx, request{
			endpoint: "people",
			method:   http.MethodGet,
			path:     "people/" + url.PathEscape(id) + "/",
		}, &p)
		c.lastPeople = time.Now()
		if err != nil {
			return people, err
		}
		if found {
			people = append(people, p)
		}
	}
	return people, nil
}

func (c *Client) search(ctx context.Context, endpoint string, q url.Values, maxPages int) ([]SearchHit, int, error) {
	if maxPages <= 0 {
		maxPages = c.maxPages
	}

	var hits []SearchHit
	count := 0
	next := ""
	for page := 0; page < maxPages; page++ {
		r := request{endpoint: endpoint, method: http.MethodGet}
		if next == "" {
			r.path = "search/"
			r.query = q
		} else {
			r.path = next
		}

		var p SearchPage
		found, err := c.do(ctx, r, &p)
		if err != nil {
			if len(hits) > 0 {
				c.logger.Warn("search pagination interrupted",
					zap.String("endpoint", endpoint),
					zap.Int("pages", page),
					zap.Error(err))
				return hits, count, nil
			}
			return nil, 0, err
		}
		if !found {
			break
		}
		if page == 0 {
			count = p.Count
		}
		hits = append(hits, p.Results...)
		if p.Next == "" {
			break
		}
		next = p.Next
	}
	return hits, count, nil
}

func searchQuery(kind string, opts SearchOptions) url.Values {
	q := url.Values{"type": {kind}}
	if opts.Court != "" {
		q.Set("court", opts.Court)
	}
	if !opts.FiledAfter.IsZero() {
		q.Set("filed_after", opts.FiledAfter.Format("01/02/2006"))
	}
	if !opts.FiledBefore.IsZero() {
		q.Set("filed_before", opts.FiledBefore.Format("01/02/2006"))
	}
	if opts.OrderBy != "" {
		q.Set("order_by", opts.OrderBy)
	}
	return q
}

func citesQuery(clusterID, terms string) string {
	q := fmt.Sprintf("cites:(%s)", clusterID)
	if terms = strings.TrimSpace(terms); terms != "" {
		q += " AND (" + terms + ")"
	}
	return q
}

// ParseID parses a numeric source id
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil && id > 0
}
