package caselaw

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/citecheck/internal/model"
)

// Date decodes the several date layouts the API emits
type Date struct {
	time.Time
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999Z07:00",
}

// UnmarshalJSON accepts null, empty strings and any known layout
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	// Unknown layouts degrade to zero rather than failing the whole response
	d.Time = time.Time{}
	return nil
}

// MarshalJSON writes the date part only
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// Cluster is an opinion cluster returned by citation lookup
type Cluster struct {
	ID                 int64  `json:"id"`
	CaseName           string `json:"case_name"`
	CaseNameFull       string `json:"case_name_full"`
	DateFiled          Date   `json:"date_filed"`
	CourtID            string `json:"court_id"`
	Court              string `json:"court"`
	DocketID           int64  `json:"docket_id"`
	AbsoluteURL        string `json:"absolute_url"`
	PrecedentialStatus string `json:"precedential_status"`
	CitationCount      int    `json:"citation_count"`
	Judges             string `json:"judges"`
}

// Published reports whether the cluster is a published (precedential) opinion
func (c Cluster) Published() bool {
	return c.PrecedentialStatus == "" || strings.EqualFold(c.PrecedentialStatus, "Published")
}

// CitationMatch is one citation found by the citation-lookup endpoint
type CitationMatch struct {
	Citation   string    `json:"citation"`
	Normalized []string  `json:"normalized_citations"`
	Status     int       `json:"status"` // 200 found, 300 ambiguous, 404 not found
	Error      string    `json:"error_message"`
	Clusters   []Cluster `json:"clusters"`
}

// Found reports whether the lookup matched at least one cluster
func (m CitationMatch) Found() bool {
	return (m.Status == 200 || m.Status == 300) && len(m.Clusters) > 0
}

// OpinionSnippet is the per-opinion part of a search hit
type OpinionSnippet struct {
	ID       int64  `json:"id"`
	AuthorID int64  `json:"author_id"`
	Snippet  string `json:"snippet"`
	Type     string `json:"type"`
}

// SearchHit is one result of the full-text search endpoint
type SearchHit struct {
	ClusterID    int64            `json:"cluster_id"`
	DocketID     int64            `json:"docket_id"`
	CaseName     string           `json:"caseName"`
	CourtID      string           `json:"court_id"`
	Court        string           `json:"court"`
	DateFiled    Date             `json:"dateFiled"`
	Citation     []string         `json:"citation"`
	CiteCount    int              `json:"citeCount"`
	Status       string           `json:"status"`
	Judge        string           `json:"judge"`
	DocketNumber string           `json:"docketNumber"`
	Snippet      string           `json:"snippet"`
	Opinions     []OpinionSnippet `json:"opinions"`
}

// SourceID returns the cluster id used as the dedup key
func (h SearchHit) SourceID() string {
	if h.ClusterID != 0 {
		return strconv.FormatInt(h.ClusterID, 10)
	}
	if h.DocketID != 0 {
		return "docket-" + strconv.FormatInt(h.DocketID, 10)
	}
	return ""
}

// Text returns the best available snippet
func (h SearchHit) Text() string {
	if h.Snippet != "" {
		return h.Snippet
	}
	var parts []string
	for _, o := range h.Opinions {
		if o.Snippet != "" {
			parts = append(parts, o.Snippet)
		}
	}
	return strings.Join(parts, " ")
}

// AuthorIDs returns the distinct person ids of the opinion authors
func (h SearchHit) AuthorIDs() []string {
	var ids []string
	seen := map[int64]bool{}
	for _, o := range h.Opinions {
		if o.AuthorID == 0 || seen[o.AuthorID] {
			continue
		}
		seen[o.AuthorID] = true
		ids = append(ids, strconv.FormatInt(o.AuthorID, 10))
	}
	return ids
}

// Candidate converts the hit into a search candidate. Tier is left for the
// caller to resolve.
func (h SearchHit) Candidate() model.Candidate {
	c := model.Candidate{
		SourceID:  h.SourceID(),
		CaseName:  h.CaseName,
		CourtID:   h.CourtID,
		Court:     h.Court,
		DateFiled: h.DateFiled.Time,
		Snippet:   stripMarks(h.Text()),
		CiteCount: h.CiteCount,
		Published: h.Status == "" || strings.EqualFold(h.Status, "Published"),
	}
	if len(h.Citation) > 0 {
		c.Citation = h.Citation[0]
	}
	if h.Judge != "" {
		c.Judges = []string{h.Judge}
	}
	return c
}

// stripMarks removes the <mark> highlighting the search endpoint adds
func stripMarks(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "")
	return strings.ReplaceAll(s, "</mark>", "")
}

// SearchPage is one cursor page of search results
type SearchPage struct {
	Count   int         `json:"count"`
	Next    string      `json:"next"`
	Results []SearchHit `json:"results"`
}

// SearchOptions narrows a search
type SearchOptions struct {
	Court       string // Space-separated court ids
	FiledAfter  time.Time
	FiledBefore time.Time
	OrderBy     string // e.g. "score desc", "dateFiled desc"
	MaxPages    int    // 0 uses the client default
}

// Opinion is a single opinion within a cluster
type Opinion struct {
	ID                int64  `json:"id"`
	Type              string `json:"type"`
	PlainText         string `json:"plain_text"`
	HTML              string `json:"html"`
	HTMLWithCitations string `json:"html_with_citations"`
	HTMLLawbox        string `json:"html_lawbox"`
	XMLHarvard        string `json:"xml_harvard"`
}

type opinionPage struct {
	Count   int       `json:"count"`
	Next    string    `json:"next"`
	Results []Opinion `json:"results"`
}

// Person is judge metadata from the people endpoint
type Person struct {
	ID         int64  `json:"id"`
	NameFirst  string `json:"name_first"`
	NameMiddle string `json:"name_middle"`
	NameLast   string `json:"name_last"`
	NameSuffix string `json:"name_suffix"`
}

// FullName returns the display name of the person
func (p Person) FullName() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.NameFirst, p.NameMiddle, p.NameLast, p.NameSuffix} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
