// Package feed loads the JSON documents the CLI consumes: the extracted
// citation feed of a drafted motion, search requests and candidate sets
// for the citation bank.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/citecheck/internal/citation"
	"github.com/ppiankov/citecheck/internal/model"
)

// ErrEmptyFeed is returned when a feed carries no citations
var ErrEmptyFeed = errors.New("feed has no citations")

// Feed is the citation feed of one drafted motion
type Feed struct {
	MotionType   string             `json:"motion_type"`
	Jurisdiction model.Jurisdiction `json:"jurisdiction"`
	Citations    []Entry            `json:"citations"`
}

// Entry is one extracted citation and the proposition it supports
type Entry struct {
	Raw             string `json:"raw"`
	Context         string `json:"context,omitempty"`
	Proposition     string `json:"proposition"`
	PropositionType string `json:"proposition_type,omitempty"`
	Quote           string `json:"quote,omitempty"`
}

// Load reads a feed from path
func Load(path string) (*Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses and validates a feed
func Decode(r io.Reader) (*Feed, error) {
	var fd Feed
	if err := decodeStrict(r, &fd); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if len(fd.Citations) == 0 {
		return nil, ErrEmptyFeed
	}
	for i, e := range fd.Citations {
		if strings.TrimSpace(e.Raw) == "" {
			return nil, fmt.Errorf("citation %d: raw text is required", i)
		}
	}
	fd.Jurisdiction.State = strings.ToUpper(strings.TrimSpace(fd.Jurisdiction.State))
	fd.Jurisdiction.Forum = model.Forum(strings.ToLower(string(fd.Jurisdiction.Forum)))
	return &fd, nil
}

// Requests turns the feed into verification requests in feed order
func (fd *Feed) Requests() []model.VerifyRequest {
	reqs := make([]model.VerifyRequest, len(fd.Citations))
	for i, e := range fd.Citations {
		c := citation.Parse(e.Raw)
		c.Context = strings.TrimSpace(e.Context)
		c.Quote = strings.TrimSpace(e.Quote)

		reqs[i] = model.VerifyRequest{
			Index:    i,
			Citation: c,
			Proposition: model.Proposition{
				Text: strings.TrimSpace(e.Proposition),
				Type: model.ParsePropositionType(e.PropositionType),
			},
			MotionType:   fd.MotionType,
			Jurisdiction: fd.Jurisdiction,
		}
	}
	return reqs
}

// Distinct counts the distinct normalized citations in the feed
func (fd *Feed) Distinct() int {
	seen := make(map[string]bool)
	for _, e := range fd.Citations {
		seen[citation.Normalize(e.Raw)] = true
	}
	return len(seen)
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
