package feed

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/citecheck/internal/courts"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/score"
)

// SearchRequest asks for authority supporting a proposition
type SearchRequest struct {
	Query        string             `json:"query"`
	MotionType   string             `json:"motion_type"`
	Jurisdiction model.Jurisdiction `json:"jurisdiction"`
	Proposition  string             `json:"proposition,omitempty"`
	Keywords     []string           `json:"keywords,omitempty"`
	Statutes     []string           `json:"statutes,omitempty"`
}

// ScoringContext builds the scorer context for the request as of asOf
func (r SearchRequest) ScoringContext(asOf time.Time, g *courts.Gazetteer) score.ScoringContext {
	prop := r.Proposition
	if prop == "" {
		prop = r.Query
	}
	sc := score.ScoringContext{
		Jurisdiction: r.Jurisdiction,
		MotionType:   r.MotionType,
		Proposition:  prop,
		Keywords:     r.Keywords,
		Statutes:     r.Statutes,
		AsOf:         asOf,
	}
	if g != nil {
		sc.Courts = g
	}
	return sc
}

// LoadSearch reads a search request from path
func LoadSearch(path string) (*SearchRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open search request: %w", err)
	}
	defer f.Close()
	return DecodeSearch(f)
}

// DecodeSearch parses and validates a search request
func DecodeSearch(r io.Reader) (*SearchRequest, error) {
	var req SearchRequest
	if err := decodeStrict(r, &req); err != nil {
		return nil, fmt.Errorf("decode search request: %w", err)
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, fmt.Errorf("search request: query is required")
	}
	req.Jurisdiction.State = strings.ToUpper(strings.TrimSpace(req.Jurisdiction.State))
	return &req, nil
}

// CandidateSet is a set of candidates to score into a citation bank
type CandidateSet struct {
	SearchRequest
	Candidates []model.Candidate `json:"candidates"`
}

// LoadCandidates reads a candidate set from path
func LoadCandidates(path string) (*CandidateSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candidates: %w", err)
	}
	defer f.Close()
	return DecodeCandidates(f)
}

// DecodeCandidates parses a candidate set. The query may be empty.
func DecodeCandidates(r io.Reader) (*CandidateSet, error) {
	var set CandidateSet
	if err := decodeStrict(r, &set); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	if len(set.Candidates) == 0 {
		return nil, fmt.Errorf("candidate set is empty")
	}
	set.Jurisdiction.State = strings.ToUpper(strings.TrimSpace(set.Jurisdiction.State))
	return &set, nil
}
