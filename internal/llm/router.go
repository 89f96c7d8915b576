package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/logging"
	"github.com/ppiankov/citecheck/internal/metrics"
)

// Vendor names
const (
	VendorOpenAI    = "openai"
	VendorAnthropic = "anthropic"
	VendorOllama    = "ollama"
)

// Hosted model identifiers used by the default route table
const (
	ModelGPT4o        = "gpt-4o"
	ModelGPT4oMini    = "gpt-4o-mini"
	ModelClaudeOpus   = "claude-opus-4-1"
	ModelClaudeSonnet = "claude-sonnet-4-5"
	ModelClaudeHaiku  = "claude-haiku-4-5"
)

// ErrSameVendor is returned when a route would let one vendor check its own work
var ErrSameVendor = errors.New("stage 1 and stage 2 must use different vendors")

// Tier is the verification depth bought for a motion type
type Tier string

const (
	TierA Tier = "A" // Dispositive and high-stakes motions
	TierB Tier = "B" // Default
	TierC Tier = "C" // Procedural filings
)

// Stage identifies which slot of a route serves a call
type Stage int

const (
	StagePrimary     Stage = iota + 1 // Stage-1 holding judgment
	StageAdversarial                  // Stage-2 challenge
	StageAux                          // Dicta and bad-law pattern calls, on the primary vendor
)

func (s Stage) String() string {
	switch s {
	case StagePrimary:
		return "stage1"
	case StageAdversarial:
		return "stage2"
	case StageAux:
		return "aux"
	default:
		return "unknown"
	}
}

// ModelSpec is one vendor model with its price per 1K tokens (USD)
type ModelSpec struct {
	Vendor      string  `json:"vendor"`
	Model       string  `json:"model"`
	InputPer1K  float64 `json:"input_per_1k"`
	OutputPer1K float64 `json:"output_per_1k"`
}

// Cost estimates the USD cost of a call
func (m ModelSpec) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*m.InputPer1K + float64(outputTokens)/1000*m.OutputPer1K
}

// Route is the model pair used for one tier
type Route struct {
	Tier   Tier      `json:"tier"`
	Stage1 ModelSpec `json:"stage1"`
	Stage2 ModelSpec `json:"stage2"`
}

var tierModels = map[Tier]map[string]ModelSpec{
	TierA: {
		VendorOpenAI:    {Vendor: VendorOpenAI, Model: ModelGPT4o, InputPer1K: 0.0025, OutputPer1K: 0.01},
		VendorAnthropic: {Vendor: VendorAnthropic, Model: ModelClaudeOpus, InputPer1K: 0.015, OutputPer1K: 0.075},
	},
	TierB: {
		VendorOpenAI:    {Vendor: VendorOpenAI, Model: ModelGPT4o, InputPer1K: 0.0025, OutputPer1K: 0.01},
		VendorAnthropic: {Vendor: VendorAnthropic, Model: ModelClaudeSonnet, InputPer1K: 0.003, OutputPer1K: 0.015},
	},
	TierC: {
		VendorOpenAI:    {Vendor: VendorOpenAI, Model: ModelGPT4oMini, InputPer1K: 0.00015, OutputPer1K: 0.0006},
		VendorAnthropic: {Vendor: VendorAnthropic, Model: ModelClaudeHaiku, InputPer1K: 0.001, OutputPer1K: 0.005},
	},
}

// specFor returns the tier's model for a vendor. Local vendors are free and
// use their configured model.
func specFor(tier Tier, vendor string) ModelSpec {
	if spec, ok := tierModels[tier][vendor]; ok {
		return spec
	}
	return ModelSpec{Vendor: vendor}
}

// RoutesFor builds the route table for a primary/adversarial vendor pair
func RoutesFor(primary, adversarial string) map[Tier]Route {
	routes := make(map[Tier]Route, 3)
	for _, tier := range []Tier{TierA, TierB, TierC} {
		routes[tier] = Route{
			Tier:   tier,
			Stage1: specFor(tier, normalizeVendor(primary)),
			Stage2: specFor(tier, normalizeVendor(adversarial)),
		}
	}
	return routes
}

// DefaultRoutes is OpenAI for stage 1 and Anthropic for stage 2
func DefaultRoutes() map[Tier]Route {
	return RoutesFor(VendorOpenAI, VendorAnthropic)
}

var motionTiers = []struct {
	keyword string
	tier    Tier
}{
	{"summary judgment", TierA},
	{"summary adjudication", TierA},
	{"preliminary injunction", TierA},
	{"temporary restraining order", TierA},
	{"tro", TierA},
	{"class certification", TierA},
	{"daubert", TierA},
	{"appellate brief", TierA},
	{"appeal", TierA},
	{"habeas", TierA},

	{"motion to dismiss", TierB},
	{"demurrer", TierB},
	{"motion to compel", TierB},
	{"anti-slapp", TierB},
	{"judgment on the pleadings", TierB},
	{"motion in limine", TierB},

	{"extension", TierC},
	{"pro hac vice", TierC},
	{"continuance", TierC},
	{"stipulation", TierC},
	{"seal", TierC},
	{"leave to file", TierC},
}

// TierFor maps a free-form motion type to its tier; unknown types get B
func TierFor(motionType string) Tier {
	words := strings.FieldsFunc(strings.ToLower(motionType), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	mt := " " + strings.Join(words, " ") + " "
	for _, m := range motionTiers {
		if strings.Contains(mt, " "+m.keyword+" ") {
			return m.tier
		}
	}
	return TierB
}

// Call is the outcome of one routed completion
type Call struct {
	Stage    Stage
	Spec     ModelSpec
	Response *CompletionResponse
	Cost     float64
}

// Router dispatches completions to the vendor assigned to each stage
type Router struct {
	routes    map[Tier]Route
	providers map[string]Provider
	logger    *zap.Logger
}

// NewRouter validates the route table against the available providers.
// Every route must name two different vendors and both must be backed by
// distinct providers.
func NewRouter(routes map[Tier]Route, providers map[string]Provider, logger *zap.Logger) (*Router, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("no routes configured")
	}
	tiers := make([]string, 0, len(routes))
	for tier := range routes {
		tiers = append(tiers, string(tier))
	}
	sort.Strings(tiers)

	for _, t := range tiers {
		route := routes[Tier(t)]
		if route.Stage1.Vendor == route.Stage2.Vendor {
			return nil, fmt.Errorf("tier %s: %w (%s)", t, ErrSameVendor, route.Stage1.Vendor)
		}
		p1, ok := providers[route.Stage1.Vendor]
		if !ok {
			return nil, fmt.Errorf("tier %s: no provider for %s", t, route.Stage1.Vendor)
		}
		p2, ok := providers[route.Stage2.Vendor]
		if !ok {
			return nil, fmt.Errorf("tier %s: no provider for %s", t, route.Stage2.Vendor)
		}
		if p1 == p2 || p1.Name() == p2.Name() {
			return nil, fmt.Errorf("tier %s: %w (%s)", t, ErrSameVendor, p1.Name())
		}
	}

	return &Router{
		routes:    routes,
		providers: providers,
		logger:    logging.OrNop(logger),
	}, nil
}

// Route returns the route for a tier, falling back to tier B
func (r *Router) Route(tier Tier) Route {
	if route, ok := r.routes[tier]; ok {
		return route
	}
	return r.routes[TierB]
}

// Spec returns the model used for a stage of a tier
func (r *Router) Spec(tier Tier, stage Stage) ModelSpec {
	route := r.Route(tier)
	if stage == StageAdversarial {
		return route.Stage2
	}
	return route.Stage1
}

// Complete sends a JSON-only request to the vendor serving the stage
func (r *Router) Complete(ctx context.Context, tier Tier, stage Stage, system, prompt string) (*Call, error) {
	spec := r.Spec(tier, stage)
	provider, ok := r.providers[spec.Vendor]
	if !ok {
		return nil, fmt.Errorf("no provider for %s", spec.Vendor)
	}

	metrics.AICalls.WithLabelValues(spec.Vendor, stage.String()).Inc()
	resp, err := provider.Complete(ctx, CompletionRequest{
		System: system,
		Prompt: prompt,
		Model:  spec.Model,
	})
	if err != nil {
		r.logger.Warn("completion failed",
			zap.String("vendor", spec.Vendor),
			zap.String("stage", stage.String()),
			zap.Error(err))
		return nil, err
	}

	call := &Call{
		Stage:    stage,
		Spec:     spec,
		Response: resp,
		Cost:     spec.Cost(resp.InputTokens, resp.OutputTokens),
	}
	r.logger.Debug("completion",
		zap.String("vendor", spec.Vendor),
		zap.String("model", resp.Model),
		zap.String("stage", stage.String()),
		zap.Int("tokens", resp.TotalTokens()),
		zap.Float64("cost_usd", call.Cost))
	return call, nil
}

func normalizeVendor(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "claude" {
		return VendorAnthropic
	}
	return v
}
