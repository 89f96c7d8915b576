package llm

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// ExtractJSON returns the first balanced JSON object in s. Models wrap
// objects in prose or code fences often enough that the raw reply cannot be
// handed to encoding/json directly.
func ExtractJSON(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		depth := 0
		inString, escaped := false, false
		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// flexFloat accepts 0.8, "0.8", 80 and "80%"
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// Unparseable numbers leave the field unset
		return nil
	}
	f.value, f.set = v, true
	return nil
}

// confidence normalizes a model-reported score into [0,1]
func (f flexFloat) confidence() float64 {
	if f.value > 1 {
		return model.FromPercent(f.value)
	}
	return model.Clamp01(f.value)
}

func decodeObject(text string, out any) bool {
	obj, ok := ExtractJSON(text)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(obj), out) == nil
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, " ", "_")))
}

// DecodeStageOne parses a holding judgment. Anything unusable becomes
// PARTIAL at zero confidence with Valid=false.
func DecodeStageOne(text string) model.StageOneOutput {
	fallback := model.StageOneOutput{Result: model.HoldingPartial}

	var raw struct {
		Result     string    `json:"result"`
		Confidence flexFloat `json:"confidence"`
		Quote      string    `json:"quote"`
		Reasoning  string    `json:"reasoning"`
	}
	if !decodeObject(text, &raw) {
		return fallback
	}

	var result model.HoldingVerdict
	switch upper(raw.Result) {
	case "VERIFIED", "SUPPORTED":
		result = model.HoldingVerified
	case "PARTIAL", "PARTIALLY_SUPPORTED":
		result = model.HoldingPartial
	case "REJECTED", "NOT_SUPPORTED", "UNSUPPORTED":
		result = model.HoldingRejected
	case "DICTA_ONLY", "DICTA":
		result = model.HoldingDictaOnly
	default:
		fallback.Reasoning = raw.Reasoning
		return fallback
	}
	if !raw.Confidence.set {
		fallback.Reasoning = raw.Reasoning
		return fallback
	}

	return model.StageOneOutput{
		Result:     result,
		Confidence: raw.Confidence.confidence(),
		Quote:      strings.TrimSpace(raw.Quote),
		Reasoning:  strings.TrimSpace(raw.Reasoning),
		Valid:      true,
	}
}

// DecodeStageTwo parses an adversarial challenge. Anything unusable becomes
// WEAKENED at strength 0.5.
func DecodeStageTwo(text string) model.StageTwoOutput {
	fallback := model.StageTwoOutput{Result: model.ChallengeWeakened, ChallengeStrength: 0.5}

	var raw struct {
		Result    string    `json:"result"`
		Strength  flexFloat `json:"challenge_strength"`
		Reasoning string    `json:"reasoning"`
	}
	if !decodeObject(text, &raw) {
		return fallback
	}

	var result model.ChallengeVerdict
	switch upper(raw.Result) {
	case "UPHELD", "UPHOLD":
		result = model.ChallengeUpheld
	case "WEAKENED", "WEAKEN":
		result = model.ChallengeWeakened
	case "REJECTED", "REJECT":
		result = model.ChallengeRejected
	default:
		return fallback
	}
	if !raw.Strength.set {
		return fallback
	}

	return model.StageTwoOutput{
		Result:            result,
		ChallengeStrength: raw.Strength.confidence(),
		Reasoning:         strings.TrimSpace(raw.Reasoning),
		Valid:             true,
	}
}

// DictaDecision is the decoded step-3 classification
type DictaDecision struct {
	Class     model.DictaClass
	Reasoning string
	Valid     bool
}

// DecodeDicta parses a holding/dicta classification; unusable output is UNCLEAR
func DecodeDicta(text string) DictaDecision {
	var raw struct {
		Classification string `json:"classification"`
		Reasoning      string `json:"reasoning"`
	}
	if !decodeObject(text, &raw) {
		return DictaDecision{Class: model.ClassUnclear}
	}

	switch upper(raw.Classification) {
	case "HOLDING":
		return DictaDecision{Class: model.ClassHolding, Reasoning: strings.TrimSpace(raw.Reasoning), Valid: true}
	case "DICTA", "OBITER_DICTA":
		return DictaDecision{Class: model.ClassDicta, Reasoning: strings.TrimSpace(raw.Reasoning), Valid: true}
	case "UNCLEAR":
		return DictaDecision{Class: model.ClassUnclear, Reasoning: strings.TrimSpace(raw.Reasoning), Valid: true}
	default:
		return DictaDecision{Class: model.ClassUnclear}
	}
}

// BadLawDecision is the decoded layer-2 treatment assessment
type BadLawDecision struct {
	Status     model.LawStatus
	Confidence float64
	Treatments []model.Treatment
	Reasoning  string
	Valid      bool
}

// DecodeBadLaw parses a treatment assessment; unusable output is CAUTION at 0.5
func DecodeBadLaw(text string) BadLawDecision {
	fallback := BadLawDecision{Status: model.LawCaution, Confidence: 0.5}

	var raw struct {
		Status     string    `json:"status"`
		Confidence flexFloat `json:"confidence"`
		Reasoning  string    `json:"reasoning"`
		Treatments []struct {
			Kind       string `json:"kind"`
			CitingCase string `json:"citing_case"`
			Snippet    string `json:"snippet"`
		} `json:"treatments"`
	}
	if !decodeObject(text, &raw) {
		return fallback
	}

	var status model.LawStatus
	switch upper(raw.Status) {
	case "GOOD_LAW", "GOOD":
		status = model.LawGood
	case "CAUTION":
		status = model.LawCaution
	case "NEGATIVE_TREATMENT", "NEGATIVE":
		status = model.LawNegativeTreatment
	case "OVERRULED":
		status = model.LawOverruled
	default:
		return fallback
	}

	decision := BadLawDecision{
		Status:     status,
		Confidence: 0.5,
		Reasoning:  strings.TrimSpace(raw.Reasoning),
		Valid:      true,
	}
	if raw.Confidence.set {
		decision.Confidence = raw.Confidence.confidence()
	}
	for _, t := range raw.Treatments {
		kind := strings.ToLower(strings.TrimSpace(t.Kind))
		if kind == "" {
			continue
		}
		decision.Treatments = append(decision.Treatments, model.Treatment{
			Kind:       kind,
			CitingCase: strings.TrimSpace(t.CitingCase),
			Snippet:    strings.TrimSpace(t.Snippet),
		})
	}
	return decision
}
