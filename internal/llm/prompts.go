package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// maxOpinionChars bounds how much opinion text goes into one prompt
const maxOpinionChars = 24000

const jsonOnly = "Respond with a single JSON object and nothing else."

// SystemVerifier is the stage-1 role
const SystemVerifier = `You verify whether a court opinion supports a legal proposition as stated in a brief.
You judge only what the opinion text says. You never rely on memory of the case. ` + jsonOnly

// SystemChallenger is the stage-2 role
const SystemChallenger = `You are opposing counsel reviewing another reviewer's conclusion that an opinion supports a proposition.
Find the strongest honest reason the conclusion is wrong or overstated. Do not invent weaknesses. ` + jsonOnly

// SystemClassifier is the role for auxiliary dicta and treatment calls
const SystemClassifier = `You classify passages of court opinions for a citation checker. Be conservative. ` + jsonOnly

// HoldingPrompt asks whether the opinion supports the proposition
func HoldingPrompt(c model.Citation, caseName, proposition, opinion string) string {
	return fmt.Sprintf(`Citation: %s
Case: %s

PROPOSITION (as asserted in the brief):
%s
%s
OPINION TEXT:
%s

Decide whether the opinion's holding supports the proposition.
- VERIFIED: the holding states or necessarily implies the proposition.
- PARTIAL: the opinion supports part of it, or only with qualifications the brief omits.
- REJECTED: the opinion does not support it or says the opposite.
- DICTA_ONLY: the language appears only in dicta, not in the holding.

Return:
{"result": "VERIFIED|PARTIAL|REJECTED|DICTA_ONLY", "confidence": 0.0-1.0, "quote": "the supporting sentence copied exactly from the opinion, or empty", "reasoning": "two sentences at most"}`,
		citationLine(c), orUnknown(caseName), proposition, quotedLine(c.Quote), truncate(opinion, maxOpinionChars))
}

// ChallengePrompt asks a second vendor to attack a stage-1 judgment
func ChallengePrompt(c model.Citation, caseName, proposition, opinion string, first model.StageOneOutput) string {
	return fmt.Sprintf(`Citation: %s
Case: %s

PROPOSITION:
%s

FIRST REVIEWER'S CONCLUSION: %s (confidence %.2f)
Supporting quote: %s
Reasoning: %s

OPINION TEXT:
%s

Challenge the first reviewer. Look for: a different holding than claimed, missing qualifications,
procedural posture that limits the holding, a dissent or concurrence being quoted, or a
proposition broader than the opinion allows.
- UPHELD: the conclusion survives your challenge.
- WEAKENED: the conclusion is partly right but overstated.
- REJECTED: the conclusion is wrong.

Return:
{"result": "UPHELD|WEAKENED|REJECTED", "challenge_strength": 0.0-1.0, "reasoning": "two sentences at most"}`,
		citationLine(c), orUnknown(caseName), proposition,
		first.Result, first.Confidence, orNone(first.Quote), orNone(first.Reasoning),
		truncate(opinion, maxOpinionChars))
}

// DictaPrompt asks whether the supporting language is holding or dicta
func DictaPrompt(c model.Citation, proposition, passage, opinion string) string {
	return fmt.Sprintf(`Citation: %s

PROPOSITION:
%s

PASSAGE RELIED ON:
%s

OPINION TEXT:
%s

Is the passage part of the court's holding (necessary to the decision) or dicta
(remarks not necessary to the result)? Answer UNCLEAR if the text does not let you decide.

Return:
{"classification": "HOLDING|DICTA|UNCLEAR", "reasoning": "one sentence"}`,
		citationLine(c), proposition, orNone(passage), truncate(opinion, maxOpinionChars))
}

// BadLawPrompt asks for negative treatment patterns in citing-case snippets
func BadLawPrompt(c model.Citation, caseName string, snippets []string) string {
	var b strings.Builder
	for i, s := range snippets {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			fmt.Fprintf(&b, "\n... and %d more citing cases", len(snippets)-20)
			break
		}
		fmt.Fprintf(&b, "\n[%d] %s", i+1, s)
	}
	if b.Len() == 0 {
		b.WriteString("\n(No citing-case excerpts available)")
	}

	return fmt.Sprintf(`Cited case: %s (%s)

Excerpts from later opinions that cite it:%s

Do these excerpts show the cited case was overruled, reversed, vacated, superseded,
or treated negatively (distinguished, criticized, questioned)? Only report treatment
of the cited case itself, not of other cases mentioned in the excerpts.

Return:
{"status": "GOOD_LAW|CAUTION|NEGATIVE_TREATMENT|OVERRULED", "confidence": 0.0-1.0,
 "treatments": [{"kind": "overruled|reversed|vacated|superseded|distinguished|criticized|questioned", "citing_case": "name", "snippet": "short excerpt"}],
 "reasoning": "one sentence"}`,
		orUnknown(caseName), citationLine(c), b.String())
}

func citationLine(c model.Citation) string {
	if c.Normalized != "" {
		return c.Normalized
	}
	return c.Raw
}

func quotedLine(quote string) string {
	if strings.TrimSpace(quote) == "" {
		return ""
	}
	return fmt.Sprintf("\nQUOTED IN THE BRIEF:\n%q\n", quote)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Drop a rune split by the cut
	return strings.ToValidUTF8(s[:n], "") + "\n[... opinion truncated ...]"
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unknown)"
	}
	return s
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
