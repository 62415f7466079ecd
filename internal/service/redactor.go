package service

import (
	"fmt"
	"regexp"
	"strings"
)

// PIIKind names one class of personally identifying text.
type PIIKind string

const (
	PIIEmail   PIIKind = "EMAIL"
	PIICard    PIIKind = "CARD"
	PIIGovID   PIIKind = "GOV_ID"
	PIIPhone   PIIKind = "PHONE"
	PIIAddress PIIKind = "ADDRESS"
)

// RedactionResult holds the scrubbed text and the token mapping needed to
// reverse it. The mapping lives only in request memory; it is never persisted
// alongside the redacted text.
type RedactionResult struct {
	RedactedText string
	Mapping      map[string]string
	MatchedKinds []PIIKind
}

// placeholderPattern recognizes redaction tokens so that re-redaction is a
// no-op and the synthesizer can strip any token that survives into an answer.
var placeholderPattern = regexp.MustCompile(`\[REDACTED_[A-Z_]+_\d+\]`)

type piiPattern struct {
	kind PIIKind
	re   *regexp.Regexp
}

// Redactor scrubs PII from inbound user text before it is logged, persisted
// or forwarded to generation. Matching is best effort: a false positive is
// preferred over missed PII. All state is read-only after construction.
type Redactor struct {
	patterns []piiPattern
}

// Card before phone: a loose phone pattern must never get first claim on a
// 13-16 digit card sequence.
var piiPatternSources = []struct {
	kind PIIKind
	expr string
}{
	{PIIEmail, `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`},
	{PIICard, `\b(?:\d[ -]?){13,16}\b`},
	{PIIGovID, `\b\d{3}-\d{2}-\d{4}\b`},
	{PIIPhone, `\+?\d{1,3}[\s.-]?\(?\d{2,4}\)?[\s.-]?\d{3}[\s.-]?\d{2,4}\b`},
	{PIIAddress, `\b\d{1,5}\s+(?:[A-Z][A-Za-z]+\s+){1,3}(?:Street|St\.?|Avenue|Ave\.?|Road|Rd\.?|Boulevard|Blvd\.?|Lane|Ln\.?|Drive|Dr\.?)\b`},
}

// NewRedactor compiles the fixed pattern list. A malformed pattern is a
// configuration-time fatal error, never a per-request one.
func NewRedactor() (*Redactor, error) {
	patterns := make([]piiPattern, 0, len(piiPatternSources))
	for _, src := range piiPatternSources {
		re, err := regexp.Compile(src.expr)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %s is malformed: %w", src.kind, err)
		}
		patterns = append(patterns, piiPattern{kind: src.kind, re: re})
	}
	return &Redactor{patterns: patterns}, nil
}

// Redact replaces every PII match with a unique positional placeholder token.
// Occurrences of the same kind get distinct tokens so a downstream Restore
// reconstructs the input exactly. The input is never mutated and the raw text
// is never logged here.
func (r *Redactor) Redact(text string) RedactionResult {
	result := RedactionResult{
		RedactedText: text,
		Mapping:      make(map[string]string),
	}

	for _, p := range r.patterns {
		n := 0
		result.RedactedText = p.re.ReplaceAllStringFunc(result.RedactedText, func(match string) string {
			// A previously minted token must stay untouched (idempotence).
			if placeholderPattern.MatchString(match) {
				return match
			}
			n++
			token := fmt.Sprintf("[REDACTED_%s_%d]", p.kind, n)
			result.Mapping[token] = match
			result.MatchedKinds = append(result.MatchedKinds, p.kind)
			return token
		})
	}
	return result
}

// Restore reverses a redaction using its token mapping. It exists for the
// authorized internal review path only; the chat response path never calls it.
func (r *Redactor) Restore(redacted string, mapping map[string]string) string {
	restored := redacted
	for token, original := range mapping {
		restored = strings.ReplaceAll(restored, token, original)
	}
	return restored
}

var doubleSpacePattern = regexp.MustCompile(`[ \t]{2,}`)

// StripPlaceholders removes any redaction token that would otherwise leak
// into user-visible output. Line structure is preserved; only the gap a
// removed token leaves behind is collapsed.
func StripPlaceholders(text string) string {
	stripped := placeholderPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(doubleSpacePattern.ReplaceAllString(stripped, " "))
}
