// Package analyzer classifies user intent and extracts structured search
// dimensions from free-text queries. All functions are deterministic and
// make no external calls; malformed input degrades to a blocked analysis
// instead of failing.
package analyzer

import (
	"strings"
	"unicode"
)

// Intent is the coarse classification of what the user wants.
type Intent string

const (
	IntentSearch      Intent = "search"
	IntentCorrection  Intent = "correction"
	IntentInspiration Intent = "inspiration"
	IntentQuestion    Intent = "question"
	IntentBlocked     Intent = "blocked"
)

// Density describes how keyword-rich a query is.
type Density string

const (
	DensityLow    Density = "low"    // 0-1 keywords
	DensityMedium Density = "medium" // 2-3 keywords
	DensityHigh   Density = "high"   // >=4 keywords
)

// Clarity describes how well-specified a query is.
type Clarity string

const (
	ClarityClear     Clarity = "clear"
	ClarityAmbiguous Clarity = "ambiguous"
	ClarityVague     Clarity = "vague"
)

// Dimensions are the structured facets extracted from a query. A later
// extraction overrides an inherited value per field, never merges.
type Dimensions struct {
	Industry string `json:"industry,omitempty"`
	Style    string `json:"style,omitempty"`
	Type     string `json:"type,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Count returns the number of populated dimensions.
func (d Dimensions) Count() int {
	n := 0
	for _, v := range []string{d.Industry, d.Style, d.Type, d.Color} {
		if v != "" {
			n++
		}
	}
	return n
}

// Analysis is the result of analyzing one user turn. It is never mutated
// after creation.
type Analysis struct {
	Intent                Intent     `json:"intent"`
	KeywordDensity        Density    `json:"keywordDensity"`
	ExtractedKeywords     []string   `json:"extractedKeywords"`
	Dimensions            Dimensions `json:"dimensions"`
	Confidence            float64    `json:"confidence"`
	Clarity               Clarity    `json:"clarity"`
	RequiresClarification bool       `json:"requiresClarification"`
}

// Confidence scoring constants. Base score plus a bonus per keyword
// density tier plus a fixed bonus per populated dimension, capped at 1.
const (
	confidenceBase        = 0.5
	confidenceMediumBonus = 0.2
	confidenceHighBonus   = 0.4
	confidenceDimBonus    = 0.15

	// clearConfidenceFloor is the confidence a query needs, together
	// with at least two dimensions, to count as clear.
	clearConfidenceFloor = 0.75
)

// Analyze produces a fresh Analysis for a user turn. Inherited dimensions
// from earlier turns fill facets the current query leaves unset; a newly
// detected value overrides the inherited one for that facet only.
func Analyze(raw string, inherited Dimensions) *Analysis {
	text := Sanitize(raw)
	if text == "" {
		return &Analysis{
			Intent:                IntentBlocked,
			KeywordDensity:        DensityLow,
			ExtractedKeywords:     []string{},
			Confidence:            0,
			Clarity:               ClarityVague,
			RequiresClarification: true,
		}
	}

	keywords := extractKeywords(text)
	density := classifyDensity(len(keywords))
	dims := extractDimensions(keywords, inherited)
	intent := classifyIntent(text)
	confidence := scoreConfidence(density, dims)
	clarity := classifyClarity(confidence, density, dims)

	return &Analysis{
		Intent:                intent,
		KeywordDensity:        density,
		ExtractedKeywords:     keywords,
		Dimensions:            dims,
		Confidence:            confidence,
		Clarity:               clarity,
		RequiresClarification: clarity == ClarityVague,
	}
}

// extractKeywords tokenizes on whitespace and punctuation and drops
// stop words. Mixed-case Latin tokens and CJK tokens are kept as-is; no
// stemming is applied.
func extractKeywords(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	keywords := []string{}
	for _, token := range tokens {
		if isStopWord(strings.ToLower(token)) {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

func classifyDensity(keywordCount int) Density {
	switch {
	case keywordCount >= 4:
		return DensityHigh
	case keywordCount >= 2:
		return DensityMedium
	default:
		return DensityLow
	}
}

// extractDimensions scans keywords against the per-dimension
// vocabularies. The first match per dimension wins; unmatched dimensions
// inherit from context.
func extractDimensions(keywords []string, inherited Dimensions) Dimensions {
	dims := inherited

	industry := matchVocabulary(keywords, industryTerms)
	if industry != "" {
		dims.Industry = industry
	}
	style := matchVocabulary(keywords, styleTerms)
	if style != "" {
		dims.Style = style
	}
	typ := matchVocabulary(keywords, typeTerms)
	if typ != "" {
		dims.Type = typ
	}
	color := matchVocabulary(keywords, colorTerms)
	if color != "" {
		dims.Color = color
	}

	return dims
}

// classifyIntent applies an ordered rule check over the sanitized text:
// correction markers, then inspiration markers, then question markers,
// defaulting to search.
func classifyIntent(text string) Intent {
	lower := strings.ToLower(text)

	for _, marker := range correctionMarkers {
		if strings.Contains(lower, marker) {
			return IntentCorrection
		}
	}
	for _, marker := range inspirationMarkers {
		if strings.Contains(lower, marker) {
			return IntentInspiration
		}
	}
	for _, marker := range questionMarkers {
		if strings.Contains(lower, marker) {
			return IntentQuestion
		}
	}
	return IntentSearch
}

func scoreConfidence(density Density, dims Dimensions) float64 {
	confidence := confidenceBase
	switch density {
	case DensityMedium:
		confidence += confidenceMediumBonus
	case DensityHigh:
		confidence += confidenceHighBonus
	}
	confidence += confidenceDimBonus * float64(dims.Count())
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func classifyClarity(confidence float64, density Density, dims Dimensions) Clarity {
	if confidence >= clearConfidenceFloor && dims.Count() >= 2 {
		return ClarityClear
	}
	if density == DensityLow && dims.Count() <= 1 {
		return ClarityVague
	}
	return ClarityAmbiguous
}
