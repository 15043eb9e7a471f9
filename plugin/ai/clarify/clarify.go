// Package clarify decides whether a query is too vague to search and, if
// so, produces structured clarification prompts. All functions are pure
// and total: any input, including the empty string, yields a valid
// structure.
package clarify

import (
	"strings"

	"github.com/atelierhq/atelier/plugin/ai/analyzer"
)

// Aspect identifies the facet a clarification question targets.
type Aspect string

const (
	AspectCategory Aspect = "category"
	AspectStyle    Aspect = "style"
	AspectAudience Aspect = "audience"
	AspectPurpose  Aspect = "purpose"
)

// aspectPriority is the fixed order in which missing aspects are asked.
var aspectPriority = []Aspect{AspectCategory, AspectStyle, AspectAudience, AspectPurpose}

// Question is a structured clarification prompt with quick-reply options.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Aspect   Aspect   `json:"aspect"`
}

// maxQuestions caps the number of questions surfaced per turn.
const maxQuestions = 3

// Gate thresholds. A single missing aspect never blocks search; only
// genuinely under-specified queries trigger interruption.
const (
	gateMissingAspects  = 4
	gateConfidenceFloor = 0.8
	gateConfidenceHigh  = 0.85
)

// ShouldAsk reports whether the query is too vague to search and the
// user should be interrupted with clarification questions.
func ShouldAsk(a *analyzer.Analysis) bool {
	if a == nil || a.Clarity != analyzer.ClarityVague {
		return false
	}
	missing := len(missingAspects(a.Dimensions))
	if missing >= gateMissingAspects && a.Confidence > gateConfidenceFloor {
		return true
	}
	return a.Confidence > gateConfidenceHigh
}

// Questions generates one structured question per missing aspect, in
// priority order, truncated to maxQuestions.
func Questions(a *analyzer.Analysis) []Question {
	if a == nil {
		a = &analyzer.Analysis{}
	}

	questions := []Question{}
	for _, aspect := range missingAspects(a.Dimensions) {
		questions = append(questions, cannedQuestions[aspect])
		if len(questions) == maxQuestions {
			break
		}
	}
	return questions
}

// RefineQuery merges a clarification answer into the original query.
// Clarification is additive; it never replaces the original intent.
func RefineQuery(original, answer string) string {
	return strings.TrimSpace(strings.TrimSpace(original) + " " + strings.TrimSpace(answer))
}

// missingAspects maps the extracted dimensions onto question aspects:
// type→category, style→style, industry→audience, color→purpose.
func missingAspects(d analyzer.Dimensions) []Aspect {
	present := map[Aspect]bool{
		AspectCategory: d.Type != "",
		AspectStyle:    d.Style != "",
		AspectAudience: d.Industry != "",
		AspectPurpose:  d.Color != "",
	}

	missing := []Aspect{}
	for _, aspect := range aspectPriority {
		if !present[aspect] {
			missing = append(missing, aspect)
		}
	}
	return missing
}

// cannedQuestions holds the fixed prompt and quick-reply options per
// aspect.
var cannedQuestions = map[Aspect]Question{
	AspectCategory: {
		Question: "您在找哪一类设计资源？",
		Options:  []string{"图标", "字体", "配色", "插画", "模板", "素材"},
		Aspect:   AspectCategory,
	},
	AspectStyle: {
		Question: "偏好什么视觉风格？",
		Options:  []string{"扁平", "3D", "极简", "复古", "渐变"},
		Aspect:   AspectStyle,
	},
	AspectAudience: {
		Question: "这个项目面向哪个行业？",
		Options:  []string{"医疗", "金融", "教育", "电商", "游戏", "科技"},
		Aspect:   AspectAudience,
	},
	AspectPurpose: {
		Question: "有没有特定的色彩倾向？",
		Options:  []string{"红色", "蓝色", "绿色", "黑白", "不限"},
		Aspect:   AspectPurpose,
	},
}
