package clarify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier/plugin/ai/analyzer"
)

func TestShouldAskRequiresVagueClarity(t *testing.T) {
	tests := []struct {
		name     string
		analysis *analyzer.Analysis
		want     bool
	}{
		{
			name:     "nil analysis",
			analysis: nil,
			want:     false,
		},
		{
			name: "clear query never interrupts",
			analysis: &analyzer.Analysis{
				Clarity:    analyzer.ClarityClear,
				Confidence: 0.95,
			},
			want: false,
		},
		{
			name: "ambiguous query never interrupts",
			analysis: &analyzer.Analysis{
				Clarity:    analyzer.ClarityAmbiguous,
				Confidence: 0.9,
			},
			want: false,
		},
		{
			name: "vague with low confidence proceeds to search",
			analysis: &analyzer.Analysis{
				Clarity:    analyzer.ClarityVague,
				Confidence: 0.65,
			},
			want: false,
		},
		{
			name: "vague with all aspects missing and high confidence",
			analysis: &analyzer.Analysis{
				Clarity:    analyzer.ClarityVague,
				Confidence: 0.82,
			},
			want: true,
		},
		{
			name: "vague with very high confidence",
			analysis: &analyzer.Analysis{
				Clarity:    analyzer.ClarityVague,
				Confidence: 0.9,
				Dimensions: analyzer.Dimensions{Type: "图标"},
			},
			want: true,
		},
		{
			name: "single missing aspect below high threshold",
			analysis: &analyzer.Analysis{
				Clarity:    analyzer.ClarityVague,
				Confidence: 0.82,
				Dimensions: analyzer.Dimensions{Type: "图标", Style: "扁平", Industry: "医疗"},
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAsk(tt.analysis))
		})
	}
}

func TestQuestionsAreBoundedAndWellFormed(t *testing.T) {
	tests := []struct {
		name     string
		analysis *analyzer.Analysis
		wantLen  int
	}{
		{"nil analysis", nil, 3},
		{"no dimensions", &analyzer.Analysis{}, 3},
		{
			"one dimension present",
			&analyzer.Analysis{Dimensions: analyzer.Dimensions{Type: "图标"}},
			3,
		},
		{
			"three dimensions present",
			&analyzer.Analysis{Dimensions: analyzer.Dimensions{Type: "图标", Style: "扁平", Industry: "医疗"}},
			1,
		},
		{
			"all dimensions present",
			&analyzer.Analysis{Dimensions: analyzer.Dimensions{Type: "图标", Style: "扁平", Industry: "医疗", Color: "红色"}},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions := Questions(tt.analysis)
			assert.Len(t, questions, tt.wantLen)
			for _, q := range questions {
				assert.NotEmpty(t, q.Question)
				assert.GreaterOrEqual(t, len(q.Options), 1)
				assert.NotEmpty(t, q.Aspect)
			}
		})
	}
}

func TestQuestionsFollowAspectPriority(t *testing.T) {
	questions := Questions(&analyzer.Analysis{})
	require.Len(t, questions, 3)
	assert.Equal(t, AspectCategory, questions[0].Aspect)
	assert.Equal(t, AspectStyle, questions[1].Aspect)
	assert.Equal(t, AspectAudience, questions[2].Aspect)
}

func TestShouldAskImpliesQuestions(t *testing.T) {
	// Whenever the gate fires, at least one question must be available.
	analyses := []*analyzer.Analysis{
		{Clarity: analyzer.ClarityVague, Confidence: 0.82},
		{Clarity: analyzer.ClarityVague, Confidence: 0.9, Dimensions: analyzer.Dimensions{Type: "图标"}},
		{Clarity: analyzer.ClarityVague, Confidence: 0.95, Dimensions: analyzer.Dimensions{Type: "图标", Style: "扁平", Industry: "医疗"}},
	}
	for _, a := range analyses {
		if ShouldAsk(a) {
			assert.NotEmpty(t, Questions(a))
		}
	}
}

func TestRefineQuery(t *testing.T) {
	tests := []struct {
		original string
		answer   string
		want     string
	}{
		{"图标", "医疗行业", "图标 医疗行业"},
		{"  图标  ", "  医疗行业  ", "图标 医疗行业"},
		{"图标", "", "图标"},
		{"", "医疗行业", "医疗行业"},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RefineQuery(tt.original, tt.answer))
	}
}

func TestSuggestedQueriesNeverEmpty(t *testing.T) {
	queries := []string{
		"",
		"配色方案",
		"红色图标",
		"字体搭配",
		"完全不相关的输入 xyz",
	}
	for _, q := range queries {
		suggestions := SuggestedQueries(q)
		require.NotEmpty(t, suggestions, "query %q", q)
		assert.LessOrEqual(t, len(suggestions), 3)
		for _, s := range suggestions {
			assert.NotEmpty(t, s)
		}
	}
}

func TestSuggestedQueriesMatchTriggers(t *testing.T) {
	colorSuggestions := SuggestedQueries("帮我找配色")
	generic := SuggestedQueries("完全不相关的输入 xyz")
	assert.NotEqual(t, generic, colorSuggestions)
}
