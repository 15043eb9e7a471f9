package assistant

import (
	"fmt"
	"strings"

	"github.com/atelierhq/atelier/plugin/ai/rag"
)

const systemInstruction = `你是 Atelier 设计资源目录的推荐助手。根据下方检索到的资源列表回答用户的问题。

要求：
1. 只推荐列表中出现的资源，不要编造资源或链接。
2. 按与需求的匹配程度组织回答，优先介绍最相关的资源。
3. 说明每个推荐的理由，引用资源的评分和标签作为依据。
4. 用简洁友好的中文回答。

检索到的资源：
`

// systemPrompt renders the grounding block handed to the completion
// provider: a numbered listing of each retrieved resource with the
// facts the model is allowed to cite.
func systemPrompt(results []rag.SearchResult) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	for i, result := range results {
		b.WriteString(formatResult(i+1, result))
	}
	return b.String()
}

func formatResult(ordinal int, result rag.SearchResult) string {
	r := result.Resource

	var b strings.Builder
	fmt.Fprintf(&b, "\n%d. %s（%s）\n", ordinal, r.Name, r.CategoryID)
	if r.Rating.Count > 0 {
		fmt.Fprintf(&b, "   评分：%.1f（质量 %.1f / 易用 %.1f / 视觉 %.1f，%d 人评价）\n",
			r.Rating.Average(), r.Rating.Quality, r.Rating.Usability, r.Rating.Visual, r.Rating.Count)
	}
	if r.Description != "" {
		fmt.Fprintf(&b, "   简介：%s\n", firstLine(r.Description))
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, "   标签：%s\n", strings.Join(r.Tags, "、"))
	}
	if r.CuratorNote != "" {
		fmt.Fprintf(&b, "   编辑笔记：%s\n", r.CuratorNote)
	}
	fmt.Fprintf(&b, "   推荐理由：%s（相关度 %.0f%%）\n", result.MatchReason, result.Similarity*100)
	return b.String()
}

// firstLine keeps the grounding block compact for long markdown
// descriptions.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}
