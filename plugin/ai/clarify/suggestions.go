package clarify

import "strings"

// suggestionTriggers maps query keywords to canned follow-up queries,
// checked in order. The first matching group wins.
var suggestionTriggers = []struct {
	keywords    []string
	suggestions []string
}{
	{
		keywords:    []string{"配色", "色彩", "颜色", "color", "palette"},
		suggestions: []string{"渐变配色灵感", "在线调色板生成器", "品牌色彩规范工具"},
	},
	{
		keywords:    []string{"图标", "icon"},
		suggestions: []string{"扁平风格图标库", "可商用免费图标", "3D 图标素材"},
	},
	{
		keywords:    []string{"字体", "font", "typeface"},
		suggestions: []string{"免费可商用中文字体", "标题设计字体", "等宽代码字体"},
	},
	{
		keywords:    []string{"插画", "illustration"},
		suggestions: []string{"扁平风格插画素材", "手绘风插画灵感", "开源插画库"},
	},
	{
		keywords:    []string{"模板", "template", "mockup", "样机"},
		suggestions: []string{"落地页设计模板", "App 界面样机", "PPT 设计模板"},
	},
}

// genericSuggestions is the fallback when no trigger matches.
var genericSuggestions = []string{"扁平风格图标", "免费可商用字体", "配色灵感工具"}

// SuggestedQueries returns 1-3 follow-up query suggestions for a query
// that produced no results. Never returns an empty list.
func SuggestedQueries(query string) []string {
	lower := strings.ToLower(query)
	for _, trigger := range suggestionTriggers {
		for _, keyword := range trigger.keywords {
			if strings.Contains(lower, keyword) {
				return trigger.suggestions
			}
		}
	}
	return genericSuggestions
}
