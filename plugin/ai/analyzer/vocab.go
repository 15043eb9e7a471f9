package analyzer

import "strings"

// Curated vocabularies per search dimension. Matching is
// case-insensitive for Latin terms; terms containing CJK characters also
// match as substrings of a longer token, since CJK queries are often
// written without separators.

var industryTerms = []string{
	"医疗", "金融", "教育", "电商", "游戏", "科技", "餐饮", "旅游", "房产", "汽车",
	"medical", "healthcare", "finance", "fintech", "education", "ecommerce",
	"gaming", "tech", "food", "travel",
}

var styleTerms = []string{
	"3d", "扁平", "极简", "复古", "渐变", "手绘", "卡通", "像素", "赛博朋克", "新拟态",
	"flat", "minimal", "minimalist", "retro", "vintage", "gradient",
	"hand-drawn", "cartoon", "pixel", "cyberpunk", "neumorphism", "isometric",
}

var typeTerms = []string{
	"图标", "字体", "插画", "配色", "模板", "素材", "动效", "纹理", "样机", "壁纸",
	"icon", "icons", "font", "fonts", "typeface", "illustration", "palette",
	"template", "animation", "texture", "mockup", "wallpaper",
}

var colorTerms = []string{
	"红色", "蓝色", "绿色", "黄色", "紫色", "黑色", "白色", "橙色", "粉色", "灰色",
	"red", "blue", "green", "yellow", "purple", "black", "white", "orange",
	"pink", "gray", "grey",
}

// Intent markers, checked in order against the sanitized lowercase text.

var correctionMarkers = []string{
	"不是", "不要", "不对", "换成", "换个", "改成", "改为", "重新",
	"not ", "instead", "change to", "rather",
}

var inspirationMarkers = []string{
	"推荐", "灵感", "给我一些", "有什么好", "看看有什么",
	"recommend", "inspiration", "ideas", "what's good", "show me some",
}

var questionMarkers = []string{
	"为什么", "是什么", "怎么用", "如何",
	"why ", "what is", "how do", "how to",
}

// Bilingual stop-word set applied during keyword extraction.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"的", "了", "吗", "呢", "啊", "吧", "我", "你", "他", "她", "它", "我们",
		"一个", "一些", "这个", "那个", "帮我", "请", "想", "要", "找", "找个",
		"给我", "有没有", "什么", "哪些", "关于",
		"a", "an", "the", "of", "for", "to", "in", "on", "at", "with",
		"and", "or", "is", "are", "was", "i", "me", "my", "we", "you",
		"want", "need", "some", "please", "find", "show", "give",
	} {
		stopWords[w] = struct{}{}
	}
}

func isStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// matchVocabulary returns the first keyword that matches a vocabulary
// term, preserving its original surface form. ASCII terms require exact
// token equality; CJK terms also match inside a longer token.
func matchVocabulary(keywords []string, terms []string) string {
	for _, keyword := range keywords {
		lower := strings.ToLower(keyword)
		for _, term := range terms {
			if lower == term {
				return keyword
			}
			if containsCJK(term) && strings.Contains(lower, term) {
				return term
			}
		}
	}
	return ""
}

func containsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}
