package rag

import (
	"strings"
)

// Similarity tiers for the human-readable match explanation.
const (
	highSimilarityTier = 0.8
	goodSimilarityTier = 0.5
)

// Rating tiers.
const (
	topRatingTier  = 4.5
	goodRatingTier = 4.0
)

const reasonDelimiter = "、"

// fallbackReason guarantees the explanation is never empty.
const fallbackReason = "符合搜索条件"

// buildMatchReason concatenates the applicable explanation clauses for a
// merged candidate: similarity tier, rating tier, explicit category
// match, tag overlap with the raw query, and the featured flag.
func buildMatchReason(c *candidate, query string, filters SearchFilters) string {
	clauses := []string{}

	if c.inVector {
		switch {
		case c.rawSimilarity >= highSimilarityTier:
			clauses = append(clauses, "与描述高度匹配")
		case c.rawSimilarity >= goodSimilarityTier:
			clauses = append(clauses, "语义相关")
		}
	}

	avg := c.resource.Rating.Average()
	switch {
	case avg >= topRatingTier:
		clauses = append(clauses, "社区高分推荐")
	case avg >= goodRatingTier:
		clauses = append(clauses, "评分优秀")
	}

	for _, category := range filters.Categories {
		if c.resource.CategoryID == category {
			clauses = append(clauses, "类别精准匹配")
			break
		}
	}

	if tag := overlappingTag(c.resource.Tags, query); tag != "" {
		clauses = append(clauses, "标签契合："+tag)
	}

	if c.resource.IsFeatured {
		clauses = append(clauses, "编辑精选")
	}

	if len(clauses) == 0 {
		return fallbackReason
	}
	return strings.Join(clauses, reasonDelimiter)
}

// overlappingTag returns the first resource tag that appears in the raw
// query, or "".
func overlappingTag(tags []string, query string) string {
	lower := strings.ToLower(query)
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(tag)) {
			return tag
		}
	}
	return ""
}
