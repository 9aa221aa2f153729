// Package score rates normalized text for location/identity exposure risk.
//
// Two independent scorers feed a composite classification: a lexical rule
// scorer over a fixed table of weighted regex categories, and a similarity
// scorer measuring distance to a reference corpus of known dox phrasing.
package score

import "regexp"

// Rule is one named detector for a category of risk signal.
type Rule struct {
	Name    string
	Weight  float64
	pattern *regexp.Regexp
}

// occurrenceCap bounds how many matches of one category contribute to the
// score; the raw count is still reported.
const occurrenceCap = 3

// DefaultRules returns the built-in detector table. Precise coordinates
// weigh the most, generic contact keywords the least.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "gps_coords",
			Weight:  0.40,
			pattern: regexp.MustCompile(`\b\d{1,3}\.\d{4,},?\s*\d{1,3}\.\d{4,}\b`),
		},
		{
			Name:    "region_address",
			Weight:  0.30,
			pattern: regexp.MustCompile(`(?i)\b(seoul|gangnam|itaewon|hongdae|myeongdong|yongsan|mapo|coree|korea)\b.{0,50}\b(dong|gu|ro|gil|address|adresse|quartier|neighborhood)\b`),
		},
		{
			Name:    "street_address",
			Weight:  0.25,
			pattern: regexp.MustCompile(`(?i)\b\d{1,4}\s+(street|st|avenue|ave|road|rd|rue|chemin|route|boulevard|blvd|apartment|apt|building)\b`),
		},
		{
			Name:    "dox_keywords",
			Weight:  0.20,
			pattern: regexp.MustCompile(`(?i)\b(address|adresse|location|gps|coordinates|dox+|leak|private|residence|visit|visite)\b`),
		},
		{
			Name:    "residence_terms",
			Weight:  0.15,
			pattern: regexp.MustCompile(`(?i)\b(vit|habite|lives?|house|maison|apartment|appartement|building|immeuble|fenetre|window|chez|home|residence)\b`),
		},
		{
			Name:    "precise_distance",
			Weight:  0.10,
			pattern: regexp.MustCompile(`(?i)\b\d+\s+(minutes?|min|km|metres?|meters?)\b`),
		},
		{
			Name:    "stalking_terms",
			Weight:  0.10,
			pattern: regexp.MustCompile(`(?i)\b(stalking?|suivre|follow|spotted?|devant|derriere|outside|entrance|porte|door|waiting|fenetre|window)\b`),
		},
		{
			Name:    "contact_info",
			Weight:  0.10,
			pattern: regexp.MustCompile(`(?i)\b(phone|numero|email|mail|snap|instagram|insta|kakao)\b`),
		},
	}
}

// RuleScorer applies a fixed detector table to normalized text. Stateless
// after construction; safe for concurrent use.
type RuleScorer struct {
	rules []Rule
}

// NewRuleScorer creates a scorer over the given rule table.
func NewRuleScorer(rules []Rule) *RuleScorer {
	return &RuleScorer{rules: rules}
}

// Score counts occurrences per category and returns the weighted sum,
// clamped to [0, 1]. Each category contributes at most occurrenceCap
// matches; the returned counts are the raw, uncapped totals.
func (s *RuleScorer) Score(text string) (float64, map[string]int) {
	counts := make(map[string]int, len(s.rules))

	var total float64
	for _, rule := range s.rules {
		count := len(rule.pattern.FindAllString(text, -1))
		counts[rule.Name] = count
		if count == 0 {
			continue
		}
		if count > occurrenceCap {
			count = occurrenceCap
		}
		total += rule.Weight * float64(count)
	}

	if total > 1.0 {
		total = 1.0
	}
	return total, counts
}
