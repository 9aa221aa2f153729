package score

import "github.com/fanshield/doxwatch/internal/model"

// Composite blend weights: the lexical rules carry more weight than corpus
// similarity.
const (
	similarityWeight = 0.40
	ruleWeight       = 0.60
)

// Classify combines the rule and similarity scores into one composite
// score and a severity label. Severity thresholds are checked in
// descending order, first match wins; a strong signal on either axis is
// enough to escalate.
func Classify(ruleScore, similarityScore float64) (float64, model.Severity) {
	composite := similarityWeight*similarityScore + ruleWeight*ruleScore

	switch {
	case composite >= 0.65 || ruleScore >= 0.50:
		return composite, model.SeverityCritical
	case composite >= 0.45 || ruleScore >= 0.30:
		return composite, model.SeverityHigh
	case composite >= 0.25:
		return composite, model.SeverityMedium
	default:
		return composite, model.SeverityLow
	}
}
