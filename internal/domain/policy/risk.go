package policy

import (
	"strings"

	"github.com/okian/triage/internal/domain/model"
)

// Keyword lists for semantic risk detection. An action term paired
// with a context term, or an urgency term paired with an action term,
// marks an item high risk.
var (
	riskActions = []string{
		"delete", "deletion", "remove", "unlink", "purge", "erase", "destroy",
		"cancel", "void", "nullify", "terminate",
		"merge", "merging", "merged", "split", "splitting",
		"combine", "duplicate", "dedupe", "dedup",
	}
	riskContext = []string{
		"patient", "scan", "accession", "study", "exam", "report",
		"imaging", "dicom", "mri", "ct", "ultrasound", "xray", "x-ray",
		"record", "data", "file", "prior", "comparison",
	}
	urgencyWords = []string{
		"stat", "asap", "urgent", "emergency", "critical", "immediate",
		"rush", "priority", "life-threatening",
	}
)

// DetectRisk scores an item's subject and body with the
// action/context/urgency keyword heuristic. The returned reason is
// empty for normal risk.
func DetectRisk(subject, body string, highImportance bool) (model.RiskLevel, string) {
	text := strings.ToLower(subject + " " + body)

	action := firstContained(text, riskActions)
	context := firstContained(text, riskContext)
	urgency := firstContained(text, urgencyWords)

	switch {
	case highImportance:
		return model.RiskHigh, "high importance flag"
	case action != "" && context != "":
		return model.RiskHigh, "action+context: " + action + "+" + context
	case urgency != "" && action != "":
		return model.RiskHigh, "urgency+action: " + urgency + "+" + action
	case urgency != "":
		return model.RiskReview, "urgency: " + urgency
	case action != "":
		return model.RiskReview, "action: " + action
	}
	return model.RiskNormal, ""
}

func firstContained(text string, terms []string) string {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return t
		}
	}
	return ""
}
