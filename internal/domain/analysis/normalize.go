package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RequestMeta carries the identity and document metadata assigned by the
// caller at request time. They are never taken from model output.
type RequestMeta struct {
	ID        AnalysisID
	Timestamp string
	Filename  string
	Filetype  string
	Filesize  string
}

// Normalize turns raw model output into a validated AnalysisResult.
// It never fails: unparseable output yields a status=error result with all
// scoring fields at safe defaults. Absent or malformed fields resolve to
// their defaults instead of rejecting the whole response.
func Normalize(raw string, meta RequestMeta) *AnalysisResult {
	text := stripFences(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return errorResult(meta, fmt.Sprintf("failed to parse model response: %v", err))
	}

	res := &AnalysisResult{
		ID:                  meta.ID,
		Timestamp:           meta.Timestamp,
		Filename:            meta.Filename,
		Filetype:            meta.Filetype,
		Filesize:            meta.Filesize,
		Level:               LevelLow,
		Confidence:          0.5,
		DepartmentRelevance: NewDepartmentRelevance(),
		Findings:            []Finding{},
		RegulatoryConcerns:  []string{},
		RecommendedActions:  []string{},
		Status:              StatusCompleted,
	}

	decode(fields, "overall_sensitivity_score", &res.OverallScore)
	decode(fields, "sensitivity_level", &res.Level)
	decode(fields, "confidence", &res.Confidence)
	decode(fields, "dimension_scores", &res.DimensionScores)
	decode(fields, "department_relevance", &res.DepartmentRelevance)
	decode(fields, "regulatory_concerns", &res.RegulatoryConcerns)
	decode(fields, "recommended_actions", &res.RecommendedActions)
	decode(fields, "reasoning", &res.Reasoning)

	var findings []Finding
	decode(fields, "findings", &findings)
	for i := range findings {
		if findings[i].Count < 1 {
			findings[i].Count = 1
		}
		if findings[i].Examples == nil {
			findings[i].Examples = []string{}
		}
	}
	if findings != nil {
		res.Findings = findings
	}
	if res.Level == "" {
		res.Level = LevelLow
	}

	return res
}

// decode fills dst from the named field, leaving dst untouched when the
// field is absent or its value does not fit.
func decode(fields map[string]json.RawMessage, name string, dst any) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// stripFences drops markdown code-fence wrapping some models insist on
// adding despite instructions.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "```" {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	return strings.Join(lines[1:], "\n")
}

func errorResult(meta RequestMeta, msg string) *AnalysisResult {
	return &AnalysisResult{
		ID:                  meta.ID,
		Timestamp:           meta.Timestamp,
		Filename:            meta.Filename,
		Filetype:            meta.Filetype,
		Filesize:            meta.Filesize,
		Level:               LevelUnknown,
		DepartmentRelevance: NewDepartmentRelevance(),
		Findings:            []Finding{},
		RegulatoryConcerns:  []string{},
		RecommendedActions:  []string{},
		Status:              StatusError,
		Error:               msg,
	}
}
