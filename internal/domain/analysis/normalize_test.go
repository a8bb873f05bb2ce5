package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/docsense/internal/domain/analysis"
)

var testMeta = analysis.RequestMeta{
	ID:        "a1b2c3",
	Timestamp: "2026-08-31T10:00:00Z",
	Filename:  "report.txt",
	Filetype:  "txt",
	Filesize:  "120 bytes",
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		validate func(t *testing.T, res *analysis.AnalysisResult)
	}{
		{
			name: "full valid payload",
			raw: `{
				"overall_sensitivity_score": 88,
				"sensitivity_level": "CRITICAL",
				"confidence": 0.93,
				"dimension_scores": {"pii": 95, "financial": 40},
				"department_relevance": {"HR": "CRITICAL", "Finance": "LOW"},
				"findings": [{"category": "pii", "severity": "CRITICAL", "description": "SSNs present", "count": 3, "examples": ["***-**-1234"]}],
				"regulatory_concerns": ["GDPR", "HIPAA"],
				"recommended_actions": ["Restrict distribution"],
				"reasoning": "Contains bulk PII."
			}`,
			validate: func(t *testing.T, res *analysis.AnalysisResult) {
				assert.Equal(t, analysis.StatusCompleted, res.Status)
				assert.Empty(t, res.Error)
				assert.Equal(t, 88, res.OverallScore)
				assert.Equal(t, analysis.LevelCritical, res.Level)
				assert.InDelta(t, 0.93, res.Confidence, 1e-9)
				assert.Equal(t, 95, res.DimensionScores.PII)
				assert.Equal(t, 40, res.DimensionScores.Financial)
				// untouched dimension stays at its default
				assert.Equal(t, 0, res.DimensionScores.HREmployee)
				assert.Equal(t, analysis.RatingCritical, res.DepartmentRelevance.HR)
				assert.Equal(t, analysis.RatingLow, res.DepartmentRelevance.Finance)
				assert.Equal(t, analysis.RatingNone, res.DepartmentRelevance.Legal)
				require.Len(t, res.Findings, 1)
				assert.Equal(t, 3, res.Findings[0].Count)
				assert.Equal(t, []string{"GDPR", "HIPAA"}, res.RegulatoryConcerns)
				assert.Equal(t, "Contains bulk PII.", res.Reasoning)
			},
		},
		{
			name: "fenced json is unwrapped",
			raw:  "```json\n{\"overall_sensitivity_score\": 95, \"sensitivity_level\": \"CRITICAL\"}\n```",
			validate: func(t *testing.T, res *analysis.AnalysisResult) {
				assert.Equal(t, analysis.StatusCompleted, res.Status)
				assert.Equal(t, 95, res.OverallScore)
				assert.Equal(t, analysis.LevelCritical, res.Level)
			},
		},
		{
			name: "fence without closing marker",
			raw:  "```json\n{\"overall_sensitivity_score\": 42}",
			validate: func(t *testing.T, res *analysis.AnalysisResult) {
				assert.Equal(t, analysis.StatusCompleted, res.Status)
				assert.Equal(t, 42, res.OverallScore)
			},
		},
		{
			name: "empty object resolves every default",
			raw:  `{}`,
			validate: func(t *testing.T, res *analysis.AnalysisResult) {
				assert.Equal(t, analysis.StatusCompleted, res.Status)
				assert.Equal(t, 0, res.OverallScore)
				assert.Equal(t, analysis.LevelLow, res.Level)
				assert.InDelta(t, 0.5, res.Confidence, 1e-9)
				assert.Equal(t, analysis.DimensionScores{}, res.DimensionScores)
				assert.Equal(t, analysis.NewDepartmentRelevance(), res.DepartmentRelevance)
				assert.Empty(t, res.Findings)
				assert.NotNil(t, res.Findings)
				assert.Empty(t, res.RegulatoryConcerns)
				assert.Empty(t, res.RecommendedActions)
			},
		},
		{
			name: "unparseable output degrades to error result",
			raw:  "not json",
			validate: func(t *testing.T, res *analysis.AnalysisResult) {
				assert.Equal(t, analysis.StatusError, res.Status)
				assert.NotEmpty(t, res.Error)
				assert.Equal(t, 0, res.OverallScore)
				assert.Equal(t, analysis.LevelUnknown, res.Level)
				assert.Zero(t, res.Confidence)
				assert.Equal(t, analysis.DimensionScores{}, res.DimensionScores)
				assert.Equal(t, analysis.NewDepartmentRelevance(), res.DepartmentRelevance)
				assert.Empty(t, res.Findings)
			},
		},
		{
			name: "out of range scores pass through verbatim",
			raw:  `{"overall_sensitivity_score": 150, "dimension_scores": {"pii": -10}}`,
			validate: func(t *testing.T, res *analysis.AnalysisResult) {
				assert.Equal(t, analysis.StatusCompleted, res.Status)
				assert.Equal(t, 150, res.OverallScore)
				assert.Equal(t, -10, res.DimensionScores.PII)
			},
		},
		{
			name: "malformed field falls back to its default",
			raw:  `{"overall_sensitivity_score": "ninety", "confidence": 0.7}`,
			validate: func(t *testing.T, res *analysis.AnalysisResult) {
				assert.Equal(t, analysis.StatusCompleted, res.Status)
				assert.Equal(t, 0, res.OverallScore)
				assert.InDelta(t, 0.7, res.Confidence, 1e-9)
			},
		},
		{
			name: "finding count below one is lifted to one",
			raw:  `{"findings": [{"category": "pii", "severity": "LOW", "description": "x"}]}`,
			validate: func(t *testing.T, res *analysis.AnalysisResult) {
				require.Len(t, res.Findings, 1)
				assert.Equal(t, 1, res.Findings[0].Count)
				assert.NotNil(t, res.Findings[0].Examples)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := analysis.Normalize(tt.raw, testMeta)
			require.NotNil(t, res)
			// identity always comes from the request, never the model
			assert.Equal(t, testMeta.ID, res.ID)
			assert.Equal(t, testMeta.Timestamp, res.Timestamp)
			assert.Equal(t, testMeta.Filename, res.Filename)
			tt.validate(t, res)
		})
	}
}

func TestNormalizeIgnoresIdentityInPayload(t *testing.T) {
	res := analysis.Normalize(`{"id": "spoofed", "timestamp": "1999-01-01T00:00:00Z"}`, testMeta)
	assert.Equal(t, testMeta.ID, res.ID)
	assert.Equal(t, testMeta.Timestamp, res.Timestamp)
}
