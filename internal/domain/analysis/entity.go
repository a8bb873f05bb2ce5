package analysis

// ID tipe untuk Analysis
type AnalysisID string

// Sensitivity level enum
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
	LevelUnknown  Level = "UNKNOWN"
)

// Department rating enum
type Rating string

const (
	RatingNone     Rating = "NONE"
	RatingLow      Rating = "LOW"
	RatingMedium   Rating = "MEDIUM"
	RatingHigh     Rating = "HIGH"
	RatingCritical Rating = "CRITICAL"
)

// Status enum
type Status string

const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// DimensionScores value object: one 0-100 score per sensitivity dimension.
// Absent fields stay at 0.
type DimensionScores struct {
	PII                  int `json:"pii"`
	Financial            int `json:"financial"`
	StrategicBusiness    int `json:"strategic_business"`
	IntellectualProperty int `json:"intellectual_property"`
	LegalCompliance      int `json:"legal_compliance"`
	OperationalSecurity  int `json:"operational_security"`
	HREmployee           int `json:"hr_employee"`
}

// DepartmentRelevance value object: one rating per department.
// Absent fields stay at NONE.
type DepartmentRelevance struct {
	HR         Rating `json:"HR"`
	Finance    Rating `json:"Finance"`
	Legal      Rating `json:"Legal"`
	ITSecurity Rating `json:"IT_Security"`
	Executive  Rating `json:"Executive"`
	RnD        Rating `json:"RnD"`
	Sales      Rating `json:"Sales"`
	Operations Rating `json:"Operations"`
	Marketing  Rating `json:"Marketing"`
}

// NewDepartmentRelevance returns the all-NONE default.
func NewDepartmentRelevance() DepartmentRelevance {
	return DepartmentRelevance{
		HR:         RatingNone,
		Finance:    RatingNone,
		Legal:      RatingNone,
		ITSecurity: RatingNone,
		Executive:  RatingNone,
		RnD:        RatingNone,
		Sales:      RatingNone,
		Operations: RatingNone,
		Marketing:  RatingNone,
	}
}

// Finding is one detected category of sensitive content, with redacted samples.
type Finding struct {
	Category    string   `json:"category"`
	Severity    Level    `json:"severity"`
	Description string   `json:"description"`
	Count       int      `json:"count"`
	Examples    []string `json:"examples"`
}

// Aggregate Root: AnalysisResult
type AnalysisResult struct {
	ID                  AnalysisID          `json:"id"`
	Timestamp           string              `json:"timestamp"`
	Filename            string              `json:"filename"`
	Filetype            string              `json:"filetype"`
	Filesize            string              `json:"filesize"`
	OverallScore        int                 `json:"overall_sensitivity_score"`
	Level               Level               `json:"sensitivity_level"`
	Confidence          float64             `json:"confidence"`
	DimensionScores     DimensionScores     `json:"dimension_scores"`
	DepartmentRelevance DepartmentRelevance `json:"department_relevance"`
	Findings            []Finding           `json:"findings"`
	RegulatoryConcerns  []string            `json:"regulatory_concerns"`
	RecommendedActions  []string            `json:"recommended_actions"`
	Reasoning           string              `json:"reasoning"`
	Status              Status              `json:"status"`
	Error               string              `json:"error,omitempty"`
}
