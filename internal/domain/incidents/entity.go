package incidents

import (
	"errors"

	"github.com/bryanwahyu/docsense/internal/domain/analysis"
)

// MaxRetained caps the ledger; appends past the cap evict the oldest entries.
const MaxRetained = 1000

// ErrNotFound indicates the requested incident id is not in the ledger.
var ErrNotFound = errors.New("incident not found")

// Incident is the compact, immutable projection of one analysis outcome
// retained for auditing and reporting.
type Incident struct {
	ID                  string   `json:"id"`
	Timestamp           string   `json:"timestamp"`
	Filename            string   `json:"filename"`
	Filetype            string   `json:"filetype"`
	Filesize            string   `json:"filesize"`
	Level               string   `json:"sensitivity_level"`
	OverallScore        int      `json:"overall_score"`
	TopCategories       []string `json:"top_categories"`
	DepartmentsAffected []string `json:"departments_affected"`
	Status              string   `json:"status"`
	Hash                string   `json:"hash"`
}

// Filter narrows List results. Zero values mean no constraint.
type Filter struct {
	Limit      int
	Offset     int
	Severity   string
	Department string
}

// Statistics is the dashboard aggregate over the full ledger.
type Statistics struct {
	TotalScans     int            `json:"total_scans"`
	BySeverity     map[string]int `json:"by_severity"`
	ByDepartment   map[string]int `json:"by_department"`
	ByCategory     map[string]int `json:"by_category"`
	AvgScore       float64        `json:"avg_score"`
	RecentCritical []*Incident    `json:"recent_critical"`
}

// Derive projects a full analysis result into an Incident. Pure and total:
// deriving twice from the same result yields identical incidents.
func Derive(res *analysis.AnalysisResult, hash string) *Incident {
	return &Incident{
		ID:                  string(res.ID),
		Timestamp:           res.Timestamp,
		Filename:            res.Filename,
		Filetype:            res.Filetype,
		Filesize:            res.Filesize,
		Level:               string(res.Level),
		OverallScore:        res.OverallScore,
		TopCategories:       topCategories(res.DimensionScores),
		DepartmentsAffected: departmentsAffected(res.DepartmentRelevance),
		Status:              string(res.Status),
		Hash:                hash,
	}
}

// topCategories lists dimensions scoring strictly above 50, in schema
// declaration order.
func topCategories(d analysis.DimensionScores) []string {
	out := []string{}
	for _, c := range []struct {
		name  string
		score int
	}{
		{"pii", d.PII},
		{"financial", d.Financial},
		{"strategic_business", d.StrategicBusiness},
		{"intellectual_property", d.IntellectualProperty},
		{"legal_compliance", d.LegalCompliance},
		{"operational_security", d.OperationalSecurity},
		{"hr_employee", d.HREmployee},
	} {
		if c.score > 50 {
			out = append(out, c.name)
		}
	}
	return out
}

// departmentsAffected lists departments rated HIGH or CRITICAL, in schema
// declaration order.
func departmentsAffected(d analysis.DepartmentRelevance) []string {
	out := []string{}
	for _, c := range []struct {
		name   string
		rating analysis.Rating
	}{
		{"HR", d.HR},
		{"Finance", d.Finance},
		{"Legal", d.Legal},
		{"IT_Security", d.ITSecurity},
		{"Executive", d.Executive},
		{"RnD", d.RnD},
		{"Sales", d.Sales},
		{"Operations", d.Operations},
		{"Marketing", d.Marketing},
	} {
		if c.rating == analysis.RatingHigh || c.rating == analysis.RatingCritical {
			out = append(out, c.name)
		}
	}
	return out
}
