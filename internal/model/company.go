package model

import (
	"time"
)

// ItemStatus represents the current state of a company analysis item.
type ItemStatus string

const (
	StatusPending   ItemStatus = "pending"
	StatusAnalyzing ItemStatus = "analyzing"
	StatusCompleted ItemStatus = "completed"
	StatusError     ItemStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s ItemStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// DigitalNativeThreshold is the score at or above which a company is
// considered digital native. Both scoring strategies use the same cutoff so
// their outputs stay comparable.
const DigitalNativeThreshold = 60.0

// CompanyRecord holds the attributes of one uploaded company. It is created
// at ingestion and immutable afterwards; scoring outputs live on the
// enclosing AnalysisItem.
type CompanyRecord struct {
	ID            string    `json:"id"`
	BatchID       string    `json:"batch_id"`
	Name          string    `json:"name"`
	Domain        string    `json:"domain"`
	Industry      string    `json:"industry,omitempty"`
	FoundedYear   *int      `json:"founded_year,omitempty"`
	EmployeeCount string    `json:"employee_count,omitempty"`
	Location      string    `json:"location,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ScoreResult holds the two dimension scores and their explanations.
type ScoreResult struct {
	DigitalNativeScore     float64 `json:"digital_native_score"`
	DigitalNativeReasoning string  `json:"digital_native_reasoning"`
	IncidentFitScore       float64 `json:"incident_fit_score"`
	IncidentFitReasoning   string  `json:"incident_fit_reasoning"`
	IsDigitalNative        bool    `json:"is_digital_native"`
}

// ClampScore bounds a score to [0, 100].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// Normalize clamps both scores and rederives IsDigitalNative from the
// clamped digital-native score.
func (r *ScoreResult) Normalize() {
	r.DigitalNativeScore = ClampScore(r.DigitalNativeScore)
	r.IncidentFitScore = ClampScore(r.IncidentFitScore)
	r.IsDigitalNative = r.DigitalNativeScore >= DigitalNativeThreshold
}

// AnalysisItem is one company's analysis unit within a batch: the record plus
// its lifecycle status and, once completed, the score result.
type AnalysisItem struct {
	CompanyRecord
	Status     ItemStatus   `json:"status"`
	Result     *ScoreResult `json:"result,omitempty"`
	AnalyzedAt *time.Time   `json:"analyzed_at,omitempty"`
}

// Progress is a point-in-time snapshot of a batch's completion state.
// Completed counts finished items (completed or error); Failed counts only
// errors.
type Progress struct {
	BatchID    string  `json:"batch_id"`
	Total      int     `json:"total_companies"`
	Completed  int     `json:"completed"`
	Failed     int     `json:"failed"`
	Percentage float64 `json:"progress_percentage"`
	Status     string  `json:"status"`
}

// Batch status values reported by Progress.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
)

// NewProgress derives a Progress snapshot from raw counts.
func NewProgress(batchID string, total, completed, failed int) Progress {
	p := Progress{
		BatchID:   batchID,
		Total:     total,
		Completed: completed,
		Failed:    failed,
		Status:    BatchProcessing,
	}
	if total > 0 {
		p.Percentage = float64(completed) / float64(total) * 100
	}
	if completed == total {
		p.Status = BatchCompleted
	}
	return p
}
