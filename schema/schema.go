// Package schema has models and constants for all parts of docudash.
package schema

// Record is one parsed CSV row keyed by header name.
// Values are float64 for numeric cells and string otherwise.
type Record map[string]any

// MetricRecord is the typed view of one metrics row.
// Typed fields fall back to zero values when the cell is absent or not numeric;
// use Metric to tell a missing value apart from a real zero.
type MetricRecord struct {
	Identifier     string  `json:"identifier"`
	Level          Level   `json:"level"`
	DocType        string  `json:"doc_type"`
	LineCount      int     `json:"line_count"`
	CommentDensity float64 `json:"comment_density"`
	Completeness   float64 `json:"completeness"`
	Conciseness    float64 `json:"conciseness"`
	Accuracy       float64 `json:"accuracy"`
	OverallScore   float64 `json:"overall_score"`
	Fields         Record  `json:"fields,omitempty"` // every parsed column, including pass-through ones
}

// Dataset is the grouped result of one metrics load. It is never mutated after
// construction; a reload builds a new one.
type Dataset struct {
	File    []MetricRecord `json:"file"`
	Project []MetricRecord `json:"project"`
	Dropped int            `json:"dropped"` // rows whose level was neither file nor project
}

// Metric returns the numeric value stored under key and whether it was present.
func (r MetricRecord) Metric(key string) (float64, bool) {
	v, ok := r.Fields[key].(float64)
	return v, ok
}
