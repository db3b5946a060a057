// Package algo has the pure ranking and summary math over metric records.
package algo

import (
	"fmt"
	"slices"
	"sort"

	"github.com/documetrics/docudash/schema"
)

// RankFiles sorts a copy of files by overall score in descending order and
// returns the top 'limit' files. Ties keep their CSV order. A limit of 0
// returns everything. The flag reports whether records were cut off.
func RankFiles(files []schema.MetricRecord, limit int) ([]schema.MetricRecord, bool) {
	ranked := slices.Clone(files)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverallScore > ranked[j].OverallScore
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit], true
	}
	return ranked, false
}

// BestAndWorst picks the highest and lowest quality metric of a record.
// The best starts at 0 and the worst at 1 with an empty name, and only a
// strictly better value replaces them, so a record whose metrics are all
// 0 has no best and one whose metrics are all 1 has no worst. Absent
// metrics are skipped.
func BestAndWorst(r schema.MetricRecord) (best, worst schema.MetricExtreme) {
	best = schema.MetricExtreme{Value: 0}
	worst = schema.MetricExtreme{Value: 1}
	for _, key := range schema.QualityMetricKeys {
		v, ok := r.Metric(key)
		if !ok {
			continue
		}
		if v > best.Value {
			best = schema.MetricExtreme{Name: key, Value: v}
		}
		if v < worst.Value {
			worst = schema.MetricExtreme{Name: key, Value: v}
		}
	}
	return best, worst
}

// AveragesByDocType groups files by doc type in first-seen order and
// averages every metric over the files that carry it.
func AveragesByDocType(files []schema.MetricRecord) []schema.DocTypeAverages {
	type acc struct {
		files  int
		sums   map[string]float64
		counts map[string]int
	}
	var order []string
	groups := make(map[string]*acc)
	for _, f := range files {
		g, ok := groups[f.DocType]
		if !ok {
			g = &acc{sums: make(map[string]float64), counts: make(map[string]int)}
			groups[f.DocType] = g
			order = append(order, f.DocType)
		}
		g.files++
		for _, key := range schema.AllMetricKeys {
			if v, ok := f.Metric(key); ok {
				g.sums[key] += v
				g.counts[key]++
			}
		}
	}

	out := make([]schema.DocTypeAverages, 0, len(order))
	for _, docType := range order {
		g := groups[docType]
		avg := make(map[string]float64, len(g.sums))
		for key, sum := range g.sums {
			avg[key] = sum / float64(g.counts[key])
		}
		out = append(out, schema.DocTypeAverages{DocType: docType, Files: g.files, Averages: avg})
	}
	return out
}

// BuildSummary assembles the project digest from a dataset.
func BuildSummary(d *schema.Dataset, limit int) schema.Summary {
	if d == nil {
		return schema.Summary{DocTypes: []schema.DocTypeAverages{}, TopFiles: []schema.MetricRecord{}}
	}
	s := schema.Summary{Files: len(d.File)}
	if p, ok := d.ProjectMetrics(); ok {
		s.Project = &p
	}
	s.DocTypes = AveragesByDocType(d.File)
	s.TopFiles, s.Truncated = RankFiles(d.File, limit)
	return s
}

// FormatMetricValue renders a 0..1 metric as "0.80", or "80.0%" when
// asPercent is set. A missing value renders as "N/A".
func FormatMetricValue(v float64, ok, asPercent bool) string {
	if !ok {
		return "N/A"
	}
	if asPercent {
		return fmt.Sprintf("%.1f%%", v*100)
	}
	return fmt.Sprintf("%.2f", v)
}
