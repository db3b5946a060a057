package schema

import (
	"strings"
	"unicode"
)

// FileMetrics returns the first file-level record whose identifier equals id.
// A nil dataset has no records.
func (d *Dataset) FileMetrics(id string) (MetricRecord, bool) {
	if d == nil {
		return MetricRecord{}, false
	}
	for _, r := range d.File {
		if r.Identifier == id {
			return r, true
		}
	}
	return MetricRecord{}, false
}

// ProjectMetrics returns the first project-level record.
func (d *Dataset) ProjectMetrics() (MetricRecord, bool) {
	if d == nil || len(d.Project) == 0 {
		return MetricRecord{}, false
	}
	return d.Project[0], true
}

// IsProject reports whether id names a project-level record.
func (d *Dataset) IsProject(id string) bool {
	if d == nil {
		return false
	}
	for _, r := range d.Project {
		if r.Identifier == id {
			return true
		}
	}
	return false
}

// DefaultSelection is the identifier selected after a load: the first file,
// else the first project, else nothing.
func (d *Dataset) DefaultSelection() string {
	if d == nil {
		return ""
	}
	if len(d.File) > 0 {
		return d.File[0].Identifier
	}
	if len(d.Project) > 0 {
		return d.Project[0].Identifier
	}
	return ""
}

// Empty reports whether the dataset holds no file or project records.
func (d *Dataset) Empty() bool {
	return d == nil || (len(d.File) == 0 && len(d.Project) == 0)
}

// FormatFileName returns the last slash-separated segment of a path.
func FormatFileName(path string) string {
	if path == "" {
		return ""
	}
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// FormatMetricName turns "comment_density" into "Comment Density".
func FormatMetricName(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// NormalizePath rewrites backslash separators to forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}
