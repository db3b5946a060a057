package ingest

import (
	"strings"
	"testing"
)

// FuzzParseCSV checks record counts and the grouping partition on arbitrary input.
func FuzzParseCSV(f *testing.F) {
	f.Add(sampleCSV)
	f.Add("")
	f.Add("identifier,level\n")
	f.Add("a,b\n1\n2,3,4\n\n")
	f.Add("identifier,level\nx,file\ny,project\nz,other")

	f.Fuzz(func(t *testing.T, text string) {
		records := ParseCSV(text)

		lines := strings.Split(strings.TrimSpace(text), "\n")
		if len(records) != len(lines)-1 {
			t.Fatalf("got %d records for %d lines", len(records), len(lines))
		}

		headers := strings.Split(lines[0], ",")
		unique := map[string]struct{}{}
		for _, h := range headers {
			unique[h] = struct{}{}
		}
		for _, r := range records {
			if len(r) != len(unique) {
				t.Fatalf("record has %d keys, header has %d distinct columns", len(r), len(unique))
			}
		}

		ds := GroupByLevel(records)
		if len(ds.File)+len(ds.Project)+ds.Dropped != len(records) {
			t.Fatalf("grouping is not a partition")
		}
	})
}
