package adapter

import (
	"testing"
)

func TestParseProfileReport(t *testing.T) {
	out := `
12.5% euclidean_distance /tmp/script.py:3 100000
7.1% count_pairs /tmp/script.py:12 50000
40.0% exec <built-in>:0 1
3.3% _find_and_load <frozen importlib._bootstrap>:1360 12
1.0% <listcomp> /tmp/script.py:20 10
garbage line
0.5%% not_a_pct /tmp/script.py:1 1
0.2% bad_calls /tmp/script.py:5 many
`
	records := ParseProfileReport(out)

	if len(records) != 2 {
		t.Fatalf("ParseProfileReport() returned %d records, want 2: %+v", len(records), records)
	}
	first := records[0]
	if first.Name != "euclidean_distance" {
		t.Errorf("records[0].Name = %q, want %q", first.Name, "euclidean_distance")
	}
	if first.Percent != 12.5 {
		t.Errorf("records[0].Percent = %v, want 12.5", first.Percent)
	}
	if first.StartLine != 3 {
		t.Errorf("records[0].StartLine = %d, want 3", first.StartLine)
	}
	if first.Calls != 100000 {
		t.Errorf("records[0].Calls = %d, want 100000", first.Calls)
	}
	if records[1].Name != "count_pairs" {
		t.Errorf("records[1].Name = %q, want %q", records[1].Name, "count_pairs")
	}
}

func TestParseProfileReportEmpty(t *testing.T) {
	if records := ParseProfileReport(""); len(records) != 0 {
		t.Fatalf("ParseProfileReport(\"\") returned %d records, want 0", len(records))
	}
}

func TestParseProfileReportKeepsOrder(t *testing.T) {
	out := "50.0% a s.py:1 1\n30.0% b s.py:2 1\n20.0% c s.py:3 1\n"
	records := ParseProfileReport(out)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, want := range []string{"a", "b", "c"} {
		if records[i].Name != want {
			t.Errorf("records[%d].Name = %q, want %q", i, records[i].Name, want)
		}
	}
}
