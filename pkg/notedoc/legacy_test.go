package notedoc

import "testing"

func TestNormalizeLegacySizes(t *testing.T) {
	d := NewDocument(
		Run{Text: "a", SizeCode: 10},
		Run{Text: "b", SizeCode: 22},
		Run{Text: "c", Style: Style{FontSize: 20}, SizeCode: 7},
		Run{Text: "d", Style: Style{FontSize: 12}},
	)
	if n := NormalizeLegacySizes(d); n != 3 {
		t.Fatalf("expected 3 rewritten runs, got %d", n)
	}
	expectRuns(t, "normalized", d, []Run{
		{Text: "a", Style: Style{FontSize: 12}},
		{Text: "b", Style: Style{FontSize: 22}},
		{Text: "c", Style: Style{FontSize: 20}},
		{Text: "d", Style: Style{FontSize: 12}},
	})

	before := d.Runs()
	if n := NormalizeLegacySizes(d); n != 0 {
		t.Fatalf("second pass rewrote %d runs", n)
	}
	expectRuns(t, "idempotent", d, before)
}

func TestNormalizeLegacySizesMergesNeighbours(t *testing.T) {
	d := NewDocument(
		Run{Text: "ab", Style: Style{FontSize: 16}},
		Run{Text: "cd", SizeCode: 16},
	)
	NormalizeLegacySizes(d)
	expectRuns(t, "merged", d, []Run{{Text: "abcd", Style: Style{FontSize: 16}}})
}

func TestLegacySizePixels(t *testing.T) {
	for i, code := range LegacySizeCodes {
		px, ok := LegacySizePixels(code)
		if !ok {
			t.Fatalf("code %d missing from table", code)
		}
		want := []int{12, 13, 14, 16, 18, 22}[i]
		if px != want {
			t.Fatalf("code %d maps to %d, want %d", code, px, want)
		}
	}
	if _, ok := LegacySizePixels(11); ok {
		t.Fatalf("code 11 should be unmapped")
	}
}

func TestStepLegacySize(t *testing.T) {
	cases := []struct {
		px, base, delta, want int
	}{
		{14, 16, 1, 16},
		{14, 16, -1, 13},
		{0, 16, 1, 18},
		{0, 16, -2, 13},
		{15, 16, 1, 16},
		{15, 16, -1, 14},
		{22, 16, 1, 22},
		{12, 16, -1, 12},
		{30, 16, -1, 22},
		{13, 16, 3, 18},
		{18, 16, 0, 18},
	}
	for _, c := range cases {
		if got := StepLegacySize(c.px, c.base, c.delta); got != c.want {
			t.Errorf("StepLegacySize(%d, %d, %d) = %d, want %d", c.px, c.base, c.delta, got, c.want)
		}
	}
}
