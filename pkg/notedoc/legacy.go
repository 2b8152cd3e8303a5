package notedoc

import "slices"

// Legacy markup expresses font size as a small code instead of pixels.
var legacySizes = map[int]int{
	10: 12,
	12: 13,
	14: 14,
	16: 16,
	18: 18,
	22: 22,
}

// LegacySizeCodes lists the codes the size ladder steps through, smallest
// first.
var LegacySizeCodes = []int{10, 12, 14, 16, 18, 22}

// LegacySizePixels maps a legacy size code to pixels.
func LegacySizePixels(code int) (int, bool) {
	px, ok := legacySizes[code]
	return px, ok
}

// NormalizeLegacySizes rewrites every run that still carries a legacy size
// marker into an explicit pixel size. Unknown codes drop the marker and keep
// whatever size the run inherited. It returns the number of runs rewritten.
func NormalizeLegacySizes(d *Document) int {
	if d == nil {
		return 0
	}
	changed := 0
	for i := range d.runs {
		r := &d.runs[i]
		if r.SizeCode == 0 {
			continue
		}
		if px, ok := legacySizes[r.SizeCode]; ok {
			r.Style.FontSize = px
		}
		r.SizeCode = 0
		changed++
	}
	if changed > 0 {
		d.Canonicalize()
	}
	return changed
}

// StepLegacySize moves px delta rungs along the legacy size ladder and
// returns the pixel size it lands on. A size between rungs counts the
// nearest rung in the direction of travel as the first step; px <= 0
// starts from base. The ladder ends clamp.
func StepLegacySize(px, base, delta int) int {
	if px <= 0 {
		px = base
	}
	ladder := make([]int, len(LegacySizeCodes))
	for i, code := range LegacySizeCodes {
		ladder[i] = legacySizes[code]
	}
	last := len(ladder) - 1
	switch {
	case delta > 0:
		i := slices.IndexFunc(ladder, func(v int) bool { return v > px })
		if i < 0 {
			return ladder[last]
		}
		return ladder[min(i+delta-1, last)]
	case delta < 0:
		i := -1
		for j, v := range ladder {
			if v < px {
				i = j
			}
		}
		if i < 0 {
			return ladder[0]
		}
		return ladder[max(i+delta+1, 0)]
	}
	return px
}
