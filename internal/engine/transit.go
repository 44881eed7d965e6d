package engine

// ParseMaxMinutes normalizes free-text subway-distance descriptions such as
// "5~10분이내" or "15분이내" into a comparable minute bound. It extracts
// every maximal run of decimal digits and returns the largest value, the
// worst-case reading of a range. Text with no digits ("역세권", "") has no
// bound and reports ok=false.
//
// The function is pure and deterministic, so its result is safe to store as
// a derived column and recompute only when the source text changes.
func ParseMaxMinutes(text string) (minutes int, ok bool) {
	const clamp = 1_000_000_000

	best := 0
	found := false
	cur := 0
	run := false

	flush := func() {
		if !run {
			return
		}
		found = true
		if cur > best {
			best = cur
		}
		cur = 0
		run = false
	}

	// Digits are plain ASCII even inside Korean text, so a byte walk is
	// enough and multi-byte runes simply terminate the current run.
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= '0' && c <= '9' {
			run = true
			if cur < clamp {
				cur = cur*10 + int(c-'0')
			}
			continue
		}
		flush()
	}
	flush()

	if !found {
		return 0, false
	}
	return best, true
}

// MaxMinutesOf is the nil-safe form used when precomputing the derived
// column during dimension ingestion.
func MaxMinutesOf(text *string) *int {
	if text == nil {
		return nil
	}
	m, ok := ParseMaxMinutes(*text)
	if !ok {
		return nil
	}
	return &m
}
