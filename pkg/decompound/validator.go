package decompound

// validator decides which candidate splits are worth exploring.
type validator struct {
	fuger              *fuger
	minFrequency       float64
	minFrequenciesDiff float64
	minCandidateLength int
}

func newValidator(t Tuning, f *fuger) *validator {
	return &validator{
		fuger:              f,
		minFrequency:       t.MinFrequency,
		minFrequenciesDiff: t.MinFrequenciesDiff,
		minCandidateLength: t.MinCandidateLength,
	}
}

// validateFirst accepts the part nearest the end of the word when it is
// frequent and no neighbouring cut one rune longer or shorter is clearly
// more frequent. A part flagged noHead cannot end the word.
func (v *validator) validateFirst(first, prev, next *segment, isTail bool) bool {
	if isTail && first.has(FlagNoHead) {
		return false
	}
	if first.freq < v.minFrequency {
		return false
	}
	for _, other := range []*segment{prev, next} {
		if other != nil && other.freq >= v.minFrequency && other.freq > first.freq*v.minFrequenciesDiff {
			return false
		}
	}
	return true
}

// validateSecond detaches a linking element from the remainder, then accepts
// it when it is a known standalone word or long enough to be split further.
func (v *validator) validateSecond(p *parse, second *segment) bool {
	v.fuger.detach(p, second)
	if second.freq >= v.minFrequency && !second.has(FlagNoAtomic) {
		return true
	}
	return second.length() >= 2*v.minCandidateLength
}
