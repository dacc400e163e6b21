package decompound

import (
	"math"
	"sort"
)

// cut is a boundary in reading order. fuge marks a boundary that opens a
// linking element.
type cut struct {
	pos  int
	fuge bool
}

func (p *parse) bestLeaf() *segment {
	for _, i := range p.leaves {
		p.score(p.arena[i])
	}
	fallback := p.arena[p.leaves[0]]
	sorted := make([]*segment, len(p.leaves))
	for i, l := range p.leaves {
		sorted[i] = p.arena[l]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score > sorted[j].score
	})
	t := p.d.tuning
	best := sorted[0]
	if best.score < t.MinScore && p.arithmeticMeanLength(best) < float64(t.ExpectedSegmentLength) {
		return fallback
	}
	return sorted[p.prune(sorted)]
}

// prune walks down the sorted leaves while a later parse beats the current
// best on depth, mean length or credibility by more than the allowed decay.
func (p *parse) prune(leaves []*segment) int {
	t := p.d.tuning
	bestID := 0
	for changed := true; changed; {
		changed = false
		best := leaves[bestID]
		bestDepth := float64(best.depth)
		bestGeo := p.geometricMeanLength(best)
		for _, next := range leaves[bestID+1:] {
			diffDepth := bestDepth - float64(next.depth)
			nextDepth := float64(next.depth)
			deeperWins := bestDepth > nextDepth && best.score*math.Pow(t.UpperMinScoreRatio, diffDepth) < next.score
			longerWins := next.depth > 1 && bestGeo < p.geometricMeanLength(next) && best.score*t.UpperMinScoreRatio < next.score
			credible := false
			if len(p.compound) >= t.MinCompoundLengthForCredibility {
				credible = (best.credibility < lowerMinCredibility && next.credibility >= lowerMinCredibility) ||
					(best.credibility < upperMinCredibility && next.credibility >= upperMinCredibility &&
						best.score*math.Pow(t.LowerMinScoreRatio, diffDepth) < next.score) ||
					(best.score < t.MinScore && best.credibility < lowerMinCredibility &&
						next.credibility-best.credibility >= minCredibilityDiff)
			}
			if deeperWins || longerWins || credible {
				bestID++
				changed = true
				break
			}
		}
	}
	return bestID
}

// cuts walks the leaf up to the root and returns its boundaries in reading
// order, together with the boundary opening each linking element.
func (p *parse) cuts(leaf *segment) []cut {
	n := len(p.compound)
	var out []cut
	for s := leaf; s.parent >= 0; s = p.arena[s.parent] {
		if s.start == 0 {
			continue
		}
		if s.rootStart != s.start {
			out = append(out, cut{pos: n - s.rootStart, fuge: true})
		}
		out = append(out, cut{pos: n - s.start})
	}
	// Keep the result strictly increasing and inside the word.
	j := 0
	for _, c := range out {
		if c.pos <= 0 || c.pos >= n || (j > 0 && c.pos <= out[j-1].pos) {
			continue
		}
		out[j] = c
		j++
	}
	return out[:j]
}
