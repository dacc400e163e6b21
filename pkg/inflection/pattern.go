package inflection

import (
	"math"
	"math/bits"
	"sort"
	"strings"
)

// Pattern is one inflection pattern: the set of suffixes a family of words
// takes, each tagged with the grammemes it expresses.
type Pattern struct {
	store          *Store
	id             uint32
	lemmaStart     int
	lemmaSuffixes  int
	inflStart      int
	numInflections int
	pos            uint64
	freqIdx        int
}

// Inflection is a single suffix of a pattern together with its grammemes.
type Inflection struct {
	Grammemes uint64
	Suffix    string
	// Index is the position of the inflection in its pattern.
	Index int
}

// ID returns the pattern id.
func (p *Pattern) ID() uint32 {
	return p.id
}

// Identifier returns the pattern name words refer to it by.
func (p *Pattern) Identifier() string {
	return p.store.identifiers.Get(int(p.id))
}

// NumInflections returns the number of inflections.
func (p *Pattern) NumInflections() int {
	return p.numInflections
}

// PartOfSpeech returns the part of speech mask of the pattern.
func (p *Pattern) PartOfSpeech() uint64 {
	return p.pos
}

// Frequency returns the corpus frequency recorded for the pattern.
func (p *Pattern) Frequency() uint64 {
	return p.store.frequencies.Get(p.freqIdx)
}

// FrequencyRank returns the rank of the pattern's frequency, 0 being the most
// frequent. Patterns with equal frequency share a rank.
func (p *Pattern) FrequencyRank() int {
	return p.freqIdx
}

// Inflection returns the i-th inflection.
func (p *Pattern) Inflection(i int) Inflection {
	if i < 0 || i >= p.numInflections {
		return Inflection{Index: -1}
	}
	gi, si := p.store.decodeInflection(p.store.records.Get(p.inflStart + i))
	return Inflection{
		Grammemes: p.store.grammemes.Get(gi),
		Suffix:    p.store.suffixes.Get(si),
		Index:     i,
	}
}

// Inflections returns all inflections in declaration order.
func (p *Pattern) Inflections() []Inflection {
	out := make([]Inflection, p.numInflections)
	for i := range out {
		out[i] = p.Inflection(i)
	}
	return out
}

// LemmaSuffixes returns the suffixes a lemma of this pattern may end in.
func (p *Pattern) LemmaSuffixes() []string {
	out := make([]string, p.lemmaSuffixes)
	for i := range out {
		out[i] = p.store.suffixes.Get(int(p.store.records.Get(p.lemmaStart + i)))
	}
	return out
}

// ContainsSuffix reports whether any inflection ends in exactly suffix.
func (p *Pattern) ContainsSuffix(suffix string) bool {
	for i := 0; i < p.numInflections; i++ {
		if p.Inflection(i).Suffix == suffix {
			return true
		}
	}
	return false
}

// Constrain returns the inflections whose grammemes are a superset of mask.
func (p *Pattern) Constrain(mask uint64) []Inflection {
	var out []Inflection
	for i := 0; i < p.numInflections; i++ {
		infl := p.Inflection(i)
		if infl.Grammemes&mask == mask {
			out = append(out, infl)
		}
	}
	return out
}

// compatible reports whether an inflection with grammemes g can be the form a
// word described by from is in. A zero description matches everything.
func compatible(from, g uint64) bool {
	return from == 0 || from&g == g
}

// InflectionsForSurfaceForm returns the inflections that could have produced
// surface given its known grammemes. Only the longest matching suffix length
// is kept; among those, inflections sharing more grammemes with from come first.
func (p *Pattern) InflectionsForSurfaceForm(surface string, from uint64) []Inflection {
	var out []Inflection
	longest := -1
	for i := 0; i < p.numInflections; i++ {
		infl := p.Inflection(i)
		if !compatible(from, infl.Grammemes) || !strings.HasSuffix(surface, infl.Suffix) {
			continue
		}
		switch n := len(infl.Suffix); {
		case n > longest:
			longest = n
			out = append(out[:0], infl)
		case n == longest:
			out = append(out, infl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return bits.OnesCount64(out[i].Grammemes&from) > bits.OnesCount64(out[j].Grammemes&from)
	})
	return out
}

// Reinflect rewrites surface, currently described by from, into the form
// described by to. It returns "" when no inflection can express to.
func (p *Pattern) Reinflect(from, to uint64, surface string) string {
	return p.ReinflectWithOptional(from, to, surface, nil)
}

type score struct {
	optional int
	shared   int
	extra    int
}

func (s score) greater(o score) bool {
	if s.optional != o.optional {
		return s.optional > o.optional
	}
	if s.shared != o.shared {
		return s.shared > o.shared
	}
	return s.extra > o.extra
}

// ReinflectWithOptional is Reinflect with soft constraints: among the
// inflections satisfying to, one matching the earlier optional masks wins.
// Remaining ties prefer grammemes shared with from, then the fewest extra
// grammemes, then declaration order.
func (p *Pattern) ReinflectWithOptional(from, to uint64, surface string, optional []uint64) string {
	if to == 0 || from&to == to {
		return surface
	}
	longest := 0
	best := score{-1, -1, math.MinInt32}
	bestSuffix, found := "", false
	want := bits.OnesCount64(to)
	for i := 0; i < p.numInflections; i++ {
		infl := p.Inflection(i)
		if compatible(from, infl.Grammemes) && strings.HasSuffix(surface, infl.Suffix) && len(infl.Suffix) > longest {
			longest = len(infl.Suffix)
		}
		if infl.Grammemes&to != to {
			continue
		}
		sc := score{
			shared: bits.OnesCount64(infl.Grammemes & from),
			extra:  want - bits.OnesCount64(infl.Grammemes),
		}
		for _, opt := range optional {
			sc.optional <<= 1
			if infl.Grammemes&opt != 0 {
				sc.optional |= 1
			}
		}
		if sc.greater(best) {
			best = sc
			bestSuffix = infl.Suffix
			found = true
		}
	}
	if !found {
		return ""
	}
	return surface[:len(surface)-longest] + bestSuffix
}

// LemmaInflection picks the inflection that yields the lemma of a word
// described by from. lemmaAttributes lists the grammemes of a lemma form in
// order of importance; an inflection sharing any bit of an attribute matches it.
func (p *Pattern) LemmaInflection(from uint64, lemmaAttributes []uint64) (Inflection, bool) {
	var candidates []Inflection
	best := score{-1, -1, math.MinInt32}
	for i := 0; i < p.numInflections; i++ {
		infl := p.Inflection(i)
		sc := score{
			shared: bits.OnesCount64(infl.Grammemes & from),
			extra:  -bits.OnesCount64(infl.Grammemes),
		}
		for _, attr := range lemmaAttributes {
			sc.optional <<= 1
			if infl.Grammemes&attr != 0 {
				sc.optional |= 1
			}
		}
		switch {
		case sc.greater(best):
			best = sc
			candidates = append(candidates[:0], infl)
		case sc == best:
			candidates = append(candidates, infl)
		}
	}
	if len(candidates) == 0 {
		return Inflection{Index: -1}, false
	}
	lemmas := p.LemmaSuffixes()
	shortest := candidates[0]
	for _, c := range candidates {
		for _, l := range lemmas {
			if c.Suffix == l {
				return c, true
			}
		}
		if len(c.Suffix) < len(shortest.Suffix) {
			shortest = c
		}
	}
	return shortest, true
}

// Lemma returns the lemma of surface, or "" when surface does not fit the pattern.
func (p *Pattern) Lemma(surface string, from uint64, lemmaAttributes []uint64) string {
	forms := p.InflectionsForSurfaceForm(surface, from)
	if len(forms) == 0 {
		return ""
	}
	lemma, ok := p.LemmaInflection(from, lemmaAttributes)
	if !ok {
		return ""
	}
	stem := surface[:len(surface)-len(forms[0].Suffix)]
	return stem + lemma.Suffix
}
