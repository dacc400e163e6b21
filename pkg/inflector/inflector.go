// Package inflector picks, among the inflection patterns a word may belong
// to, the reading that best fits a set of grammatical constraints and returns
// the word reinflected accordingly.
package inflector

import (
	"cmp"
	"errors"
	"fmt"
	"math/bits"
	"sort"

	"github.com/bastiangx/wordforms/pkg/dictionary"
	"github.com/bastiangx/wordforms/pkg/inflection"
	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Options tune the resolver.
type Options struct {
	// EnableDictionaryFallback tries every ranked candidate instead of only
	// the best one, and lets a word without inflections stand for itself.
	EnableDictionaryFallback bool
	// IgnoreGrammemeSets drops candidates carrying all bits of any set.
	IgnoreGrammemeSets []uint64
	// PriorityTables break ties between candidates: in each table the entry
	// listed first that a candidate's grammemes contain ranks it.
	PriorityTables [][]uint64
}

// Candidate is one reading of a word: a pattern and, unless the pattern is
// invariant, the inflection the word is taken to be in.
type Candidate struct {
	Grammemes  uint64
	Pattern    *inflection.Pattern
	Inflection *inflection.Inflection

	optional int
	disamb   uint64
	order    int
}

// Inflector resolves words of one dictionary. It is safe for concurrent use.
type Inflector struct {
	dict     *dictionary.Store
	patterns *inflection.Store
	opts     Options
	tag      language.Tag
}

// New returns a resolver over dict and its pattern store.
func New(dict *dictionary.Store, patterns *inflection.Store, opts Options) *Inflector {
	if dict == nil || patterns == nil {
		panic("inflector: New called with a nil store")
	}
	if patterns.Dictionary() != dict {
		panic("inflector: pattern store belongs to another dictionary")
	}
	return &Inflector{dict: dict, patterns: patterns, opts: opts, tag: dict.Tag()}
}

// Dictionary returns the dictionary the resolver reads.
func (in *Inflector) Dictionary() *dictionary.Store {
	return in.dict
}

// Inflect returns word in a form whose grammemes contain required, honouring
// as many optional masks as possible, earlier ones first. wordGrammemes
// describes the given form; zero means "whatever the dictionary says".
// Disambiguation masks rank competing readings, earlier masks dominating.
func (in *Inflector) Inflect(word string, wordGrammemes, required uint64, optional, disambiguation []uint64) (string, bool) {
	if required == 0 && len(optional) == 0 {
		return word, true
	}
	lower := cases.Lower(in.tag).String(word)
	upper := cases.Upper(in.tag).String(word)
	allCaps := word == upper && word != lower

	if !allCaps {
		if s, ok := in.inflect(word, wordGrammemes, required, optional, disambiguation); ok {
			return s, true
		}
	}
	if lower == word {
		return "", false
	}
	title := cases.Title(in.tag, cases.NoLower).String(lower)
	if !allCaps && word != title {
		return "", false
	}
	s, ok := in.inflect(lower, wordGrammemes, required, optional, disambiguation)
	if !ok {
		return "", false
	}
	if allCaps {
		return cases.Upper(in.tag).String(s), true
	}
	return cases.Title(in.tag, cases.NoLower).String(s), true
}

// InflectNames is Inflect with grammemes given by name. Each optional and
// disambiguation entry names one grammeme.
func (in *Inflector) InflectNames(word string, required, optional, disambiguation []string) (string, bool, error) {
	req, err := in.dict.BinaryProperties(required)
	if err != nil {
		return "", false, err
	}
	opt, err := in.masks(optional)
	if err != nil {
		return "", false, err
	}
	dis, err := in.masks(disambiguation)
	if err != nil {
		return "", false, err
	}
	s, ok := in.Inflect(word, 0, req, opt, dis)
	return s, ok, nil
}

func (in *Inflector) masks(names []string) ([]uint64, error) {
	var errs []error
	out := make([]uint64, 0, len(names))
	for _, name := range names {
		m, err := in.dict.BinaryProperties([]string{name})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, m)
	}
	return out, errors.Join(errs...)
}

func (in *Inflector) inflect(word string, wordGrammemes, required uint64, optional, disambiguation []uint64) (string, bool) {
	ranked := in.Candidates(word, wordGrammemes, required, optional, disambiguation)
	for i, c := range ranked {
		if i > 0 && !in.opts.EnableDictionaryFallback {
			break
		}
		if c.Inflection == nil {
			if in.opts.EnableDictionaryFallback {
				return word, true
			}
			continue
		}
		pos := c.Pattern.PartOfSpeech()
		to := required &^ pos
		opts := make([]uint64, len(optional))
		for j, o := range optional {
			opts[j] = o &^ pos
		}
		if s := c.Pattern.ReinflectWithOptional(c.Inflection.Grammemes, to, word, opts); s != "" {
			log.Debugf("Inflected %q via %s to %q", word, c.Pattern.Identifier(), s)
			return s, true
		}
	}
	return "", false
}

// Candidates returns the readings of word able to reach required, best first.
// The order is total and depends only on the inputs and the data files.
func (in *Inflector) Candidates(word string, wordGrammemes, required uint64, optional, disambiguation []uint64) []Candidate {
	wordType, ok := in.dict.CombinedBinaryType(word)
	if !ok {
		return nil
	}
	from := wordGrammemes
	if from == 0 {
		from = wordType
	}

	var out []Candidate
	add := func(g uint64, p *inflection.Pattern, infl *inflection.Inflection) {
		if in.ignored(g) {
			return
		}
		c := Candidate{Grammemes: g, Pattern: p, Inflection: infl, order: len(out)}
		if infl != nil {
			if !reachable(p, required) {
				return
			}
			for _, opt := range optional {
				if reachable(p, required|opt) {
					c.optional++
				}
			}
		}
		for _, d := range disambiguation {
			c.disamb <<= 1
			if g&d != 0 {
				c.disamb |= 1
			}
		}
		out = append(out, c)
	}
	for _, p := range in.patterns.PatternsForWord(word) {
		if p.NumInflections() == 0 {
			add(p.PartOfSpeech(), p, nil)
			continue
		}
		for _, infl := range p.InflectionsForSurfaceForm(word, from) {
			add(infl.Grammemes|p.PartOfSpeech(), p, &infl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return in.compare(out[i], out[j]) < 0
	})
	return out
}

// Lemma returns the lemma of word under its best reading.
func (in *Inflector) Lemma(word string, lemmaAttributes []uint64) (string, bool) {
	for _, c := range in.Candidates(word, 0, 0, nil, nil) {
		if c.Inflection == nil {
			return word, true
		}
		if lemma := c.Pattern.Lemma(word, c.Inflection.Grammemes, lemmaAttributes); lemma != "" {
			return lemma, true
		}
	}
	return "", false
}

func (in *Inflector) ignored(g uint64) bool {
	for _, set := range in.opts.IgnoreGrammemeSets {
		if set != 0 && g&set == set {
			return true
		}
	}
	return false
}

// reachable reports whether the pattern has a form carrying every bit of
// mask, counting the pattern's part of speech as part of each form.
func reachable(p *inflection.Pattern, mask uint64) bool {
	pos := p.PartOfSpeech()
	if mask&pos == mask {
		return true
	}
	return len(p.Constrain(mask&^pos)) > 0
}

func (in *Inflector) compare(a, b Candidate) int {
	if c := cmp.Compare(b.optional, a.optional); c != 0 {
		return c
	}
	if c := cmp.Compare(b.disamb, a.disamb); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Pattern.FrequencyRank(), b.Pattern.FrequencyRank()); c != 0 {
		return c
	}
	for _, table := range in.opts.PriorityTables {
		if c := cmp.Compare(priority(table, a.Grammemes), priority(table, b.Grammemes)); c != 0 {
			return c
		}
	}
	if (a.Inflection == nil) != (b.Inflection == nil) {
		if a.Inflection != nil {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(bits.OnesCount64(a.Grammemes), bits.OnesCount64(b.Grammemes)); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Pattern.NumInflections(), a.Pattern.NumInflections()); c != 0 {
		return c
	}
	return cmp.Compare(a.order, b.order)
}

func priority(table []uint64, g uint64) int {
	for i, p := range table {
		if g&p == p {
			return i
		}
	}
	return len(table)
}

// String renders a candidate with grammeme names for debugging output.
func (c Candidate) String() string {
	suffix := "-"
	if c.Inflection != nil {
		suffix = fmt.Sprintf("%q", c.Inflection.Suffix)
	}
	return fmt.Sprintf("%s %s %#x", c.Pattern.Identifier(), suffix, c.Grammemes)
}
