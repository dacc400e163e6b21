package inflection

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/wordforms/pkg/dictionary"
)

func testDictionary(t testing.TB, extra ...string) *dictionary.Store {
	t.Helper()
	b := dictionary.NewBuilder("en")
	b.AddType("noun", "verb", "singular", "plural", "genitive", "present", "past", "participle", "third")
	b.AddWord("cat", []string{"noun", "singular"}, map[string][]string{"inflection": {"noun-s"}})
	b.AddWord("walk", []string{"verb", "present"}, map[string][]string{"inflection": {"verb-regular"}})
	b.AddWord("run", []string{"verb", "noun"}, map[string][]string{"inflection": {"verb-regular", "noun-s", "missing"}})
	for _, w := range extra {
		b.AddWord(w, []string{"noun"}, nil)
	}
	data, err := b.Build()
	if err != nil {
		t.Fatalf("building dictionary: %v", err)
	}
	dict, err := dictionary.Load(data)
	if err != nil {
		t.Fatalf("loading dictionary: %v", err)
	}
	return dict
}

func testPatterns(t testing.TB, dict *dictionary.Store) []byte {
	t.Helper()
	b := NewBuilder(dict)
	specs := []PatternSpec{
		{
			Identifier:   "noun-s",
			PartOfSpeech: []string{"noun"},
			Frequency:    100,
			Inflections: []InflectionSpec{
				{Suffix: "", Grammemes: []string{"singular"}},
				{Suffix: "s", Grammemes: []string{"plural"}},
				{Suffix: "'s", Grammemes: []string{"singular", "genitive"}},
			},
			LemmaSuffixes: []string{""},
		},
		{
			Identifier:   "verb-regular",
			PartOfSpeech: []string{"verb"},
			Frequency:    50,
			Inflections: []InflectionSpec{
				{Suffix: "", Grammemes: []string{"present"}},
				{Suffix: "s", Grammemes: []string{"present", "third"}},
				{Suffix: "ed", Grammemes: []string{"past"}},
				{Suffix: "ed", Grammemes: []string{"past", "participle"}},
				{Suffix: "ing", Grammemes: []string{"present", "participle"}},
			},
			LemmaSuffixes: []string{""},
		},
		{
			Identifier:   "invariant",
			PartOfSpeech: []string{"noun"},
			Frequency:    100,
		},
	}
	for _, spec := range specs {
		if err := b.Add(spec); err != nil {
			t.Fatalf("Add(%s): %v", spec.Identifier, err)
		}
	}
	data, err := b.Build()
	if err != nil {
		t.Fatalf("building patterns: %v", err)
	}
	return data
}

func testStore(t testing.TB) *Store {
	t.Helper()
	dict := testDictionary(t)
	s, err := Load(testPatterns(t, dict), dict)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return s
}

func mask(t testing.TB, s *Store, names ...string) uint64 {
	t.Helper()
	m, err := s.Dictionary().BinaryProperties(names)
	if err != nil {
		t.Fatalf("BinaryProperties(%v): %v", names, err)
	}
	return m
}

func TestPatternLookup(t *testing.T) {
	s := testStore(t)
	if got := s.PatternCount(); got != 3 {
		t.Fatalf("PatternCount() = %d, want 3", got)
	}

	p, ok := s.PatternByName("verb-regular")
	if !ok {
		t.Fatal("PatternByName(verb-regular) not found")
	}
	if p.ID() != 1 || p.Identifier() != "verb-regular" {
		t.Errorf("pattern = %d %q, want 1 verb-regular", p.ID(), p.Identifier())
	}
	if p.NumInflections() != 5 {
		t.Errorf("NumInflections() = %d, want 5", p.NumInflections())
	}
	if p.PartOfSpeech() != mask(t, s, "verb") {
		t.Errorf("PartOfSpeech() = %b, want verb", p.PartOfSpeech())
	}
	if p.Frequency() != 50 || p.FrequencyRank() != 1 {
		t.Errorf("frequency = %d rank %d, want 50 rank 1", p.Frequency(), p.FrequencyRank())
	}
	if _, ok := s.PatternByName("nope"); ok {
		t.Error("PatternByName(nope) found a pattern")
	}
	if _, err := s.Pattern(3); !errors.Is(err, ErrNoSuchPattern) {
		t.Errorf("Pattern(3) error = %v, want ErrNoSuchPattern", err)
	}

	inv, _ := s.PatternByName("invariant")
	if inv.NumInflections() != 0 || inv.FrequencyRank() != 0 {
		t.Errorf("invariant = %d inflections rank %d", inv.NumInflections(), inv.FrequencyRank())
	}
}

func TestPatternsForWordAndSuffix(t *testing.T) {
	s := testStore(t)

	testCases := []struct {
		got         []*Pattern
		want        []string
		description string
	}{
		{s.PatternsForWord("cat"), []string{"noun-s"}, "single pattern word"},
		{s.PatternsForWord("run"), []string{"verb-regular", "noun-s"}, "entry order kept, unknown names dropped"},
		{s.PatternsForWord("dog"), nil, "unknown word"},
		{s.PatternsForSuffix("s"), []string{"noun-s", "verb-regular"}, "shared suffix"},
		{s.PatternsForSuffix("ed"), []string{"verb-regular"}, "suffix listed once per pattern"},
		{s.PatternsForSuffix(""), []string{"noun-s", "verb-regular"}, "empty suffix"},
		{s.PatternsForSuffix("xyz"), nil, "unknown suffix"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			if len(tc.got) != len(tc.want) {
				t.Fatalf("got %d patterns, want %v", len(tc.got), tc.want)
			}
			for i, p := range tc.got {
				if p.Identifier() != tc.want[i] {
					t.Errorf("pattern %d = %q, want %q", i, p.Identifier(), tc.want[i])
				}
			}
		})
	}
}

func TestReinflect(t *testing.T) {
	s := testStore(t)
	noun, _ := s.PatternByName("noun-s")
	verb, _ := s.PatternByName("verb-regular")

	testCases := []struct {
		pattern     *Pattern
		from, to    []string
		surface     string
		want        string
		description string
	}{
		{noun, []string{"noun", "singular"}, []string{"plural"}, "cat", "cats", "singular to plural"},
		{noun, []string{"plural"}, []string{"singular"}, "cats", "cat", "plural to singular prefers fewest extra grammemes"},
		{noun, []string{"singular"}, []string{"singular"}, "cat", "cat", "already satisfied"},
		{noun, []string{"singular"}, nil, "cat", "cat", "no constraints"},
		{noun, []string{"singular"}, []string{"past"}, "cat", "", "nothing expresses the target"},
		{verb, []string{"past"}, []string{"present", "third"}, "walked", "walks", "past to third person"},
		{verb, []string{"present", "participle"}, []string{"past"}, "walking", "walked", "shared grammemes break ties"},
		{verb, nil, []string{"present", "participle"}, "walk", "walking", "unknown source grammemes"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			from, to := mask(t, s, tc.from...), mask(t, s, tc.to...)
			if got := tc.pattern.Reinflect(from, to, tc.surface); got != tc.want {
				t.Errorf("Reinflect(%v, %v, %q) = %q, want %q", tc.from, tc.to, tc.surface, got, tc.want)
			}
		})
	}
}

func TestReinflectWithOptional(t *testing.T) {
	s := testStore(t)
	noun, _ := s.PatternByName("noun-s")
	from, to := mask(t, s, "plural"), mask(t, s, "singular")

	if got := noun.ReinflectWithOptional(from, to, "cats", []uint64{mask(t, s, "genitive")}); got != "cat's" {
		t.Errorf("with genitive optional = %q, want cat's", got)
	}
	if got := noun.ReinflectWithOptional(from, to, "cats", []uint64{mask(t, s, "past")}); got != "cat" {
		t.Errorf("with unsatisfiable optional = %q, want cat", got)
	}
}

func TestReinflectRoundTrip(t *testing.T) {
	s := testStore(t)
	noun, _ := s.PatternByName("noun-s")
	for _, a := range noun.Inflections() {
		for _, b := range noun.Inflections() {
			if shared := a.Grammemes & b.Grammemes; shared == a.Grammemes || shared == b.Grammemes {
				continue
			}
			forward := noun.Reinflect(a.Grammemes, b.Grammemes, "cat"+a.Suffix)
			if forward == "" {
				t.Errorf("Reinflect(cat%s -> %q) failed", a.Suffix, b.Suffix)
				continue
			}
			if back := noun.Reinflect(b.Grammemes, a.Grammemes, forward); back != "cat"+a.Suffix {
				t.Errorf("round trip cat%s -> %s -> %s", a.Suffix, forward, back)
			}
		}
	}
}

func TestInflectionsForSurfaceForm(t *testing.T) {
	s := testStore(t)
	noun, _ := s.PatternByName("noun-s")

	testCases := []struct {
		surface     string
		from        []string
		want        []string
		description string
	}{
		{"cats", nil, []string{"s"}, "longest suffix wins"},
		{"cat's", nil, []string{"'s"}, "apostrophe suffix"},
		{"cat", []string{"singular"}, []string{""}, "bare stem"},
		{"cats", []string{"singular"}, []string{""}, "plural excluded by source grammemes"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := noun.InflectionsForSurfaceForm(tc.surface, mask(t, s, tc.from...))
			if len(got) != len(tc.want) {
				t.Fatalf("InflectionsForSurfaceForm(%q) = %v, want suffixes %v", tc.surface, got, tc.want)
			}
			for i := range got {
				if got[i].Suffix != tc.want[i] {
					t.Errorf("inflection %d suffix = %q, want %q", i, got[i].Suffix, tc.want[i])
				}
			}
		})
	}
}

func TestLemma(t *testing.T) {
	s := testStore(t)
	noun, _ := s.PatternByName("noun-s")
	verb, _ := s.PatternByName("verb-regular")

	if got := noun.Lemma("cats", mask(t, s, "plural"), []uint64{mask(t, s, "singular")}); got != "cat" {
		t.Errorf("Lemma(cats) = %q, want cat", got)
	}
	if got := verb.Lemma("walked", mask(t, s, "past"), []uint64{mask(t, s, "present")}); got != "walk" {
		t.Errorf("Lemma(walked) = %q, want walk", got)
	}
	if got := verb.Lemma("walk", mask(t, s, "noun"), nil); got != "" {
		t.Errorf("Lemma with incompatible grammemes = %q, want empty", got)
	}

	// present|third is met by every present form; the shared participle
	// then picks -ing over the exact match -s.
	infl, ok := verb.LemmaInflection(mask(t, s, "past", "participle"), []uint64{mask(t, s, "present", "third")})
	if !ok || infl.Suffix != "ing" {
		t.Errorf("LemmaInflection(past participle, [present|third]) = %q, %v, want ing", infl.Suffix, ok)
	}
}

func TestConstrainAndContainsSuffix(t *testing.T) {
	s := testStore(t)
	verb, _ := s.PatternByName("verb-regular")
	if got := verb.Constrain(mask(t, s, "past")); len(got) != 2 {
		t.Errorf("Constrain(past) = %v, want 2 inflections", got)
	}
	if !verb.ContainsSuffix("ing") || verb.ContainsSuffix("'s") {
		t.Error("ContainsSuffix mismatch")
	}
	if lemmas := verb.LemmaSuffixes(); len(lemmas) != 1 || lemmas[0] != "" {
		t.Errorf("LemmaSuffixes() = %q", lemmas)
	}
}

func TestLoadRejectsForeignDictionary(t *testing.T) {
	dict := testDictionary(t)
	data := testPatterns(t, dict)
	other := testDictionary(t, "dog")
	if _, err := Load(data, other); !errors.Is(err, ErrDictionaryMismatch) {
		t.Errorf("Load() with another dictionary error = %v, want ErrDictionaryMismatch", err)
	}
	for cut := 0; cut < len(data); cut += 7 {
		if _, err := Load(data[:cut], dict); err == nil {
			t.Errorf("Load() of %d/%d bytes succeeded", cut, len(data))
		}
	}
}

func TestBuilderErrors(t *testing.T) {
	dict := testDictionary(t)
	b := NewBuilder(dict)
	if err := b.Add(PatternSpec{Identifier: "x"}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := b.Add(PatternSpec{Identifier: "x"}); err == nil {
		t.Error("duplicate identifier accepted")
	}
	if err := b.Add(PatternSpec{}); err == nil {
		t.Error("empty identifier accepted")
	}
	b.Add(PatternSpec{Identifier: "y", Inflections: []InflectionSpec{{Suffix: "s", Grammemes: []string{"dual"}}}})
	if _, err := b.Build(); !errors.Is(err, dictionary.ErrUnknownProperty) {
		t.Errorf("Build() error = %v, want ErrUnknownProperty", err)
	}
}

func TestOpenFile(t *testing.T) {
	dict := testDictionary(t)
	path := filepath.Join(t.TempDir(), "en.wfp")
	if err := os.WriteFile(path, testPatterns(t, dict), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path, dict)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()
	if s.PatternCount() != 3 {
		t.Errorf("PatternCount() = %d, want 3", s.PatternCount())
	}
}

func BenchmarkReinflect(b *testing.B) {
	s := testStore(b)
	noun, _ := s.PatternByName("noun-s")
	from, to := mask(b, s, "singular"), mask(b, s, "plural")
	for i := 0; i < b.N; i++ {
		noun.Reinflect(from, to, "cat")
	}
}
