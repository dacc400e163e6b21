package engine

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/bastiangx/wordforms/pkg/decompound"
	"github.com/bastiangx/wordforms/pkg/dictionary"
	"github.com/bastiangx/wordforms/pkg/inflection"
)

// writeData lays out a complete data root for lang holding the given words,
// all inflected by a single noun pattern.
func writeData(t testing.TB, root, lang string, words ...string) {
	t.Helper()
	for _, dir := range []string{DictionaryDir, TokenizerDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}
	dict := writeDictionary(t, root, lang, words...)
	pb := inflection.NewBuilder(dict)
	err := pb.Add(inflection.PatternSpec{
		Identifier:    "noun-en",
		PartOfSpeech:  []string{"noun"},
		Frequency:     10,
		LemmaSuffixes: []string{""},
		Inflections: []inflection.InflectionSpec{
			{Suffix: "", Grammemes: []string{"singular"}},
			{Suffix: "en", Grammemes: []string{"plural"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := pb.WriteFile(filepath.Join(root, DictionaryDir, lang+PatternsExt)); err != nil {
		t.Fatal(err)
	}

	corpus := decompound.NewMemoryCorpus()
	for _, w := range words {
		corpus.Add(w, 1000, 0)
	}
	if err := corpus.WriteFile(filepath.Join(root, TokenizerDir, lang+CorpusExt)); err != nil {
		t.Fatal(err)
	}
}

// writeDictionary writes only the dictionary file of lang and returns it loaded.
func writeDictionary(t testing.TB, root, lang string, words ...string) *dictionary.Store {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, DictionaryDir), 0755); err != nil {
		t.Fatal(err)
	}
	db := dictionary.NewBuilder(lang)
	db.AddType("noun", "singular", "plural")
	for _, w := range words {
		db.AddWord(w, []string{"noun", "singular"}, map[string][]string{dictionary.InflectionProperty: {"noun-en"}})
	}
	data, err := db.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, DictionaryDir, lang+DictionaryExt), data, 0644); err != nil {
		t.Fatal(err)
	}
	dict, err := dictionary.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	return dict
}

func newContext(t testing.TB, root string) *Context {
	t.Helper()
	t.Setenv(DefaultEnvVar, "")
	c := New(Options{DefaultRoot: root})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRegisterDataPath(t *testing.T) {
	c := newContext(t, t.TempDir())

	if err := c.RegisterDataPath("de", "/a/data"); err != nil {
		t.Fatalf("RegisterDataPath(de, /a/data) error: %v", err)
	}

	testCases := []struct {
		locale      string
		path        string
		wantErr     error
		description string
	}{
		{"de", "/a/data", nil, "same path again"},
		{"de", "file:///a/data/", nil, "same path as file URL"},
		{"de", "/a/./data", nil, "same path unclean"},
		{"de", "/b/data", ErrConflictingPath, "different path"},
		{"de_DE", "/b/data", nil, "regional locale is separate"},
		{"", "/b/data", ErrUnsupportedLocale, "empty locale"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			err := c.RegisterDataPath(tc.locale, tc.path)
			if tc.wantErr == nil && err != nil {
				t.Errorf("RegisterDataPath(%q, %q) error: %v", tc.locale, tc.path, err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("RegisterDataPath(%q, %q) = %v, want %v", tc.locale, tc.path, err, tc.wantErr)
			}
		})
	}

	got, err := c.DataPath("de")
	if err != nil || got != "/a/data" {
		t.Errorf("DataPath(de) = %q, %v, want /a/data", got, err)
	}
}

func TestDataPathResolution(t *testing.T) {
	def := t.TempDir()
	c := newContext(t, def)
	if err := c.RegisterDataPath("de", "/a/data"); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		locale      string
		want        string
		description string
	}{
		{"de", "/a/data", "registered"},
		{"de-AT", "/a/data", "base language registration"},
		{"fr", def, "default root"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got, err := c.DataPath(tc.locale)
			if err != nil || got != tc.want {
				t.Errorf("DataPath(%q) = %q, %v, want %q", tc.locale, got, err, tc.want)
			}
		})
	}
}

func TestEnvironmentOverride(t *testing.T) {
	env := t.TempDir()
	writeData(t, env, "de", "tür", "schloss")
	t.Setenv(DefaultEnvVar, env)

	c := New(Options{DefaultRoot: t.TempDir()})
	defer c.Close()
	if err := c.RegisterDataPath("de", "/does/not/exist"); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.DataPath("de"); got != env {
		t.Errorf("DataPath(de) = %q, want %q", got, env)
	}
	dict, err := c.DictionaryFor("de")
	if err != nil {
		t.Fatalf("DictionaryFor(de) error: %v", err)
	}
	if !dict.IsKnownWord("tür") {
		t.Errorf("dictionary from the override root lacks tür")
	}
}

func TestDictionaryFor(t *testing.T) {
	root := t.TempDir()
	writeData(t, root, "de", "tür", "schloss")
	c := newContext(t, root)

	dict, err := c.DictionaryFor("de")
	if err != nil {
		t.Fatalf("DictionaryFor(de) error: %v", err)
	}
	if dict.WordCount() != 2 {
		t.Errorf("WordCount() = %d, want 2", dict.WordCount())
	}
	again, _ := c.DictionaryFor("de")
	if again != dict {
		t.Errorf("DictionaryFor(de) opened the dictionary twice")
	}
	regional, err := c.DictionaryFor("de_CH")
	if err != nil {
		t.Fatalf("DictionaryFor(de_CH) error: %v", err)
	}
	if regional != dict {
		t.Errorf("DictionaryFor(de_CH) did not fall back to the de dictionary")
	}

	if _, err := c.DictionaryFor("fr"); !errors.Is(err, ErrUnsupportedLocale) {
		t.Errorf("DictionaryFor(fr) = %v, want ErrUnsupportedLocale", err)
	}
	if _, err := c.DictionaryFor("!!"); !errors.Is(err, ErrUnsupportedLocale) {
		t.Errorf("DictionaryFor(!!) = %v, want ErrUnsupportedLocale", err)
	}
}

func TestRegionalAndBaseRoots(t *testing.T) {
	rootDE := t.TempDir()
	rootCH := t.TempDir()
	writeData(t, rootDE, "de", "tür")
	writeData(t, rootCH, "de", "tür", "schloss", "haus")
	c := newContext(t, t.TempDir())
	if err := c.RegisterDataPath("de", rootDE); err != nil {
		t.Fatal(err)
	}

	// Resolved before de-CH has a root of its own.
	early, err := c.DictionaryFor("de-CH")
	if err != nil {
		t.Fatalf("DictionaryFor(de-CH) error: %v", err)
	}
	if early.WordCount() != 1 {
		t.Errorf("DictionaryFor(de-CH) before registration has %d words, want 1", early.WordCount())
	}
	if err := c.RegisterDataPath("de-CH", rootCH); err != nil {
		t.Fatal(err)
	}

	de, err := c.DictionaryFor("de")
	if err != nil {
		t.Fatalf("DictionaryFor(de) error: %v", err)
	}
	ch, err := c.DictionaryFor("de-CH")
	if err != nil {
		t.Fatalf("DictionaryFor(de-CH) error: %v", err)
	}
	if de == ch {
		t.Fatalf("DictionaryFor(de-CH) returned the de store")
	}
	testCases := []struct {
		locale      string
		want        int
		description string
	}{
		{"de", 1, "base root"},
		{"de-CH", 3, "regional root holding only the base file name"},
		{"de-AT", 1, "unregistered region uses the base root"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			dict, err := c.DictionaryFor(tc.locale)
			if err != nil {
				t.Fatalf("DictionaryFor(%q) error: %v", tc.locale, err)
			}
			if dict.WordCount() != tc.want {
				t.Errorf("DictionaryFor(%q).WordCount() = %d, want %d", tc.locale, dict.WordCount(), tc.want)
			}
			patterns, err := c.PatternsFor(tc.locale)
			if err != nil {
				t.Fatalf("PatternsFor(%q) error: %v", tc.locale, err)
			}
			if patterns.Dictionary() != dict {
				t.Errorf("PatternsFor(%q) is bound to another dictionary", tc.locale)
			}
		})
	}

	in, err := c.InflectorFor("de-CH")
	if err != nil {
		t.Fatalf("InflectorFor(de-CH) error: %v", err)
	}
	if got, ok, err := in.InflectNames("haus", []string{"plural"}, nil, nil); err != nil || !ok || got != "hausen" {
		t.Errorf("InflectNames(haus, plural) = %q, %v, %v, want hausen", got, ok, err)
	}
	word := "Türschloss"
	for locale, want := range map[string][]int{"de": nil, "de-CH": {4}} {
		d, err := c.DecompounderFor(locale)
		if err != nil {
			t.Fatalf("DecompounderFor(%q) error: %v", locale, err)
		}
		if got := d.Decompound(word, 0, len(word)); !slices.Equal(got, want) {
			t.Errorf("DecompounderFor(%q).Decompound(%q) = %v, want %v", locale, word, got, want)
		}
	}
}

func TestPatternsForRegionalDictionary(t *testing.T) {
	root := t.TempDir()
	writeData(t, root, "de", "tür", "schloss")
	writeDictionary(t, root, "de-CH", "tür", "haus")
	c := newContext(t, root)

	p, err := c.PatternsFor("de")
	if err != nil {
		t.Fatalf("PatternsFor(de) error: %v", err)
	}
	de, _ := c.DictionaryFor("de")
	if p.Dictionary() != de {
		t.Errorf("PatternsFor(de) is bound to another dictionary")
	}
	ch, err := c.DictionaryFor("de-CH")
	if err != nil {
		t.Fatalf("DictionaryFor(de-CH) error: %v", err)
	}
	if ch == de || ch.WordCount() != 2 || !ch.IsKnownWord("haus") {
		t.Errorf("DictionaryFor(de-CH) did not open the regional dictionary")
	}
	// The only pattern file was built for the de dictionary.
	if _, err := c.PatternsFor("de-CH"); !errors.Is(err, inflection.ErrDictionaryMismatch) {
		t.Errorf("PatternsFor(de-CH) = %v, want ErrDictionaryMismatch", err)
	}
}

func TestDictionaryForCorruptFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DictionaryDir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, DictionaryDir, "en"+DictionaryExt), []byte("not a dictionary"), 0644); err != nil {
		t.Fatal(err)
	}
	c := newContext(t, root)
	if _, err := c.DictionaryFor("en"); err == nil {
		t.Errorf("DictionaryFor(en) on a corrupt file succeeded")
	}
}

func TestInflectorFor(t *testing.T) {
	root := t.TempDir()
	writeData(t, root, "de", "tür", "schloss")
	c := newContext(t, root)

	in, err := c.InflectorFor("de")
	if err != nil {
		t.Fatalf("InflectorFor(de) error: %v", err)
	}
	got, ok, err := in.InflectNames("tür", []string{"plural"}, nil, nil)
	if err != nil || !ok || got != "türen" {
		t.Errorf("InflectNames(tür, plural) = %q, %v, %v, want türen", got, ok, err)
	}
	patterns, _ := c.PatternsFor("de")
	if patterns.Dictionary() != in.Dictionary() {
		t.Errorf("inflector and patterns use different dictionaries")
	}
}

func TestDecompounderFor(t *testing.T) {
	root := t.TempDir()
	writeData(t, root, "de", "tür", "schloss")
	c := newContext(t, root)

	d, err := c.DecompounderFor("de")
	if err != nil {
		t.Fatalf("DecompounderFor(de) error: %v", err)
	}
	word := "Türschloss"
	if got := d.Decompound(word, 0, len(word)); !slices.Equal(got, []int{4}) {
		t.Errorf("Decompound(%q) = %v, want [4]", word, got)
	}
}

func TestDecompounderForTextCorpus(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, TokenizerDir), 0755); err != nil {
		t.Fatal(err)
	}
	tsv := "fire\t10000\ntruck\t10000\n"
	if err := os.WriteFile(filepath.Join(root, TokenizerDir, "en"+CorpusTextExt), []byte(tsv), 0644); err != nil {
		t.Fatal(err)
	}
	c := newContext(t, root)
	d, err := c.DecompounderFor("en-GB")
	if err != nil {
		t.Fatalf("DecompounderFor(en-GB) error: %v", err)
	}
	if got := d.Decompound("firetruck", 0, 9); !slices.Equal(got, []int{4}) {
		t.Errorf("Decompound(firetruck) = %v, want [4]", got)
	}
}

func TestAvailableLocales(t *testing.T) {
	root := t.TempDir()
	writeData(t, root, "de", "tür")
	writeData(t, root, "en", "door")
	c := newContext(t, root)

	got := c.AvailableLocales()
	slices.Sort(got)
	if !slices.Equal(got, []string{"de", "en"}) {
		t.Errorf("AvailableLocales() = %v, want [de en]", got)
	}
}

func TestConcurrentLoad(t *testing.T) {
	root := t.TempDir()
	writeData(t, root, "de", "tür", "schloss")
	c := newContext(t, root)

	var wg sync.WaitGroup
	results := make([]*inflection.Store, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.PatternsFor("de")
			if err != nil {
				t.Errorf("PatternsFor(de) error: %v", err)
				return
			}
			results[i] = p
		}(i)
	}
	wg.Wait()
	for i, p := range results {
		if p != results[0] {
			t.Errorf("PatternsFor(de) call %d returned a different store", i)
		}
	}
}
