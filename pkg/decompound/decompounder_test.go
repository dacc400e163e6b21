package decompound

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func testCorpus(t testing.TB) *MemoryCorpus {
	t.Helper()
	const tsv = `# word	frequency	flags
fire	10000
truck	10000
arbeit	5000
amt	5000
sun	1000
flower	1000
pot	1000
tür	1000
schloss	1000
hamburger	500	nocompound
weekend	800	english
`
	c, err := LoadTSV(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("LoadTSV() error: %v", err)
	}
	return c
}

func TestDecompound(t *testing.T) {
	d := New(testCorpus(t), DefaultTuning())

	testCases := []struct {
		phrase      string
		start       int
		length      int
		want        []int
		description string
	}{
		{"firetruck", 0, 9, []int{4}, "two frequent parts"},
		{"Firetruck", 0, 9, []int{4}, "case insensitive"},
		{"Arbeitsamt", 0, 10, []int{6, 7}, "linking element gets its own boundary"},
		{"sunflowerpot", 0, 12, []int{3, 9}, "three parts"},
		{"Türschloss", 0, len("Türschloss"), []int{4}, "byte offsets after multibyte runes"},
		{"die Türschloss", 4, len("Türschloss"), []int{8}, "offsets relative to the phrase"},
		{"the firetruck!", 4, 9, []int{8}, "range inside a phrase"},
		{"hamburger", 0, 9, nil, "no compound flag"},
		{"weekend", 0, 7, nil, "foreign word flag"},
		{"qwertzuiop", 0, 10, nil, "unknown word"},
		{"amt", 0, 3, nil, "shorter than two candidates"},
		{"", 0, 0, nil, "empty"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := d.Decompound(tc.phrase, tc.start, tc.length)
			if !equalInts(got, tc.want) {
				t.Errorf("Decompound(%q, %d, %d) = %v, want %v", tc.phrase, tc.start, tc.length, got, tc.want)
			}
		})
	}
}

func TestDecompoundCoverage(t *testing.T) {
	d := New(testCorpus(t), DefaultTuning())
	inputs := []string{
		"firetruck", "Arbeitsamt", "sunflowerpot", "Türschloss", "firetrucksunpot",
		"truckfire", "potsunflower", "arbeitsamtsfeuer", "ÄÖÜäöüß", "fire truck", "a", "xx\xffyyzz",
	}
	for _, in := range inputs {
		for start := 0; start < len(in); start++ {
			got := d.Decompound(in, start, len(in)-start)
			prev := start
			for _, b := range got {
				if b <= prev || b >= len(in) {
					t.Errorf("Decompound(%q, %d) = %v: boundary %d out of order or range", in, start, got, b)
				}
				prev = b
			}
		}
		var sb strings.Builder
		for _, tok := range d.Split(in) {
			sb.WriteString(tok.Text)
		}
		if sb.String() != in {
			t.Errorf("Split(%q) reassembles to %q", in, sb.String())
		}
	}
}

func TestDecompoundRejectsBadRange(t *testing.T) {
	d := New(testCorpus(t), DefaultTuning())
	testCases := []struct {
		start, length int
		description   string
	}{
		{-1, 3, "negative start"},
		{0, -1, "negative length"},
		{2, 9, "past the end"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Decompound(firetruck, %d, %d) did not panic", tc.start, tc.length)
				}
			}()
			d.Decompound("firetruck", tc.start, tc.length)
		})
	}
}

func TestDecompoundInputBound(t *testing.T) {
	tuning := DefaultTuning()
	tuning.MaxInputLength = 8
	d := New(testCorpus(t), tuning)
	if got := d.Decompound("firetruck", 0, 9); len(got) != 0 {
		t.Errorf("Decompound over the input bound = %v, want none", got)
	}
}

func TestDecompoundVisitBudget(t *testing.T) {
	tuning := DefaultTuning()
	tuning.CacheSize = 0
	tuning.MaxVisits = 1
	d := New(testCorpus(t), tuning)
	if got := d.Decompound("firetruck", 0, 9); len(got) != 0 {
		t.Errorf("Decompound(firetruck) with one visit = %v, want none", got)
	}
}

func TestDecompoundRepetitiveInput(t *testing.T) {
	// Every substring of a run of one letter is a frequent word, so the
	// search branches at every position.
	corpus := NewMemoryCorpus()
	for n := 3; n <= 20; n++ {
		corpus.Add(strings.Repeat("a", n), 1000, 0)
	}
	tuning := DefaultTuning()
	tuning.CacheSize = 0
	d := New(corpus, tuning)
	word := strings.Repeat("a", tuning.MaxInputLength)

	done := make(chan []int, 1)
	go func() {
		done <- d.Decompound(word, 0, len(word))
	}()
	select {
	case got := <-done:
		if len(got) != 0 {
			t.Errorf("Decompound(a*%d) = %v, want none once the budget runs out", len(word), got)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("Decompound(a*%d) did not finish within 10s", len(word))
	}
}

func TestSplit(t *testing.T) {
	d := New(testCorpus(t), DefaultTuning())

	testCases := []struct {
		word        string
		want        []Token
		description string
	}{
		{"Arbeitsamt", []Token{
			{"Arbeit", 0, 6, Head},
			{"s", 6, 7, Fuge},
			{"amt", 7, 10, Tail},
		}, "with linking element"},
		{"sunflowerpot", []Token{
			{"sun", 0, 3, Head},
			{"flower", 3, 9, Head},
			{"pot", 9, 12, Tail},
		}, "three parts"},
		{"fire", []Token{{"fire", 0, 4, Word}}, "single word"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := d.Split(tc.word)
			if len(got) != len(tc.want) {
				t.Fatalf("Split(%q) = %v, want %v", tc.word, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Split(%q)[%d] = %+v, want %+v", tc.word, i, got[i], tc.want[i])
				}
			}
		})
	}
}

type countingCorpus struct {
	Corpus
	lookups int
}

func (c *countingCorpus) Lookup(reversed string) (uint32, bool) {
	c.lookups++
	return c.Corpus.Lookup(reversed)
}

func TestSplitCache(t *testing.T) {
	corpus := &countingCorpus{Corpus: testCorpus(t)}
	d := New(corpus, DefaultTuning())
	first := d.Decompound("Firetruck", 0, 9)
	before := corpus.lookups
	second := d.Decompound("fireTRUCK", 0, 9)
	if corpus.lookups != before {
		t.Errorf("cached split did %d corpus lookups", corpus.lookups-before)
	}
	if !equalInts(first, second) {
		t.Errorf("cached result %v differs from %v", second, first)
	}

	tuning := DefaultTuning()
	tuning.CacheSize = 0
	uncached := &countingCorpus{Corpus: testCorpus(t)}
	d = New(uncached, tuning)
	d.Decompound("firetruck", 0, 9)
	before = uncached.lookups
	d.Decompound("firetruck", 0, 9)
	if uncached.lookups == before {
		t.Error("disabled cache still served the result")
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{Word: "word", Head: "head", Tail: "tail", Fuge: "fuge", Kind(9): "Kind(9)"} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func BenchmarkDecompound(b *testing.B) {
	tuning := DefaultTuning()
	tuning.CacheSize = 0
	d := New(testCorpus(b), tuning)
	word := "sunflowerpot"
	if !utf8.ValidString(word) {
		b.Fatal("invalid benchmark word")
	}
	for i := 0; i < b.N; i++ {
		d.Decompound(word, 0, len(word))
	}
}
