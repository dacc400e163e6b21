package decompound

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/wordforms/pkg/mapped"
)

func TestLoadTSV(t *testing.T) {
	c := testCorpus(t)
	testCases := []struct {
		word        string
		wantFreq    uint32
		wantFlags   uint32
		wantOK      bool
		description string
	}{
		{"fire", 10000, 0, true, "plain entry"},
		{"hamburger", 500, FlagNoCompound, true, "flagged entry"},
		{"weekend", 800, FlagEnglish, true, "english flag"},
		{"FIRE", 10000, 0, true, "keys are lowercased"},
		{"water", 0, 0, false, "missing word"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			v, ok := c.Lookup(corpusKey(tc.word))
			if ok != tc.wantOK || v&FreqMask != tc.wantFreq || v&^FreqMask != tc.wantFlags {
				t.Errorf("Lookup(%q) = %#x, %v, want freq %d flags %#x", tc.word, v, ok, tc.wantFreq, tc.wantFlags)
			}
		})
	}
	if c.Len() != 11 {
		t.Errorf("Len() = %d, want 11", c.Len())
	}
}

func TestLoadTSVErrors(t *testing.T) {
	testCases := []struct {
		input       string
		description string
	}{
		{"fire", "missing frequency"},
		{"fire\tmany", "bad frequency"},
		{"fire\t10\tloud", "unknown flag"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			if _, err := LoadTSV(strings.NewReader(tc.input)); err == nil {
				t.Errorf("LoadTSV(%q) succeeded", tc.input)
			}
		})
	}
}

func TestMemoryCorpusMerge(t *testing.T) {
	c := NewMemoryCorpus()
	c.Add("Haus", 10, FlagSegment)
	c.Add("haus", 30, FlagNoHead)
	c.Add("haus", 20, 0)
	c.Add("riesig", 1<<30, 0)
	v, ok := c.Lookup(Reverse("haus"))
	if !ok || v&FreqMask != 30 || v&^FreqMask != FlagSegment|FlagNoHead {
		t.Errorf("merged entry = %#x, want freq 30 with segment and nohead", v)
	}
	if v, _ := c.Lookup(Reverse("riesig")); v != FreqMask {
		t.Errorf("clamped entry = %#x, want %#x", v, FreqMask)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestParseFlags(t *testing.T) {
	got, err := ParseFlags("English, noHead,,segment")
	if err != nil || got != FlagEnglish|FlagNoHead|FlagSegment {
		t.Errorf("ParseFlags() = %#x, %v", got, err)
	}
}

func TestMappedCorpus(t *testing.T) {
	mem := testCorpus(t)
	path := filepath.Join(t.TempDir(), "de.wfc")
	if err := mem.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	c, err := OpenCorpus(path)
	if err != nil {
		t.Fatalf("OpenCorpus() error: %v", err)
	}
	defer c.Close()

	if c.Len() != mem.Len() {
		t.Errorf("Len() = %d, want %d", c.Len(), mem.Len())
	}
	for _, w := range []string{"fire", "tür", "hamburger", "nothing"} {
		want, wantOK := mem.Lookup(corpusKey(w))
		got, ok := c.Lookup(corpusKey(w))
		if got != want || ok != wantOK {
			t.Errorf("Lookup(%q) = %#x, %v, want %#x, %v", w, got, ok, want, wantOK)
		}
	}

	d := New(c, DefaultTuning())
	if got := d.Decompound("Arbeitsamt", 0, 10); !equalInts(got, []int{6, 7}) {
		t.Errorf("Decompound over mapped corpus = %v, want [6 7]", got)
	}
}

func TestLoadCorpusRejectsBadData(t *testing.T) {
	data, err := testCorpus(t).Encode()
	if err != nil {
		t.Fatal(err)
	}
	bad := append([]byte("WFDICT\x00\x01"), data[8:]...)
	if _, err := LoadCorpus(bad); !errors.Is(err, mapped.ErrInvalidMagic) {
		t.Errorf("LoadCorpus() with dictionary magic error = %v, want ErrInvalidMagic", err)
	}
	if _, err := LoadCorpus(append(data, 0)); !errors.Is(err, mapped.ErrCorrupt) {
		t.Errorf("LoadCorpus() with trailing byte error = %v, want ErrCorrupt", err)
	}
	if _, err := OpenCorpus(filepath.Join(t.TempDir(), "missing.wfc")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenCorpus() of missing file error = %v, want ErrNotExist", err)
	}
}
