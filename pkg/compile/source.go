/*
Package compile builds the binary data files of a locale from a TOML source.

A source names its language, grammemes, inflection patterns, words and the
compound corpus:

	language = "de"
	types = ["noun", "singular", "plural"]

	[[patterns]]
	id = "noun-en"
	pos = ["noun"]
	frequency = 120
	lemma_suffixes = [""]
	inflections = [
	  { suffix = "", grammemes = ["singular"] },
	  { suffix = "en", grammemes = ["plural"] },
	]

	[[words]]
	word = "tür"
	types = ["noun", "singular"]
	inflection = ["noun-en"]
	properties = { gender = ["feminine"] }

	[corpus]
	tsv = "corpus.tsv"
	words = [{ word = "schloss", frequency = 900, flags = ["segment"] }]

Larger word lists can live in a words_file of tab separated lines
"word<TAB>types<TAB>patterns" with comma separated lists. Relative file names
are resolved against the source file.
*/
package compile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bastiangx/wordforms/internal/utils"
)

// Source is a parsed compiler source.
type Source struct {
	Language  string          `toml:"language"`
	Types     []string        `toml:"types"`
	Patterns  []PatternSource `toml:"patterns"`
	Words     []WordSource    `toml:"words"`
	WordsFile string          `toml:"words_file"`
	Corpus    CorpusSource    `toml:"corpus"`

	dir string
}

// PatternSource describes one inflection pattern.
type PatternSource struct {
	ID            string            `toml:"id"`
	POS           []string          `toml:"pos"`
	Frequency     uint64            `toml:"frequency"`
	LemmaSuffixes []string          `toml:"lemma_suffixes"`
	Inflections   []InflectionEntry `toml:"inflections"`
}

// InflectionEntry is one suffix of a pattern.
type InflectionEntry struct {
	Suffix    string   `toml:"suffix"`
	Grammemes []string `toml:"grammemes"`
}

// WordSource is one dictionary word.
type WordSource struct {
	Word       string              `toml:"word"`
	Types      []string            `toml:"types"`
	Inflection []string            `toml:"inflection"`
	Properties map[string][]string `toml:"properties"`
}

// CorpusSource lists the compound corpus entries.
type CorpusSource struct {
	TSV   string        `toml:"tsv"`
	Words []CorpusEntry `toml:"words"`
}

// CorpusEntry is one corpus word.
type CorpusEntry struct {
	Word      string   `toml:"word"`
	Frequency uint32   `toml:"frequency"`
	Flags     []string `toml:"flags"`
}

// Parse decodes a source. Relative file names resolve against dir.
func Parse(r io.Reader, dir string) (*Source, error) {
	var src Source
	md, err := toml.NewDecoder(r).Decode(&src)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys: %v", undecoded)
	}
	if src.Language == "" {
		return nil, fmt.Errorf("missing language")
	}
	src.dir = dir
	if src.WordsFile != "" {
		if err := src.readWordsFile(src.path(src.WordsFile)); err != nil {
			return nil, err
		}
	}
	return &src, nil
}

// LoadFile reads the source at path.
func LoadFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, err := Parse(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", path, err)
	}
	return src, nil
}

func (s *Source) path(name string) string {
	if filepath.IsAbs(name) || s.dir == "" {
		return name
	}
	return filepath.Join(s.dir, name)
}

func (s *Source) readWordsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return fmt.Errorf("%s:%d: want word and types, got %q", path, line, text)
		}
		w := WordSource{Word: strings.TrimSpace(fields[0]), Types: utils.SplitList(fields[1])}
		if len(fields) > 2 {
			w.Inflection = utils.SplitList(fields[2])
		}
		s.Words = append(s.Words, w)
	}
	return scanner.Err()
}
