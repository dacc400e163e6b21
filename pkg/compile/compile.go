package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/wordforms/internal/utils"
	"github.com/bastiangx/wordforms/pkg/decompound"
	"github.com/bastiangx/wordforms/pkg/dictionary"
	"github.com/bastiangx/wordforms/pkg/engine"
	"github.com/bastiangx/wordforms/pkg/inflection"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Result holds the encoded files of one locale.
type Result struct {
	Language   string
	Dictionary []byte
	Patterns   []byte
	Corpus     []byte
	Words      int
}

// Build encodes the dictionary, the patterns and the corpus of src. The
// patterns file is bound to the fingerprint of the dictionary built here.
func Build(src *Source) (*Result, error) {
	if err := checkPatternRefs(src); err != nil {
		return nil, err
	}

	db := dictionary.NewBuilder(src.Language)
	db.AddType(src.Types...)
	for _, w := range src.Words {
		var props map[string][]string
		if len(w.Properties) > 0 || len(w.Inflection) > 0 {
			props = make(map[string][]string, len(w.Properties)+1)
			for k, v := range w.Properties {
				props[k] = v
			}
			if len(w.Inflection) > 0 {
				props[dictionary.InflectionProperty] = w.Inflection
			}
		}
		db.AddWord(w.Word, w.Types, props)
	}
	dictData, err := db.Build()
	if err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}
	dict, err := dictionary.Load(dictData)
	if err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}

	res := &Result{Language: src.Language, Dictionary: dictData, Words: dict.WordCount()}
	if len(src.Patterns) > 0 {
		pb := inflection.NewBuilder(dict)
		for _, p := range src.Patterns {
			spec := inflection.PatternSpec{
				Identifier:    p.ID,
				PartOfSpeech:  p.POS,
				Frequency:     p.Frequency,
				LemmaSuffixes: p.LemmaSuffixes,
			}
			for _, infl := range p.Inflections {
				spec.Inflections = append(spec.Inflections, inflection.InflectionSpec{Suffix: infl.Suffix, Grammemes: infl.Grammemes})
			}
			if err := pb.Add(spec); err != nil {
				return nil, fmt.Errorf("pattern %s: %w", p.ID, err)
			}
		}
		if res.Patterns, err = pb.Build(); err != nil {
			return nil, fmt.Errorf("patterns: %w", err)
		}
	}

	corpus, err := buildCorpus(src)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	if corpus != nil {
		if res.Corpus, err = corpus.Encode(); err != nil {
			return nil, fmt.Errorf("corpus: %w", err)
		}
	}
	return res, nil
}

// checkPatternRefs reports words naming patterns the source does not define.
func checkPatternRefs(src *Source) error {
	defined := patricia.NewTrie()
	for _, p := range src.Patterns {
		defined.Insert(patricia.Prefix(p.ID), true)
	}
	var missing []string
	for _, w := range src.Words {
		for _, id := range w.Inflection {
			if defined.Get(patricia.Prefix(id)) == nil {
				missing = append(missing, w.Word+"->"+id)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("undefined patterns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func buildCorpus(src *Source) (*decompound.MemoryCorpus, error) {
	if src.Corpus.TSV == "" && len(src.Corpus.Words) == 0 {
		return nil, nil
	}
	corpus := decompound.NewMemoryCorpus()
	if src.Corpus.TSV != "" {
		var err error
		if corpus, err = decompound.LoadTSVFile(src.path(src.Corpus.TSV)); err != nil {
			return nil, err
		}
	}
	for _, e := range src.Corpus.Words {
		flags, err := decompound.ParseFlags(strings.Join(e.Flags, ","))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Word, err)
		}
		corpus.Add(e.Word, e.Frequency, flags)
	}
	return corpus, nil
}

// WriteFiles writes res under root in the layout the engine reads.
func WriteFiles(res *Result, root string) ([]string, error) {
	files := []struct {
		dir, ext string
		data     []byte
	}{
		{engine.DictionaryDir, engine.DictionaryExt, res.Dictionary},
		{engine.DictionaryDir, engine.PatternsExt, res.Patterns},
		{engine.TokenizerDir, engine.CorpusExt, res.Corpus},
	}
	var written []string
	for _, f := range files {
		if f.data == nil {
			continue
		}
		dir := filepath.Join(root, f.dir)
		if err := utils.EnsureDir(dir); err != nil {
			return written, err
		}
		path := filepath.Join(dir, res.Language+f.ext)
		if err := writeFile(path, f.data); err != nil {
			return written, err
		}
		log.Debugf("Wrote %s (%d bytes)", path, len(f.data))
		written = append(written, path)
	}
	return written, nil
}

// writeFile replaces path atomically so a running engine never maps a partial file.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
