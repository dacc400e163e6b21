/*
Package engine ties the stores together per locale.

A Context lazily opens the dictionary, inflection patterns and compound
corpus of each locale the first time they are asked for and keeps them for
its lifetime. Each cache has its own lock held only around map access, so
concurrent queries on loaded data never contend.

Data files are looked up under a root directory:

	<root>/dictionary/<lang>.wfd   dictionary
	<root>/dictionary/<lang>.wfp   inflection patterns
	<root>/tokenizer/<lang>.wfc    compound corpus (or <lang>.tsv)

The root is the environment override when set, else the path registered for
the locale, else the default root.
*/
package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/bastiangx/wordforms/pkg/decompound"
	"github.com/bastiangx/wordforms/pkg/dictionary"
	"github.com/bastiangx/wordforms/pkg/inflection"
	"github.com/bastiangx/wordforms/pkg/inflector"
	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
)

const (
	// DefaultRoot is the platform installation directory for data files.
	DefaultRoot = "/usr/share/wordforms"
	// DefaultEnvVar names the environment variable overriding every data root.
	DefaultEnvVar = "WORDFORMS_DATA_ROOT"
)

// Options configure a Context.
type Options struct {
	// DefaultRoot is used when neither the environment nor a registration
	// names a root. Empty means DefaultRoot.
	DefaultRoot string
	// EnvVar names the override variable, read once by New. Empty means DefaultEnvVar.
	EnvVar    string
	Inflector inflector.Options
	Tuning    decompound.Tuning
}

// DefaultOptions returns options with the default roots and tuning.
func DefaultOptions() Options {
	return Options{
		DefaultRoot: DefaultRoot,
		EnvVar:      DefaultEnvVar,
		Tuning:      decompound.DefaultTuning(),
	}
}

// cache maps resolved file paths to open stores behind its own lock.
type cache[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

func newCache[V any]() *cache[V] {
	return &cache[V]{items: make(map[string]V)}
}

func (c *cache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

// add stores v under key unless key is already present, in which case the
// stored value is returned with false.
func (c *cache[V]) add(key string, v V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok {
		return existing, false
	}
	c.items[key] = v
	return v, true
}

func (c *cache[V]) values() []V {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]V, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, v)
	}
	return out
}

type closer interface {
	Close() error
}

type corpusEntry struct {
	corpus decompound.Corpus
	closer closer
}

// Context owns the per-locale stores. Stores are cached by the files they
// were opened from, so two locales resolving to the same file share a store
// and locales resolving to different roots never do.
type Context struct {
	opts    Options
	envRoot string

	pathsMu  sync.Mutex
	paths    map[string]string
	resolved map[string]string

	dictionaries  *cache[*dictionary.Store]
	patterns      *cache[*inflection.Store]
	inflectors    *cache[*inflector.Inflector]
	corpora       *cache[corpusEntry]
	decompounders *cache[*decompound.Decompounder]
}

// New returns a context. The environment override is read here, once.
func New(opts Options) *Context {
	if opts.DefaultRoot == "" {
		opts.DefaultRoot = DefaultRoot
	}
	if opts.EnvVar == "" {
		opts.EnvVar = DefaultEnvVar
	}
	if opts.Tuning.MaxCompoundLength == 0 {
		opts.Tuning = decompound.DefaultTuning()
	}
	opts.DefaultRoot = normalizePath(opts.DefaultRoot)
	c := &Context{
		opts:          opts,
		envRoot:       normalizePath(os.Getenv(opts.EnvVar)),
		paths:         make(map[string]string),
		resolved:      make(map[string]string),
		dictionaries:  newCache[*dictionary.Store](),
		patterns:      newCache[*inflection.Store](),
		inflectors:    newCache[*inflector.Inflector](),
		corpora:       newCache[corpusEntry](),
		decompounders: newCache[*decompound.Decompounder](),
	}
	if c.envRoot != "" {
		log.Debugf("Data root overridden by %s: %s", opts.EnvVar, c.envRoot)
	}
	return c
}

// DictionaryFor returns the dictionary of locale, opening it on first use.
func (c *Context) DictionaryFor(locale string) (*dictionary.Store, error) {
	tag, err := canonical(locale)
	if err != nil {
		return nil, err
	}
	d, _, err := c.dictionary(tag)
	return d, err
}

func (c *Context) dictionary(tag language.Tag) (*dictionary.Store, string, error) {
	path, err := c.locate(tag, DictionaryDir, DictionaryExt)
	if err != nil {
		return nil, "", err
	}
	if d, ok := c.dictionaries.get(path); ok {
		return d, path, nil
	}
	if err := dictionary.ValidateFileFormat(path, dictionary.FormatDictionary); err != nil {
		log.Errorf("Rejected dictionary for %s: %v", tag, err)
		return nil, "", err
	}
	d, err := dictionary.Open(path)
	if err != nil {
		log.Errorf("Failed to load dictionary for %s: %v", tag, err)
		return nil, "", err
	}
	stored, added := c.dictionaries.add(path, d)
	if !added {
		d.Close()
	}
	log.Debugf("Dictionary for %s: %s (%d words)", tag, path, stored.WordCount())
	return stored, path, nil
}

// PatternsFor returns the inflection patterns of locale, bound to the
// dictionary DictionaryFor returns for the same locale.
func (c *Context) PatternsFor(locale string) (*inflection.Store, error) {
	tag, err := canonical(locale)
	if err != nil {
		return nil, err
	}
	p, _, err := c.patternStore(tag)
	return p, err
}

// patternStore returns the patterns of tag and their cache key, which names
// both the pattern file and the dictionary it was bound to.
func (c *Context) patternStore(tag language.Tag) (*inflection.Store, string, error) {
	dict, dictPath, err := c.dictionary(tag)
	if err != nil {
		return nil, "", err
	}
	path, err := c.locate(tag, DictionaryDir, PatternsExt)
	if err != nil {
		return nil, "", err
	}
	key := path + string(filepath.ListSeparator) + dictPath
	if p, ok := c.patterns.get(key); ok {
		return p, key, nil
	}
	if err := dictionary.ValidateFileFormat(path, dictionary.FormatPatterns); err != nil {
		log.Errorf("Rejected inflection patterns for %s: %v", tag, err)
		return nil, "", err
	}
	p, err := inflection.Open(path, dict)
	if err != nil {
		log.Errorf("Failed to load inflection patterns for %s: %v", tag, err)
		return nil, "", err
	}
	stored, added := c.patterns.add(key, p)
	if !added {
		p.Close()
	}
	return stored, key, nil
}

// InflectorFor returns the resolver of locale.
func (c *Context) InflectorFor(locale string) (*inflector.Inflector, error) {
	tag, err := canonical(locale)
	if err != nil {
		return nil, err
	}
	patterns, key, err := c.patternStore(tag)
	if err != nil {
		return nil, err
	}
	if in, ok := c.inflectors.get(key); ok {
		return in, nil
	}
	in, _ := c.inflectors.add(key, inflector.New(patterns.Dictionary(), patterns, c.opts.Inflector))
	return in, nil
}

// DecompounderFor returns the decompounder of locale.
func (c *Context) DecompounderFor(locale string) (*decompound.Decompounder, error) {
	tag, err := canonical(locale)
	if err != nil {
		return nil, err
	}
	path, err := c.locate(tag, TokenizerDir, CorpusExt, CorpusTextExt)
	if err != nil {
		return nil, err
	}
	if d, ok := c.decompounders.get(path); ok {
		return d, nil
	}
	entry, ok := c.corpora.get(path)
	if !ok {
		if entry, err = openCorpus(path); err != nil {
			log.Errorf("Failed to load compound corpus for %s: %v", tag, err)
			return nil, err
		}
		stored, added := c.corpora.add(path, entry)
		if !added && entry.closer != nil {
			entry.closer.Close()
		}
		entry = stored
	}
	d, _ := c.decompounders.add(path, decompound.New(entry.corpus, c.opts.Tuning))
	return d, nil
}

func openCorpus(path string) (corpusEntry, error) {
	if filepath.Ext(path) == CorpusTextExt {
		m, err := decompound.LoadTSVFile(path)
		return corpusEntry{corpus: m}, err
	}
	if err := dictionary.ValidateFileFormat(path, dictionary.FormatCorpus); err != nil {
		return corpusEntry{}, err
	}
	m, err := decompound.OpenCorpus(path)
	if err != nil {
		return corpusEntry{}, err
	}
	return corpusEntry{corpus: m, closer: m}, nil
}

// Close unmaps every file the context opened. The context must not be used afterwards.
func (c *Context) Close() error {
	var errs []error
	for _, p := range c.patterns.values() {
		errs = append(errs, p.Close())
	}
	for _, d := range c.dictionaries.values() {
		errs = append(errs, d.Close())
	}
	for _, e := range c.corpora.values() {
		if e.closer != nil {
			errs = append(errs, e.closer.Close())
		}
	}
	return errors.Join(errs...)
}
