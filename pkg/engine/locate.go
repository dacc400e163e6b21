package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// Data layout under a root directory.
const (
	DictionaryDir = "dictionary"
	TokenizerDir  = "tokenizer"

	DictionaryExt = ".wfd"
	PatternsExt   = ".wfp"
	CorpusExt     = ".wfc"
	CorpusTextExt = ".tsv"
)

var (
	// ErrConflictingPath is returned when a locale already has another data path.
	ErrConflictingPath = errors.New("engine: conflicting data path")
	// ErrUnsupportedLocale is returned when no data exists for a locale.
	ErrUnsupportedLocale = errors.New("engine: unsupported locale")
)

// canonical parses a locale identifier such as "de_CH" or "en-US".
func canonical(locale string) (language.Tag, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if err != nil || tag == language.Und {
		return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
	return tag, nil
}

// fallbacks lists the tags tried for a locale, most specific first.
func fallbacks(tag language.Tag) []string {
	keys := []string{tag.String()}
	base, _ := tag.Base()
	if b := base.String(); b != keys[0] {
		keys = append(keys, b)
	}
	return keys
}

// normalizePath strips a file URL scheme and cleans the path.
func normalizePath(path string) string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "file://")
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

// RegisterDataPath binds locale to a data root. Registering the same root
// again is a no-op; a different root is an error.
func (c *Context) RegisterDataPath(locale, path string) error {
	tag, err := canonical(locale)
	if err != nil {
		return err
	}
	path = normalizePath(path)
	if path == "" {
		return fmt.Errorf("engine: empty data path for %s", tag)
	}
	key := tag.String()

	c.pathsMu.Lock()
	defer c.pathsMu.Unlock()
	if existing, ok := c.paths[key]; ok {
		if existing == path {
			return nil
		}
		return fmt.Errorf("%w: %s is bound to %s, not %s", ErrConflictingPath, key, existing, path)
	}
	c.paths[key] = path
	clear(c.resolved)
	return nil
}

// DataPath returns the root directory consulted for locale: the environment
// override, then the registered path, then the default root.
func (c *Context) DataPath(locale string) (string, error) {
	tag, err := canonical(locale)
	if err != nil {
		return "", err
	}
	return c.root(fallbacks(tag)), nil
}

func (c *Context) root(keys []string) string {
	if c.envRoot != "" {
		return c.envRoot
	}
	c.pathsMu.Lock()
	defer c.pathsMu.Unlock()
	for _, k := range keys {
		if p, ok := c.paths[k]; ok {
			return p
		}
	}
	return c.opts.DefaultRoot
}

// locate finds the first existing file root/dir/<key><ext>, trying the
// locale fallbacks in order under the root chosen for the locale. Hits are
// remembered until the next registration.
func (c *Context) locate(tag language.Tag, dir string, exts ...string) (string, error) {
	id := dir + "/" + tag.String() + strings.Join(exts, "")
	c.pathsMu.Lock()
	p, ok := c.resolved[id]
	c.pathsMu.Unlock()
	if ok {
		return p, nil
	}

	keys := fallbacks(tag)
	root := c.root(keys)
	for _, k := range keys {
		for _, ext := range exts {
			p := filepath.Join(root, dir, k+ext)
			if _, err := os.Stat(p); err == nil {
				c.pathsMu.Lock()
				c.resolved[id] = p
				c.pathsMu.Unlock()
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no %s data for %s under %s", ErrUnsupportedLocale, dir, tag, root)
}

// AvailableLocales lists the locales with a dictionary under the default
// root, or under the environment override when it is set.
func (c *Context) AvailableLocales() []string {
	root := c.envRoot
	if root == "" {
		root = c.opts.DefaultRoot
	}
	matches, _ := filepath.Glob(filepath.Join(root, DictionaryDir, "*"+DictionaryExt))
	locales := make([]string, 0, len(matches))
	for _, m := range matches {
		locales = append(locales, strings.TrimSuffix(filepath.Base(m), DictionaryExt))
	}
	return locales
}
