// Package cli handles cmd line input for trying out lookups, inflection and
// decompounding interactively.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bastiangx/wordforms/internal/utils"
	"github.com/bastiangx/wordforms/pkg/decompound"
	"github.com/bastiangx/wordforms/pkg/engine"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	wordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	typeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	fugeStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("180"))
)

var errUsage = errors.New("usage")

const helpText = `commands:
  lookup <word>                       grammemes and properties
  inflect <word> <req,...> [opt ...]  inflect to the required grammemes
  lemma <word> [attr,...]             lemma of a known word
  split <word>                        compound parts
  types                               grammemes of the dictionary
  locale <locale>                     switch locale
  help`

// InputHandler reads commands line by line and prints the results.
type InputHandler struct {
	engine        *engine.Context
	locale        string
	prompt        string
	showGrammemes bool
	in            io.Reader
	out           io.Writer
}

// NewInputHandler creates a handler for locale reading from in and writing to out.
func NewInputHandler(ctx *engine.Context, locale, prompt string, showGrammemes bool, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		engine:        ctx,
		locale:        locale,
		prompt:        prompt,
		showGrammemes: showGrammemes,
		in:            in,
		out:           out,
	}
}

// Start begins the interface loop. It returns nil when the input ends.
func (h *InputHandler) Start() error {
	log.Print("wordforms CLI", "locale", h.locale)
	log.Print("type help for the commands (Ctrl+C to exit)")
	reader := bufio.NewReader(h.in)
	for {
		fmt.Fprint(h.out, h.prompt)
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if cmdErr := h.Exec(line); cmdErr != nil {
				log.Error(cmdErr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// Exec runs one command line.
func (h *InputHandler) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty command, try help", errUsage)
	}
	cmd, args := fields[0], fields[1:]
	start := time.Now()
	defer func() {
		log.Debugf("%s took %v", cmd, time.Since(start))
	}()

	switch cmd {
	case "help":
		fmt.Fprintln(h.out, helpText)
		return nil
	case "locale":
		if len(args) != 1 {
			return fmt.Errorf("%w: locale <locale>", errUsage)
		}
		if _, err := h.engine.DictionaryFor(args[0]); err != nil {
			return err
		}
		h.locale = args[0]
		return nil
	case "types":
		dict, err := h.engine.DictionaryFor(h.locale)
		if err != nil {
			return err
		}
		fmt.Fprintln(h.out, typeStyle.Render(strings.Join(dict.Types(), " ")))
		return nil
	case "lookup":
		if len(args) != 1 {
			return fmt.Errorf("%w: lookup <word>", errUsage)
		}
		return h.lookup(args[0])
	case "inflect":
		if len(args) < 2 {
			return fmt.Errorf("%w: inflect <word> <req,...> [opt ...]", errUsage)
		}
		return h.inflect(args[0], utils.SplitList(args[1]), args[2:])
	case "lemma":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("%w: lemma <word> [attr,...]", errUsage)
		}
		var attrs []string
		if len(args) == 2 {
			attrs = utils.SplitList(args[1])
		}
		return h.lemma(args[0], attrs)
	case "split":
		if len(args) != 1 {
			return fmt.Errorf("%w: split <word>", errUsage)
		}
		return h.split(args[0])
	}
	return fmt.Errorf("unknown command %q, try help", cmd)
}

func (h *InputHandler) lookup(word string) error {
	dict, err := h.engine.DictionaryFor(h.locale)
	if err != nil {
		return err
	}
	mask, ok := dict.CombinedBinaryType(word)
	if !ok {
		fmt.Fprintf(h.out, "%s: unknown\n", word)
		return nil
	}
	fmt.Fprintf(h.out, "%s: %s\n", wordStyle.Render(word), typeStyle.Render(strings.Join(dict.PropertyNames(mask), " ")))
	props := dict.Properties(word)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(h.out, "  %s = %s\n", name, strings.Join(props[name], ", "))
	}
	return nil
}

func (h *InputHandler) inflect(word string, required, optional []string) error {
	in, err := h.engine.InflectorFor(h.locale)
	if err != nil {
		return err
	}
	result, ok, err := in.InflectNames(word, required, optional, nil)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(h.out, "%s: no form for %s\n", word, strings.Join(required, ","))
		return nil
	}
	fmt.Fprintln(h.out, wordStyle.Render(result))
	if h.showGrammemes {
		dict := in.Dictionary()
		req, _ := dict.BinaryProperties(required)
		for i, c := range in.Candidates(word, 0, req, nil, nil) {
			fmt.Fprintf(h.out, "  %d. %s %s\n", i+1, c.Pattern.Identifier(), typeStyle.Render(strings.Join(dict.PropertyNames(c.Grammemes), " ")))
		}
	}
	return nil
}

func (h *InputHandler) lemma(word string, attrs []string) error {
	in, err := h.engine.InflectorFor(h.locale)
	if err != nil {
		return err
	}
	masks := make([]uint64, 0, len(attrs))
	for _, name := range attrs {
		mask, err := in.Dictionary().BinaryProperties([]string{name})
		if err != nil {
			return err
		}
		masks = append(masks, mask)
	}
	lemma, ok := in.Lemma(word, masks)
	if !ok {
		fmt.Fprintf(h.out, "%s: no lemma\n", word)
		return nil
	}
	fmt.Fprintln(h.out, wordStyle.Render(lemma))
	return nil
}

func (h *InputHandler) split(word string) error {
	d, err := h.engine.DecompounderFor(h.locale)
	if err != nil {
		return err
	}
	parts := make([]string, 0, 4)
	for _, tok := range d.Split(word) {
		if tok.Kind == decompound.Fuge {
			parts = append(parts, fugeStyle.Render(tok.Text))
		} else {
			parts = append(parts, wordStyle.Render(tok.Text))
		}
	}
	fmt.Fprintln(h.out, strings.Join(parts, " | "))
	return nil
}
