package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/wordforms/internal/logger"
	"github.com/bastiangx/wordforms/internal/utils"
	"github.com/bastiangx/wordforms/pkg/config"
	"github.com/bastiangx/wordforms/pkg/dictionary"
	"github.com/bastiangx/wordforms/pkg/engine"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server answers msgpack requests against an engine context.
type Server struct {
	engine        *engine.Context
	defaultLocale string
	maxWordLength int

	reader *bufio.Reader
	writer *bufio.Writer
	dec    *msgpack.Decoder
	enc    *msgpack.Encoder
	log    *log.Logger
}

// NewServer creates a server reading requests from r and writing responses to w.
func NewServer(ctx *engine.Context, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)
	return &Server{
		engine:        ctx,
		defaultLocale: cfg.Engine.DefaultLocale,
		maxWordLength: cfg.Server.MaxWordLength,
		reader:        reader,
		writer:        writer,
		dec:           msgpack.NewDecoder(reader),
		enc:           msgpack.NewEncoder(writer),
		log:           logger.New("server"),
	}
}

// Start serves requests until the input ends. A malformed message ends the
// stream, since msgpack has no framing to resynchronise on.
func (s *Server) Start() error {
	s.log.Debug("Starting server")
	if err := s.send(HealthResponse{Status: "ready"}); err != nil {
		return err
	}
	for {
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			s.send(ErrorResponse{Error: "invalid msgpack request", Code: CodeBadRequest})
			return err
		}
		if err := s.send(s.Handle(req)); err != nil {
			return err
		}
	}
}

func (s *Server) send(resp any) error {
	if err := s.enc.Encode(resp); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return err
	}
	return s.writer.Flush()
}

// Handle answers one request.
func (s *Server) Handle(req Request) any {
	start := time.Now()
	locale := req.Locale
	if locale == "" {
		locale = s.defaultLocale
	}
	s.log.Debug("request", "id", req.ID, "op", req.Op, "loc", locale, "w", req.Word)

	switch req.Op {
	case OpHealth:
		return HealthResponse{ID: req.ID, Status: "ok", Locales: s.engine.AvailableLocales()}
	case OpProperties:
		dict, err := s.engine.DictionaryFor(locale)
		if err != nil {
			return s.fail(req.ID, err)
		}
		return PropertiesResponse{ID: req.ID, Language: dict.Language(), Types: dict.Types(), Words: dict.WordCount()}
	case OpLookup, OpInflect, OpDecompound, OpLemma:
	default:
		return ErrorResponse{ID: req.ID, Error: fmt.Sprintf("unknown op: %q", req.Op), Code: CodeBadRequest}
	}

	if !utils.IsValidWord(req.Word, s.maxWordLength) {
		return ErrorResponse{ID: req.ID, Error: fmt.Sprintf("invalid word: %q", req.Word), Code: CodeBadRequest}
	}

	switch req.Op {
	case OpLookup:
		dict, err := s.engine.DictionaryFor(locale)
		if err != nil {
			return s.fail(req.ID, err)
		}
		resp := LookupResponse{ID: req.ID, Grammemes: []string{}}
		if mask, ok := dict.CombinedBinaryType(req.Word); ok {
			resp.Known = true
			resp.Grammemes = dict.PropertyNames(mask)
			if props := dict.Properties(req.Word); len(props) > 0 {
				resp.Properties = props
			}
		}
		resp.TimeTaken = time.Since(start).Microseconds()
		return resp

	case OpInflect:
		in, err := s.engine.InflectorFor(locale)
		if err != nil {
			return s.fail(req.ID, err)
		}
		word, found, err := in.InflectNames(req.Word, req.Required, req.Optional, req.Disambiguation)
		if err != nil {
			return s.fail(req.ID, err)
		}
		return InflectResponse{ID: req.ID, Word: word, Found: found, TimeTaken: time.Since(start).Microseconds()}

	case OpLemma:
		in, err := s.engine.InflectorFor(locale)
		if err != nil {
			return s.fail(req.ID, err)
		}
		attrs, err := lemmaAttributes(in.Dictionary(), req.Required)
		if err != nil {
			return s.fail(req.ID, err)
		}
		word, found := in.Lemma(req.Word, attrs)
		return InflectResponse{ID: req.ID, Word: word, Found: found, TimeTaken: time.Since(start).Microseconds()}

	default:
		d, err := s.engine.DecompounderFor(locale)
		if err != nil {
			return s.fail(req.ID, err)
		}
		resp := DecompoundResponse{
			ID:         req.ID,
			Boundaries: d.Decompound(req.Word, 0, len(req.Word)),
		}
		if resp.Boundaries == nil {
			resp.Boundaries = []int{}
		}
		for _, tok := range d.Split(req.Word) {
			resp.Parts = append(resp.Parts, Part{Word: tok.Text, Kind: tok.Kind.String()})
		}
		resp.TimeTaken = time.Since(start).Microseconds()
		return resp
	}
}

// lemmaAttributes turns grammeme names into one mask per name, keeping
// their order of importance.
func lemmaAttributes(dict *dictionary.Store, names []string) ([]uint64, error) {
	attrs := make([]uint64, 0, len(names))
	for _, name := range names {
		mask, err := dict.BinaryProperties([]string{name})
		if err != nil {
			return nil, err
		}
		if mask != 0 {
			attrs = append(attrs, mask)
		}
	}
	return attrs, nil
}

func (s *Server) fail(id string, err error) ErrorResponse {
	code := CodeInternal
	switch {
	case errors.Is(err, engine.ErrUnsupportedLocale):
		code = CodeUnsupported
	case errors.Is(err, dictionary.ErrUnknownProperty):
		code = CodeUnknownGrammeme
	default:
		s.log.Errorf("Request %s failed: %v", id, err)
	}
	return ErrorResponse{ID: id, Error: err.Error(), Code: code}
}
