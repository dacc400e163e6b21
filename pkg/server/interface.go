/*
Package server implements msgpack IPC for the wordforms queries.

Clients write msgpack maps to stdin and read one msgpack map per request from
stdout. Logs go to stderr. Every request carries an ID, echoed in its
response, and an op:

	{"id": "1", "op": "lookup", "loc": "de", "w": "Türen"}
	{"id": "2", "op": "inflect", "loc": "de", "w": "Tür", "r": ["plural"]}
	{"id": "3", "op": "decompound", "loc": "de", "w": "Türschloss"}
	{"id": "4", "op": "lemma", "loc": "de", "w": "Türen"}
	{"id": "5", "op": "properties", "loc": "de"}
	{"id": "6", "op": "health"}

When "loc" is omitted the configured default locale is used.

Responses:

	{"id": "1", "k": true, "g": ["feminine", "noun", "plural"], "p": {...}, "t": 12}
	{"id": "2", "w": "Türen", "f": true, "t": 31}
	{"id": "3", "b": [4], "s": [{"w": "Tür", "k": "head"}, {"w": "schloss", "k": "tail"}], "t": 20}

A failed request gets an error response instead:

	{"id": "2", "e": "dictionary: unknown property: plurall", "c": 422}

Times are in microseconds.
*/
package server

// Op names.
const (
	OpLookup     = "lookup"
	OpInflect    = "inflect"
	OpDecompound = "decompound"
	OpLemma      = "lemma"
	OpProperties = "properties"
	OpHealth     = "health"
)

// Error codes.
const (
	CodeBadRequest      = 400
	CodeUnsupported     = 404
	CodeUnknownGrammeme = 422
	CodeInternal        = 500
)

// Request is any client message. Fields not used by an op are ignored.
type Request struct {
	ID     string `msgpack:"id"`
	Op     string `msgpack:"op"`
	Locale string `msgpack:"loc,omitempty"`
	Word   string `msgpack:"w,omitempty"`
	// Required grammemes for inflect, lemma attributes for lemma.
	Required       []string `msgpack:"r,omitempty"`
	Optional       []string `msgpack:"o,omitempty"`
	Disambiguation []string `msgpack:"d,omitempty"`
}

// LookupResponse describes a word in the dictionary.
type LookupResponse struct {
	ID         string              `msgpack:"id"`
	Known      bool                `msgpack:"k"`
	Grammemes  []string            `msgpack:"g"`
	Properties map[string][]string `msgpack:"p,omitempty"`
	TimeTaken  int64               `msgpack:"t"`
}

// InflectResponse carries the inflected form. Found is false when no form
// satisfied the request.
type InflectResponse struct {
	ID        string `msgpack:"id"`
	Word      string `msgpack:"w"`
	Found     bool   `msgpack:"f"`
	TimeTaken int64  `msgpack:"t"`
}

// Part is one token of a split word.
type Part struct {
	Word string `msgpack:"w"`
	Kind string `msgpack:"k"`
}

// DecompoundResponse lists the byte offsets between parts and the parts.
type DecompoundResponse struct {
	ID         string `msgpack:"id"`
	Boundaries []int  `msgpack:"b"`
	Parts      []Part `msgpack:"s"`
	TimeTaken  int64  `msgpack:"t"`
}

// PropertiesResponse lists the grammeme names of a dictionary in bit order.
type PropertiesResponse struct {
	ID       string   `msgpack:"id"`
	Language string   `msgpack:"lang"`
	Types    []string `msgpack:"g"`
	Words    int      `msgpack:"n"`
}

// HealthResponse reports readiness and the locales found under the data root.
type HealthResponse struct {
	ID      string   `msgpack:"id"`
	Status  string   `msgpack:"status"`
	Locales []string `msgpack:"locales,omitempty"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
