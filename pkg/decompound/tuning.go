package decompound

// FugeElements lists the linking elements that may join two compound parts,
// written in reading order.
type FugeElements struct {
	// Positive elements are stripped when the remaining root is more frequent.
	Positive []string `toml:"positive"`
	// Replaceable elements may stand in for one of Replacements.
	Replaceable  []string `toml:"replaceable"`
	Replacements []string `toml:"replacements"`
	// Negative elements were dropped from the root and are tried appended back.
	Negative []string `toml:"negative"`
}

// Tuning holds the thresholds of the decompounder. The defaults are empirical;
// change them as tuning, not as fixes.
type Tuning struct {
	MaxInputLength                  int     `toml:"max_input_length"`
	MaxCompoundLength               int     `toml:"max_compound_length"`
	MaxDepth                        int     `toml:"max_depth"`
	MinCandidateLength              int     `toml:"min_candidate_length"`
	MinSegmentLength                int     `toml:"min_segment_length"`
	ExpectedSegmentLength           int     `toml:"expected_segment_length"`
	MinFrequency                    float64 `toml:"min_frequency"`
	MinFrequenciesDiff              float64 `toml:"min_frequencies_diff"`
	MaxReplacementFreq              float64 `toml:"max_replacement_freq"`
	MaxCompoundFreq                 float64 `toml:"max_compound_freq"`
	MinScore                        float64 `toml:"min_score"`
	FallbackFreq                    float64 `toml:"fallback_freq"`
	UpperMinScoreRatio              float64 `toml:"upper_min_score_ratio"`
	LowerMinScoreRatio              float64 `toml:"lower_min_score_ratio"`
	MinCompoundLengthForCredibility int     `toml:"min_compound_length_for_credibility"`
	// MaxVisits bounds the partial parses explored for one word. A word that
	// exceeds it is left unsplit. 0 removes the bound.
	MaxVisits int `toml:"max_visits"`
	// CacheSize is the number of split results kept; 0 disables the cache.
	CacheSize int          `toml:"cache_size"`
	Fuges     FugeElements `toml:"fuges"`
}

// Credibility bounds used while pruning.
const (
	lowerMinCredibility = 0
	upperMinCredibility = 3
	minCredibilityDiff  = 3
)

// DefaultTuning returns the thresholds tuned for German.
func DefaultTuning() Tuning {
	return Tuning{
		MaxInputLength:                  64,
		MaxCompoundLength:               20,
		MaxDepth:                        10,
		MinCandidateLength:              3,
		MinSegmentLength:                3,
		ExpectedSegmentLength:           4,
		MinFrequency:                    4,
		MinFrequenciesDiff:              2,
		MaxReplacementFreq:              200,
		MaxCompoundFreq:                 1_000_000,
		MinScore:                        100,
		FallbackFreq:                    0.1,
		UpperMinScoreRatio:              3,
		LowerMinScoreRatio:              1.5,
		MinCompoundLengthForCredibility: 10,
		MaxVisits:                       5_000,
		CacheSize:                       10_000,
		Fuges: FugeElements{
			Positive:     []string{"s", "es", "n", "en", "er", "e", "ens", "nen"},
			Replaceable:  []string{"s"},
			Replacements: []string{"e"},
			Negative:     []string{"e", "en"},
		},
	}
}
