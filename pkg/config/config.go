/*
Package config manages the TOML config for wordforms services.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/wordforms/internal/utils"
	"github.com/bastiangx/wordforms/pkg/decompound"
	"github.com/bastiangx/wordforms/pkg/engine"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Engine     EngineConfig      `toml:"engine"`
	Decompound decompound.Tuning `toml:"decompound"`
	Server     ServerConfig      `toml:"server"`
	CLI        CliConfig         `toml:"cli"`
}

// EngineConfig holds data location and resolver options.
type EngineConfig struct {
	// DataRoot is the default root; empty means the platform default.
	DataRoot string `toml:"data_root"`
	// Paths binds single locales to their own data roots.
	Paths                    map[string]string `toml:"paths"`
	DefaultLocale            string            `toml:"default_locale"`
	EnableDictionaryFallback bool              `toml:"enable_dictionary_fallback"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxWordLength int `toml:"max_word_length"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	Prompt        string `toml:"prompt"`
	ShowGrammemes bool   `toml:"show_grammemes"`
}

// ConfigFileName is the name of the config file inside the config directory.
const ConfigFileName = "config.toml"

// GetDefaultConfigPath returns the default path for config.toml with fallback priority:
// 1. the platform config dir ($XDG_CONFIG_HOME/wordforms, ~/.config/wordforms, %APPDATA%\wordforms)
// 2. ~/.wordforms
// 3. the temp dir
// 4. the executable dir
func GetDefaultConfigPath() (string, error) {
	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Errorf("Failed to resolve config location: %v", err)
		return "", err
	}
	return pathResolver.GetConfigPath(ConfigFileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wordforms/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DataRoot:      engine.DefaultRoot,
			Paths:         map[string]string{},
			DefaultLocale: "de",
		},
		Decompound: decompound.DefaultTuning(),
		Server: ServerConfig{
			MaxWordLength: 64,
		},
		CLI: CliConfig{
			Prompt:        "wordforms> ",
			ShowGrammemes: true,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value of a file whose full decode failed
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(section, &config.Engine)
	}
	if section, ok := utils.ExtractSection(tempConfig, "decompound"); ok {
		extractTuning(section, &config.Decompound)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractEngineConfig(data map[string]any, e *EngineConfig) {
	if val, ok := utils.ExtractString(data, "data_root"); ok {
		e.DataRoot = val
	}
	if val, ok := utils.ExtractStringMap(data, "paths"); ok {
		e.Paths = val
	}
	if val, ok := utils.ExtractString(data, "default_locale"); ok {
		e.DefaultLocale = val
	}
	if val, ok := utils.ExtractBool(data, "enable_dictionary_fallback"); ok {
		e.EnableDictionaryFallback = val
	}
}

func extractTuning(data map[string]any, t *decompound.Tuning) {
	ints := map[string]*int{
		"max_input_length":                    &t.MaxInputLength,
		"max_compound_length":                 &t.MaxCompoundLength,
		"max_depth":                           &t.MaxDepth,
		"min_candidate_length":                &t.MinCandidateLength,
		"min_segment_length":                  &t.MinSegmentLength,
		"expected_segment_length":             &t.ExpectedSegmentLength,
		"min_compound_length_for_credibility": &t.MinCompoundLengthForCredibility,
		"max_visits":                          &t.MaxVisits,
		"cache_size":                          &t.CacheSize,
	}
	for key, dst := range ints {
		if val, ok := utils.ExtractInt64(data, key); ok {
			*dst = val
		}
	}
	floats := map[string]*float64{
		"min_frequency":         &t.MinFrequency,
		"min_frequencies_diff":  &t.MinFrequenciesDiff,
		"max_replacement_freq":  &t.MaxReplacementFreq,
		"max_compound_freq":     &t.MaxCompoundFreq,
		"min_score":             &t.MinScore,
		"fallback_freq":         &t.FallbackFreq,
		"upper_min_score_ratio": &t.UpperMinScoreRatio,
		"lower_min_score_ratio": &t.LowerMinScoreRatio,
	}
	for key, dst := range floats {
		if val, ok := utils.ExtractFloat(data, key); ok {
			*dst = val
		}
	}
	if fuges, ok := utils.ExtractSection(data, "fuges"); ok {
		lists := map[string]*[]string{
			"positive":     &t.Fuges.Positive,
			"replaceable":  &t.Fuges.Replaceable,
			"replacements": &t.Fuges.Replacements,
			"negative":     &t.Fuges.Negative,
		}
		for key, dst := range lists {
			if val, ok := utils.ExtractStrings(fuges, key); ok {
				*dst = val
			}
		}
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_word_length"); ok {
		server.MaxWordLength = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractString(data, "prompt"); ok {
		cli.Prompt = val
	}
	if val, ok := utils.ExtractBool(data, "show_grammemes"); ok {
		cli.ShowGrammemes = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// EngineOptions converts the config into options for engine.New.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	if c.Engine.DataRoot != "" {
		opts.DefaultRoot = c.Engine.DataRoot
	}
	opts.Inflector.EnableDictionaryFallback = c.Engine.EnableDictionaryFallback
	opts.Tuning = c.Decompound
	return opts
}

// NewEngine builds an engine context and registers the configured per-locale paths.
func (c *Config) NewEngine() (*engine.Context, error) {
	ctx := engine.New(c.EngineOptions())
	for locale, path := range c.Engine.Paths {
		if err := ctx.RegisterDataPath(locale, path); err != nil {
			ctx.Close()
			return nil, err
		}
	}
	return ctx, nil
}
