// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the wordforms IPC server and its debugging CLI.

wordforms answers morphological queries: grammemes and properties of a word,
inflection to a set of grammemes, lemmas, and compound splitting. Data files
are memory-mapped on first use per locale and shared by every request.

# Usage

Start the server with default settings:

	wordforms

Use a data root and enable debug mode:

	wordforms -data /path/to/data -d

Run in CLI mode for interactive testing:

	wordforms -c -locale de

The data root holds one set of files per language:

	dictionary/de.wfd   dictionary
	dictionary/de.wfp   inflection patterns
	tokenizer/de.wfc    compound corpus

Build them with wfbuild. WORDFORMS_DATA_ROOT, when set, overrides every root.

# Configuration

Runtime configuration lives in a TOML file created with defaults on first run:

	[engine]
	data_root = "/usr/share/wordforms"
	default_locale = "de"
	enable_dictionary_fallback = false

	[engine.paths]
	en = "/opt/wordforms-en"

	[decompound]
	max_compound_length = 20
	min_score = 100.0

	[server]
	max_word_length = 64

# IPC Protocol

The server speaks MessagePack over stdin/stdout, one response per request:

	{"id": "1", "op": "inflect", "loc": "de", "w": "Tür", "r": ["plural"]}
	{"id": "1", "w": "Türen", "f": true, "t": 31}

See package server for every op. Logs go to stderr.

# Command Line Flags

	-data string
	    Data root (default from config)
	-config string
	    Config file path
	-locale string
	    Default locale (default from config)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-rebuild-config
	    Overwrite the default config file with built-in defaults and exit
	-version
	    Show current version
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/wordforms/internal/cli"
	"github.com/bastiangx/wordforms/internal/utils"
	"github.com/bastiangx/wordforms/pkg/config"
	"github.com/bastiangx/wordforms/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0"
	AppName = "wordforms"
	gh      = "https://github.com/bastiangx/wordforms"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, engine and the chosen front end; it holds no logic of its own.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "", "Data root holding dictionary/ and tokenizer/")
	configPath := flag.String("config", "", "Path to config.toml")
	locale := flag.String("locale", "", "Default locale")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	rebuildConfig := flag.Bool("rebuild-config", false, "Overwrite the default config.toml with defaults and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *rebuildConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		log.Print("Rebuilt config", "path", config.GetActiveConfigPath(""))
		os.Exit(0)
	}

	cfg, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))

	if *dataDir != "" {
		resolved := *dataDir
		if pathResolver, err := utils.NewPathResolver(); err == nil {
			if found := pathResolver.GetDataDir(*dataDir); found != "" {
				resolved = found
			}
		}
		cfg.Engine.DataRoot = resolved
	}
	if *locale != "" {
		cfg.Engine.DefaultLocale = *locale
	}

	ctx, err := cfg.NewEngine()
	if err != nil {
		log.Fatalf("Failed to init engine: %v", err)
	}
	defer ctx.Close()
	if root, err := ctx.DataPath(cfg.Engine.DefaultLocale); err == nil {
		log.Debugf("Data root for %s: %s", cfg.Engine.DefaultLocale, root)
	}

	// CLI is mainly used for testing; new features should be tried there first.
	if *cliMode {
		log.SetReportTimestamp(false)
		inputHandler := cli.NewInputHandler(ctx, cfg.Engine.DefaultLocale, cfg.CLI.Prompt, cfg.CLI.ShowGrammemes, os.Stdin, os.Stdout)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(ctx, cfg, os.Stdin, os.Stdout)
	showStartupInfo(cfg.Engine.DefaultLocale, ctx.AvailableLocales())
	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ wordforms ] Inflects, lemmatises and splits words")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo prints basic info about the init process to stderr.
func showStartupInfo(locale string, locales []string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Info("default locale", "locale", locale, "available", locales)
	log.Info("status: ready")
}
