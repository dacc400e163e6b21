// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command wfbuild compiles TOML sources into the data files read by wordforms.
//
//	wfbuild -o /usr/share/wordforms de.toml en.toml
//	wfbuild -inspect /usr/share/wordforms/dictionary/de.wfd
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bastiangx/wordforms/pkg/compile"
	"github.com/bastiangx/wordforms/pkg/dictionary"
	"github.com/charmbracelet/log"
)

func main() {
	outDir := flag.String("o", "data", "Output data root")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	inspect := flag.Bool("inspect", false, "Report the format of existing data files instead of building")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wfbuild [-o dir] [-d] source.toml... | wfbuild -inspect file...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debugMode {
		log.SetLevel(log.DebugLevel)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		if *inspect {
			format, err := dictionary.DetectFileFormat(path)
			if err != nil {
				log.Error("unknown file", "path", path, "err", err)
				failed = true
				continue
			}
			info, _ := dictionary.GetFormatInfo(format)
			log.Info(path, "format", format, "extensions", info.Extensions)
			continue
		}
		if err := build(path, *outDir); err != nil {
			log.Error("build failed", "source", path, "err", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func build(path, outDir string) error {
	src, err := compile.LoadFile(path)
	if err != nil {
		return err
	}
	res, err := compile.Build(src)
	if err != nil {
		return err
	}
	written, err := compile.WriteFiles(res, outDir)
	if err != nil {
		return err
	}
	log.Info("built", "language", res.Language, "words", res.Words, "files", len(written))
	return nil
}
