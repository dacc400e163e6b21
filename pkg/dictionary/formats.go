package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/wordforms/pkg/mapped"
	"github.com/charmbracelet/log"
)

// FileFormat represents the data files served by the engine
type FileFormat int

const (
	FormatUnknown    FileFormat = iota
	FormatDictionary            // Mapped word dictionary
	FormatPatterns              // Mapped inflection patterns
	FormatCorpus                // Mapped decompounding corpus
	FormatCorpusText            // Tab separated decompounding corpus
)

// Magic markers opening each mapped file.
const (
	DictionaryMagic = "WFDICT\x00\x01"
	PatternsMagic   = "WFPATT\x00\x01"
	CorpusMagic     = "WFCORP\x00\x01"
)

// FormatInfo contains metadata about a data file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	Magic       string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatDictionary: {
		Format:      FormatDictionary,
		Description: "Mapped Dictionary",
		Extensions:  []string{".wfd"},
		Magic:       DictionaryMagic,
		MinSize:     headerSize,
	},
	FormatPatterns: {
		Format:      FormatPatterns,
		Description: "Mapped Inflection Patterns",
		Extensions:  []string{".wfp"},
		Magic:       PatternsMagic,
		MinSize:     mapped.MagicLen + 8,
	},
	FormatCorpus: {
		Format:      FormatCorpus,
		Description: "Mapped Decompounding Corpus",
		Extensions:  []string{".wfc"},
		Magic:       CorpusMagic,
		MinSize:     mapped.MagicLen + 8,
	},
	FormatCorpusText: {
		Format:      FormatCorpusText,
		Description: "Tab Separated Decompounding Corpus",
		Extensions:  []string{".tsv"},
		MinSize:     1,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "Unknown"
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	validExt := false
	for _, validExtension := range formatInfo.Extensions {
		if ext == validExtension {
			validExt = true
			break
		}
	}
	if !validExt {
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	if formatInfo.Magic == "" {
		return nil
	}
	magic, err := readMagic(filename)
	if err != nil {
		return err
	}
	if magic != formatInfo.Magic {
		return fmt.Errorf("%w: %s is not a %s", mapped.ErrInvalidMagic, filename, formatInfo.Description)
	}
	log.Debugf("File %s validated as %s", filename, formatInfo.Description)
	return nil
}

func readMagic(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	buf := make([]byte, mapped.MagicLen)
	if _, err := file.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	return mapped.PeekMagic(buf), nil
}

// DetectFileFormat attempts to detect the format of a file
func DetectFileFormat(filename string) (FileFormat, error) {
	for _, format := range []FileFormat{FormatDictionary, FormatPatterns, FormatCorpus, FormatCorpusText} {
		if err := ValidateFileFormat(filename, format); err == nil {
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}
