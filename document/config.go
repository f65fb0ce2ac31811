package document

import (
	"bytes"
)

type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

type IndentationStyle string

const (
	IndentationStyleSpace IndentationStyle = "space"
	IndentationStyleTab   IndentationStyle = "tab"
)

func (i IndentationStyle) ToIndent() string {
	switch i {
	case IndentationStyleTab:
		return "\t"
	default:
		return " "
	}
}

// Config controls how a tree is written back out.
type Config struct {
	Indentation      int              // The indentation level of the document
	IndentationStyle IndentationStyle // The indentation style of the document valid for JSON only
	OutputFormat     OutputFormat     // The output format to use when encoding
}

var defaultConfig = Config{
	Indentation:      2,
	IndentationStyle: IndentationStyleSpace,
	OutputFormat:     OutputFormatYAML,
}

func GetDefaultConfig() *Config {
	cfg := defaultConfig
	return &cfg
}

// GetConfigFromData detects the format and indentation of the original document so output can match it.
func GetConfigFromData(data []byte) *Config {
	cfg := defaultConfig
	cfg.OutputFormat, cfg.Indentation, cfg.IndentationStyle = inspectData(data)
	return &cfg
}

func inspectData(data []byte) (OutputFormat, int, IndentationStyle) {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))

	foundIndentation := false
	foundDocFormat := false

	indentation := 2
	indentationStyle := IndentationStyleSpace
	docFormat := OutputFormatYAML

	minLeadingWhitespace := -1

	for i, line := range lines {
		trimLine := bytes.TrimSpace(line)

		if len(trimLine) == 0 {
			continue
		}

		switch trimLine[0] {
		case '#':
			continue
		case '{', '[':
			if !foundDocFormat && i == 0 {
				docFormat = OutputFormatJSON
			}
			foundDocFormat = true
		default:
			currentLeading := 0
			for currentLeading < len(line) && (line[currentLeading] == ' ' || line[currentLeading] == '\t') {
				currentLeading++
			}

			if minLeadingWhitespace == -1 || currentLeading < minLeadingWhitespace {
				minLeadingWhitespace = currentLeading
			}

			if currentLeading > minLeadingWhitespace && !foundIndentation {
				leadingWhitespace := line[minLeadingWhitespace:currentLeading]

				indentationStyle = IndentationStyleSpace
				if leadingWhitespace[0] == '\t' {
					indentationStyle = IndentationStyleTab
				}

				indentation = 0
				for _, ch := range leadingWhitespace {
					if ch != leadingWhitespace[0] {
						break
					}
					indentation++
				}
				foundIndentation = true
			}
		}

		// If we have found everything we need or have iterated too long we can stop
		if foundIndentation && (foundDocFormat || i > 10) {
			break
		}
	}

	return docFormat, indentation, indentationStyle
}
