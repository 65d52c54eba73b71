// Package xlate implements the property-driven text translation spec.md
// §4.5 step 4 calls for when installing a file's working text: keyword
// substitution (driven by the svn:keywords property) and end-of-line
// translation (driven by svn:eol-style). The pristine text base is always
// stored untranslated; translation only ever applies on the way to the
// working file and is reversed on the way back in (detranslate).
//
// No example repository in the pack carries a keyword-expansion or
// EOL-translation library (see DESIGN.md): this is built on regexp, bytes
// and strings from the standard library.
package xlate

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// EOLStyle names the svn:eol-style values spec.md's GLOSSARY lists.
type EOLStyle int

const (
	// EOLStyleNone means no EOL translation: bytes pass through as-is.
	EOLStyleNone EOLStyle = iota
	EOLStyleNative
	EOLStyleLF
	EOLStyleCR
	EOLStyleCRLF
)

// ParseEOLStyle parses the raw svn:eol-style property value.
func ParseEOLStyle(value string) (EOLStyle, error) {
	switch value {
	case "":
		return EOLStyleNone, nil
	case "native":
		return EOLStyleNative, nil
	case "LF":
		return EOLStyleLF, nil
	case "CR":
		return EOLStyleCR, nil
	case "CRLF":
		return EOLStyleCRLF, nil
	default:
		return EOLStyleNone, fmt.Errorf("xlate: unrecognized svn:eol-style %q", value)
	}
}

func (s EOLStyle) eol(nativeEOL string) string {
	switch s {
	case EOLStyleNative:
		return nativeEOL
	case EOLStyleLF:
		return "\n"
	case EOLStyleCR:
		return "\r"
	case EOLStyleCRLF:
		return "\r\n"
	default:
		return ""
	}
}

// KeywordValues supplies the substitution text for each recognized keyword,
// computed by the caller from the node's committed revision/date/author/URL
// (spec.md §4.5 step 2: "sync'd from the entry's last-changed info").
type KeywordValues struct {
	Revision    string
	Date        time.Time
	Author      string
	URL         string
	Path        string
	RepoRoot    string
	FixedLength int // not read by DefaultTranslator: keywords always expand to variable length
}

// keyword aliases recognized in svn:keywords, mapped to the canonical name
// used when rendering $Name: value $.
var keywordAliases = map[string]string{
	"LastChangedRevision": "LastChangedRevision",
	"Rev":                 "LastChangedRevision",
	"Revision":            "LastChangedRevision",
	"LastChangedDate":     "LastChangedDate",
	"Date":                "LastChangedDate",
	"LastChangedBy":       "LastChangedBy",
	"Author":              "LastChangedBy",
	"HeadURL":             "HeadURL",
	"URL":                 "HeadURL",
	"Id":                  "Id",
	"Header":              "Header",
}

// Config is the set of keywords this Translator should expand, parsed from
// svn:keywords, plus the EOL style parsed from svn:eol-style.
type Config struct {
	EOL      EOLStyle
	Keywords map[string]bool // canonical keyword name -> enabled
}

// ParseKeywords parses a whitespace-separated svn:keywords property value.
func ParseKeywords(value string) map[string]bool {
	keywords := make(map[string]bool)
	for _, field := range strings.Fields(value) {
		if canonical, ok := keywordAliases[field]; ok {
			keywords[canonical] = true
		}
	}
	return keywords
}

var keywordPattern = regexp.MustCompile(`\$([A-Za-z]+)(:[^$\n]*)?\$`)

// Translator expands keywords and translates line endings when checking a
// pristine text base out to the working file (Translate), and reverses both
// operations when reading a working file back in for comparison against the
// pristine (Detranslate).
type Translator interface {
	Translate(nativeEOL string, values KeywordValues, cfg Config, src io.Reader, dst io.Writer) error
	Detranslate(cfg Config, src io.Reader, dst io.Writer) error
}

// DefaultTranslator is the reference Translator implementation.
type DefaultTranslator struct{}

// NewDefaultTranslator constructs the default translator.
func NewDefaultTranslator() *DefaultTranslator {
	return &DefaultTranslator{}
}

func (DefaultTranslator) Translate(nativeEOL string, values KeywordValues, cfg Config, src io.Reader, dst io.Writer) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("xlate: read source: %w", err)
	}

	if len(cfg.Keywords) > 0 {
		data = expandKeywords(data, values, cfg.Keywords)
	}

	if cfg.EOL != EOLStyleNone {
		data = translateEOL(data, cfg.EOL.eol(nativeEOL))
	}

	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("xlate: write translated output: %w", err)
	}
	return nil
}

func (DefaultTranslator) Detranslate(cfg Config, src io.Reader, dst io.Writer) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("xlate: read source: %w", err)
	}

	if cfg.EOL != EOLStyleNone {
		data = normalizeEOLToLF(data)
	}

	if len(cfg.Keywords) > 0 {
		data = contractKeywords(data, cfg.Keywords)
	}

	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("xlate: write detranslated output: %w", err)
	}
	return nil
}

func expandKeywords(data []byte, values KeywordValues, enabled map[string]bool) []byte {
	return keywordPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		groups := keywordPattern.FindSubmatch(match)
		name := string(groups[1])
		canonical, ok := keywordAliases[name]
		if !ok || !enabled[canonical] {
			return match
		}
		return []byte(fmt.Sprintf("$%s: %s $", name, renderKeyword(canonical, values)))
	})
}

func contractKeywords(data []byte, enabled map[string]bool) []byte {
	return keywordPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		groups := keywordPattern.FindSubmatch(match)
		name := string(groups[1])
		canonical, ok := keywordAliases[name]
		if !ok || !enabled[canonical] {
			return match
		}
		return []byte(fmt.Sprintf("$%s$", name))
	})
}

func renderKeyword(canonical string, v KeywordValues) string {
	switch canonical {
	case "LastChangedRevision":
		return v.Revision
	case "LastChangedDate":
		if v.Date.IsZero() {
			return ""
		}
		return v.Date.UTC().Format("2006-01-02 15:04:05 -0700 (Mon, 02 Jan 2006)")
	case "LastChangedBy":
		return v.Author
	case "HeadURL":
		return v.URL
	case "Id":
		return fmt.Sprintf("%s %s %s %s", v.Path, v.Revision, dateOrEmpty(v.Date), v.Author)
	case "Header":
		return fmt.Sprintf("%s/%s %s %s %s", v.RepoRoot, v.Path, v.Revision, dateOrEmpty(v.Date), v.Author)
	default:
		return ""
	}
}

func dateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func translateEOL(data []byte, eol string) []byte {
	normalized := normalizeEOLToLF(data)
	if eol == "\n" {
		return normalized
	}
	return bytes.ReplaceAll(normalized, []byte("\n"), []byte(eol))
}

func normalizeEOLToLF(data []byte) []byte {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	return data
}
