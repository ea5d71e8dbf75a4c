// Package report renders scan statistics and detection results as text, JSON
// or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/charsetcop/internal/errors"
	"github.com/conneroisu/charsetcop/internal/scanner"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultListLimit is how many paths of each category the text report shows.
const DefaultListLimit = 10

// Formats lists the accepted format names.
var Formats = []string{string(FormatText), string(FormatJSON), string(FormatYAML)}

// ParseFormat validates a format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", errors.NewConfigError(
			errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unsupported format '%s' (valid: %s)", s, strings.Join(Formats, ", ")),
		)
	}
}

// Detection is the result of searching candidate encodings for one file.
type Detection struct {
	Path     string `json:"path" yaml:"path"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Found    bool   `json:"found" yaml:"found"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Renderer writes reports in one format.
type Renderer interface {
	RenderStatistics(w io.Writer, stats *scanner.Statistics) error
	RenderDetections(w io.Writer, detections []Detection) error
}

// New returns the renderer for format. listLimit only affects text output;
// values below one fall back to DefaultListLimit.
func New(format Format, listLimit int) (Renderer, error) {
	if listLimit < 1 {
		listLimit = DefaultListLimit
	}

	switch format {
	case FormatText, "":
		return &textRenderer{
			printer:   message.NewPrinter(language.English),
			listLimit: listLimit,
		}, nil
	case FormatJSON:
		return jsonRenderer{}, nil
	case FormatYAML:
		return yamlRenderer{}, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, fmt.Sprintf("unsupported format '%s'", format))
	}
}

// summary is the structured form of Statistics.
type summary struct {
	Encoding         string   `json:"encoding" yaml:"encoding"`
	Roots            []string `json:"roots" yaml:"roots"`
	TotalChars       int64    `json:"total_chars" yaml:"total_chars"`
	ValidFiles       int64    `json:"valid_files" yaml:"valid_files"`
	EncodingFailures []string `json:"encoding_failures" yaml:"encoding_failures"`
	Ignored          []string `json:"ignored" yaml:"ignored"`
	SkippedSymlinks  []string `json:"skipped_symlinks,omitempty" yaml:"skipped_symlinks,omitempty"`
	Errors           []string `json:"errors" yaml:"errors"`
	Interrupted      bool     `json:"interrupted" yaml:"interrupted"`
	DurationMillis   int64    `json:"duration_ms" yaml:"duration_ms"`
}

func newSummary(stats *scanner.Statistics) summary {
	s := summary{
		Encoding:         stats.Encoding,
		Roots:            nonNil(stats.Roots),
		TotalChars:       stats.TotalChars,
		ValidFiles:       stats.ValidFiles,
		EncodingFailures: nonNil(stats.EncodingFailures),
		Ignored:          nonNil(stats.Unprocessed),
		Errors:           nonNil(stats.Errors),
		Interrupted:      stats.Interrupted,
		DurationMillis:   stats.Duration.Milliseconds(),
	}
	if stats.SkipSymlinks {
		s.SkippedSymlinks = nonNil(stats.SkippedSymlinks)
	}

	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

type textRenderer struct {
	printer   *message.Printer
	listLimit int
}

func (r *textRenderer) RenderStatistics(w io.Writer, stats *scanner.Statistics) error {
	ew := &errWriter{w: w}

	where := r.printer.Sprintf("%d paths", len(stats.Roots))
	if len(stats.Roots) == 1 {
		where = fmt.Sprintf("'%s'", stats.Roots[0])
	}
	ew.line(r.printer.Sprintf("Total of %d '%s' chars read in %s", stats.TotalChars, stats.Encoding, where))

	ew.line(r.printer.Sprintf("%d %s read as '%s'",
		stats.ValidFiles, plural(int(stats.ValidFiles), "file", "files"), stats.Encoding))

	ew.line(r.printer.Sprintf("%d %s failed encoding check",
		len(stats.EncodingFailures), plural(len(stats.EncodingFailures), "file", "files")))
	r.list(ew, stats.EncodingFailures)

	ew.line(r.printer.Sprintf("%d %s ignored",
		len(stats.Unprocessed), plural(len(stats.Unprocessed), "path", "paths")))
	r.list(ew, stats.Unprocessed)

	if stats.SkipSymlinks {
		ew.line(r.printer.Sprintf("%d symlinks skipped", len(stats.SkippedSymlinks)))
		r.list(ew, stats.SkippedSymlinks)
	}

	ew.line(r.printer.Sprintf("%d errors encountered", len(stats.Errors)))
	r.list(ew, stats.Errors)

	if stats.Interrupted {
		ew.line("interrupted, results are partial")
	}

	ew.line(r.printer.Sprintf("done in %dms", stats.Duration.Milliseconds()))

	return ew.err
}

// list prints up to listLimit paths, then a count of the rest.
func (r *textRenderer) list(ew *errWriter, paths []string) {
	for i, path := range paths {
		if i == r.listLimit {
			ew.line(r.printer.Sprintf("\t... and %d more", len(paths)-r.listLimit))
			return
		}
		ew.line("\t" + path)
	}
}

func (r *textRenderer) RenderDetections(w io.Writer, detections []Detection) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "PATH\tENCODING")
	fmt.Fprintln(tw, "----\t--------")
	for _, d := range detections {
		var result string
		switch {
		case d.Error != "":
			result = "error: " + d.Error
		case d.Found:
			result = d.Encoding
		default:
			result = "no candidate matched"
		}
		fmt.Fprintf(tw, "%s\t%s\n", d.Path, result)
	}

	return tw.Flush()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}

// errWriter remembers the first write error so a report can be written
// without checking every line.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) line(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s+"\n")
}

type jsonRenderer struct{}

func (jsonRenderer) RenderStatistics(w io.Writer, stats *scanner.Statistics) error {
	return encodeJSON(w, newSummary(stats))
}

func (jsonRenderer) RenderDetections(w io.Writer, detections []Detection) error {
	if detections == nil {
		detections = []Detection{}
	}

	return encodeJSON(w, detections)
}

func encodeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

type yamlRenderer struct{}

func (yamlRenderer) RenderStatistics(w io.Writer, stats *scanner.Statistics) error {
	return encodeYAML(w, newSummary(stats))
}

func (yamlRenderer) RenderDetections(w io.Writer, detections []Detection) error {
	if detections == nil {
		detections = []Detection{}
	}

	return encodeYAML(w, detections)
}

func encodeYAML(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}

	return encoder.Close()
}
