package io

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/nav"
	"github.com/matzehuels/drilldown/pkg/observability"
)

// Format is a document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks a format from a file extension. Unknown extensions mean
// JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported format %q (want json or yaml)", s)
}

// Info is the document's title and subtitle.
type Info struct {
	Title    string
	Subtitle string
}

// Serializer exports and imports the live document: the navigation stack's
// root, the group registry and the document info.
//
// Import is all-or-nothing. The payload is decoded completely before
// anything is touched, so a rejected payload leaves the live document as it
// was.
type Serializer struct {
	Groups   *groups.Registry
	Stack    *nav.Stack
	Hydrator nav.Hydrator
	Info     Info

	// Now returns the export time. Defaults to time.Now.
	Now    func() time.Time
	Logger *log.Logger
}

// NewSerializer returns a serializer over the given document parts.
func NewSerializer(reg *groups.Registry, stack *nav.Stack, h nav.Hydrator, logger *log.Logger) *Serializer {
	if logger == nil {
		logger = log.Default()
	}
	return &Serializer{Groups: reg, Stack: stack, Hydrator: h, Now: time.Now, Logger: logger}
}

func (s *Serializer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// =============================================================================
// Export
// =============================================================================

// Export snapshots the document. The returned package shares the live graph
// tree; encode it before editing further.
func (s *Serializer) Export() Package {
	legend := make(map[string]LegendEntry, s.Groups.Len())
	for _, g := range s.Groups.All() {
		legend[g.Key] = legendEntry(g)
	}
	title := s.Info.Title
	if title == "" {
		title = DefaultTitle
	}
	return Package{
		Metadata: Metadata{
			Title:           title,
			Subtitle:        s.Info.Subtitle,
			Legend:          legend,
			ExportTimestamp: s.now().UTC().Format(TimestampFormat),
		},
		Data: s.Stack.Root(),
	}
}

// Marshal encodes the exported document in the given format.
func (s *Serializer) Marshal(f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Write(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes the exported document to w.
func (s *Serializer) Write(w io.Writer, f Format) error {
	data, err := encodeJSON(s.Export())
	if err != nil {
		return err
	}
	if f == FormatYAML {
		if data, err = jsonToYAML(data); err != nil {
			return err
		}
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write document")
	}
	observability.Editor().OnExport(string(f), len(data))
	return nil
}

// ExportFile writes the document to path, choosing the format from the
// extension.
func (s *Serializer) ExportFile(path string) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	data, err := s.Marshal(FormatFor(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

// Filename returns a download-safe file name for the document.
func (s *Serializer) Filename(f Format) string {
	title := s.Info.Title
	if title == "" {
		title = DefaultTitle
	}
	return Filename(title, s.now(), f)
}

var unsafeRun = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds "<title>_<YYYY-MM-DD>.<ext>" from a document title. The
// title is lowercased, runs of other characters become underscores and the
// result is cut to 50 characters. An empty result becomes "graph".
func Filename(title string, at time.Time, f Format) string {
	name := unsafeRun.ReplaceAllString(strings.ToLower(title), "_")
	name = strings.Trim(name, "_")
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "graph"
	}
	ext := "json"
	if f == FormatYAML {
		ext = "yaml"
	}
	return fmt.Sprintf("%s_%s.%s", name, at.UTC().Format("2006-01-02"), ext)
}

// =============================================================================
// Import
// =============================================================================

// Import decodes a document in the given format and makes it the live
// document: legend entries are merged into the registry, the graph tree is
// hydrated and the navigation stack is reset to the new root.
func (s *Serializer) Import(data []byte, f Format) (*Decoded, error) {
	d, err := s.decode(data, f)
	observability.Editor().OnImport(string(f), err)
	if err != nil {
		return nil, err
	}
	s.Apply(&d.Package)
	s.Logger.Debug("document imported", "shape", d.Shape, "title", d.Package.Metadata.Title)
	return d, nil
}

func (s *Serializer) decode(data []byte, f Format) (*Decoded, error) {
	if f == FormatYAML {
		var err error
		if data, err = yamlToJSON(data); err != nil {
			return nil, err
		}
	}
	return Decode(data)
}

// Read reads a whole document from r and imports it.
func (s *Serializer) Read(r io.Reader, f Format) (*Decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read document")
	}
	return s.Import(data, f)
}

// ImportFile reads path and imports it, choosing the format from the
// extension. Cancelling ctx abandons the import before the document is
// touched.
func (s *Serializer) ImportFile(ctx context.Context, path string) (*Decoded, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Import(data, FormatFor(path))
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- result{data, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			if os.IsNotExist(r.err) {
				return nil, errors.Wrap(errors.ErrCodeNotFound, r.err, "read %s", path)
			}
			return nil, errors.Wrap(errors.ErrCodeIO, r.err, "read %s", path)
		}
		return r.data, nil
	}
}

// Apply makes a decoded package the live document.
func (s *Serializer) Apply(pkg *Package) {
	s.MergeLegend(pkg.Metadata.Legend)
	if pkg.Metadata.Title != "" {
		s.Info.Title = pkg.Metadata.Title
	}
	if pkg.Metadata.Subtitle != "" {
		s.Info.Subtitle = pkg.Metadata.Subtitle
	}
	if s.Hydrator != nil {
		s.Hydrator.Hydrate(pkg.Data)
	}
	s.Stack.Reset(pkg.Data)
}

// MergeLegend updates groups that exist and defines the rest.
func (s *Serializer) MergeLegend(legend map[string]LegendEntry) {
	for key, entry := range legend {
		if s.Groups.Has(key) {
			s.Groups.Update(key, entry.patch())
			continue
		}
		s.Groups.Define(key, entry.props())
	}
}

// =============================================================================
// Encoding
// =============================================================================

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	return buf.Bytes(), nil
}

// YAML documents are converted through JSON so that one set of struct tags
// and legacy decoders serves both formats.

func jsonToYAML(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "re-decode document")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	return buf.Bytes(), nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "document is not valid YAML")
	}
	out, err := json.Marshal(jsonCompatible(v))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "document cannot be represented as JSON")
	}
	return out, nil
}

// jsonCompatible rewrites map[any]any, which YAML produces for non-string
// keys, into map[string]any.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = jsonCompatible(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = jsonCompatible(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = jsonCompatible(e)
		}
		return t
	default:
		return v
	}
}
