// Package loader reads dataset files into tabular descriptions. Formats are
// selected through an explicit registry keyed by file extension; the built-in
// providers cover CSV/TSV, YAML/JSON, flat XML and Markdown tables.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	dbfixture "github.com/shibukawa/dbfixture"
)

// NullToken is the literal cell content representing SQL NULL in formats that
// cannot express null natively.
const NullToken = "[null]"

// Provider parses one dataset file format.
type Provider interface {
	// Extensions returns the lowercase file extensions (dot included) the
	// provider handles.
	Extensions() []string
	// Parse reads a dataset. name is the source file's base name without
	// extension; formats without embedded table names use it as the table
	// name.
	Parse(r io.Reader, name string) (*dbfixture.TableSet, error)
}

var registry = map[string]Provider{}

// Register adds a provider for its extensions, replacing earlier
// registrations. Call it during program initialization; the registry is not
// synchronized.
func Register(p Provider) {
	for _, ext := range p.Extensions() {
		registry[strings.ToLower(ext)] = p
	}
}

// Lookup returns the provider registered for an extension.
func Lookup(ext string) (Provider, bool) {
	p, ok := registry[strings.ToLower(ext)]
	return p, ok
}

func init() {
	Register(CSV{Comma: ','})
	Register(TSV{})
	Register(YAML{})
	Register(FlatXML{})
	Register(Markdown{})
}

type options struct {
	charset string
}

// Option adjusts file loading.
type Option func(*options)

// WithCharset decodes files from the named character set (as registered in
// the WHATWG encoding index, e.g. "shift_jis") before parsing. An empty name
// or "utf-8" reads files as-is.
func WithCharset(name string) Option {
	return func(o *options) {
		o.charset = name
	}
}

// LoadFile reads one dataset file, choosing the format by extension.
func LoadFile(path string, opts ...Option) (*dbfixture.TableSet, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ext := strings.ToLower(filepath.Ext(path))

	provider, ok := Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", dbfixture.ErrUnknownFormat, ext, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	reader, err := decodeReader(file, o.charset)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), ext)

	set, err := provider.Parse(reader, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return set, nil
}

// LoadFiles reads several dataset files and merges them under the given
// strategy in argument order.
func LoadFiles(paths []string, strategy dbfixture.MergeStrategy, opts ...Option) (*dbfixture.TableSet, error) {
	sources := make([]*dbfixture.TableSet, 0, len(paths))

	for _, path := range paths {
		set, err := LoadFile(path, opts...)
		if err != nil {
			return nil, err
		}

		sources = append(sources, set)
	}

	return dbfixture.Merge(sources, strategy)
}

func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return r, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", dbfixture.ErrUnknownCharset, charset)
	}

	return transform.NewReader(r, enc.NewDecoder()), nil
}

// parseCell converts raw text from formats without native typing. The NULL
// token becomes nil, booleans and numbers get their native types, quoted text
// unwraps to the literal string, everything else stays a string. Bracketed
// tokens other than the NULL token are kept verbatim so downstream matcher
// cells survive parsing.
func parseCell(raw string) any {
	value := strings.TrimSpace(raw)

	if value == NullToken {
		return nil
	}

	// Try boolean
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}

	// Try integer
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}

	// Try float
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	// Remove quotes if present
	if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
		(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
		return strings.Trim(value, "\"'")
	}

	// Default to string
	return value
}
