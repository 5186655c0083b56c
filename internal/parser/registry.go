package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"takeoff-service/internal/extraction"
)

// ErrUnsupported is returned for files no registered parser accepts.
var ErrUnsupported = errors.New("unsupported model format")

// ParseFunc decodes the full contents of one model file.
type ParseFunc func(data []byte) (*Model, error)

var archiveExts = map[string]struct{}{
	".zip":    {},
	".ifczip": {},
}

// Registry maps lower-case file extensions to parsers.
type Registry struct {
	mu         sync.RWMutex
	parsers    map[string]ParseFunc
	maxExtract int64
}

// NewRegistry returns a registry with the interchange JSON parser installed.
// maxExtract caps the extracted size of archive uploads.
func NewRegistry(maxExtract int64) *Registry {
	r := &Registry{
		parsers:    make(map[string]ParseFunc),
		maxExtract: maxExtract,
	}
	r.Register(".json", ParseInterchange)
	return r
}

// Register installs a parser for an extension such as ".json".
func (r *Registry) Register(ext string, fn ParseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[strings.ToLower(ext)] = fn
}

// Extensions lists every accepted extension, archives included.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.parsers)+len(archiveExts))
	for ext := range r.parsers {
		out = append(out, ext)
	}
	for ext := range archiveExts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether a file name has an accepted extension.
func (r *Registry) Supports(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := archiveExts[ext]; ok {
		return true
	}
	return r.parser(ext) != nil
}

func (r *Registry) parser(ext string) ParseFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parsers[ext]
}

// Open parses a file by its extension. Archives are extracted and the first
// entry with a registered extension is parsed.
func (r *Registry) Open(ctx context.Context, name string, data []byte) (*Model, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := archiveExts[ext]; ok {
		return r.openArchive(ctx, name, data)
	}
	fn := r.parser(ext)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
	return fn(data)
}

func (r *Registry) openArchive(ctx context.Context, name string, data []byte) (*Model, error) {
	keep := func(entry string) bool {
		return r.parser(strings.ToLower(filepath.Ext(entry))) != nil
	}
	files, dir, err := extraction.ExtractBytes(ctx, name, data, keep, r.maxExtract)
	if err != nil {
		return nil, errors.Wrapf(err, "extract %s", name)
	}
	defer os.RemoveAll(dir)

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %q contains no model", ErrUnsupported, name)
	}
	body, err := os.ReadFile(files[0])
	if err != nil {
		return nil, err
	}
	return r.parser(strings.ToLower(filepath.Ext(files[0])))(body)
}

// ParseInterchange decodes the JSON interchange format.
func ParseInterchange(data []byte) (*Model, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode interchange document")
	}
	if len(doc.Objects) == 0 && len(doc.Elements) == 0 {
		return nil, errors.New("interchange document is empty")
	}
	return NewModel(&doc), nil
}
