// Package parser turns uploaded model files into streaming element sources.
package parser

import (
	"context"
	"io"

	"takeoff-service/internal/models"
)

// DefaultChunkSize is the number of elements per chunk when none is set.
const DefaultChunkSize = 256

// Object is one entry of the model's object graph.
type Object struct {
	ID         int            `json:"id"`
	Type       int            `json:"type"`
	Name       string         `json:"name,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Document is the interchange format: the object graph, the aggregation and
// containment relations, and the element geometry.
type Document struct {
	Schema       string              `json:"schema,omitempty"`
	Root         int                 `json:"root,omitempty"`
	Objects      []Object            `json:"objects"`
	Aggregates   []models.Relation   `json:"aggregates"`
	Containments []models.Relation   `json:"containments"`
	Elements     []models.RawElement `json:"elements"`
}

// Model is a parsed document served as a chunked element stream.
type Model struct {
	doc       *Document
	objects   map[int]*Object
	chunkSize int
	pos       int
	closed    bool
}

// NewModel indexes a decoded document.
func NewModel(doc *Document) *Model {
	m := &Model{
		doc:       doc,
		objects:   make(map[int]*Object, len(doc.Objects)),
		chunkSize: DefaultChunkSize,
	}
	for i := range doc.Objects {
		o := &doc.Objects[i]
		m.objects[o.ID] = o
	}
	return m
}

// SetChunkSize bounds the number of elements returned by each Next call.
func (m *Model) SetChunkSize(n int) {
	if n > 0 {
		m.chunkSize = n
	}
}

// Next returns the next chunk of elements, or io.EOF when the stream is done.
func (m *Model) Next(ctx context.Context) (models.ElementChunk, error) {
	if err := ctx.Err(); err != nil {
		return models.ElementChunk{}, err
	}
	if m.closed || m.pos >= len(m.doc.Elements) {
		return models.ElementChunk{}, io.EOF
	}
	end := m.pos + m.chunkSize
	if end > len(m.doc.Elements) {
		end = len(m.doc.Elements)
	}
	chunk := models.ElementChunk{Elements: m.doc.Elements[m.pos:end]}
	m.pos = end
	return chunk, nil
}

// Relations returns the relation tables and the root id. Without an explicit
// root the first project object is used.
func (m *Model) Relations() models.Relations {
	root := m.doc.Root
	if root == 0 {
		for _, o := range m.doc.Objects {
			if o.Type == models.TypeProject {
				root = o.ID
				break
			}
		}
	}
	return models.Relations{
		Aggregates:   m.doc.Aggregates,
		Containments: m.doc.Containments,
		RootID:       root,
	}
}

// Lookup resolves the name and type of an object.
func (m *Model) Lookup(id int) (string, int, bool) {
	o, ok := m.objects[id]
	if !ok {
		return "", 0, false
	}
	return o.Name, o.Type, true
}

// Properties returns the raw property bag of an object.
func (m *Model) Properties(id int) (map[string]any, bool) {
	o, ok := m.objects[id]
	if !ok || len(o.Properties) == 0 {
		return nil, false
	}
	return o.Properties, true
}

// ElementCount returns the number of raw elements in the document.
func (m *Model) ElementCount() int {
	return len(m.doc.Elements)
}

func (m *Model) Close() error {
	m.closed = true
	return nil
}
