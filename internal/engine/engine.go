// Package engine wraps the external document engine behind a narrow
// contract. The engine parses and renders the native presentation format;
// this package only transports its object graph and render output.
package engine

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptDocument   = errors.New("document is corrupt")
	ErrUnavailable       = errors.New("document engine unavailable")
)

// Engine opens documents and builds them back from universal schema JSON.
// A Document must never be shared across concurrent jobs: each job opens,
// uses, and closes its own handle.
type Engine interface {
	Open(ctx context.Context, filePath string) (Document, error)
	Build(ctx context.Context, document json.RawMessage) ([]byte, error)
}

// Document is an opened presentation handle. Close is mandatory on every
// exit path to release engine-side resources.
type Document interface {
	Graph() *RawPresentation
	Render(ctx context.Context, opts RenderOptions) ([]Asset, error)
	Close(ctx context.Context) error
}

type RenderOptions struct {
	Format string `json:"format"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type Asset struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// RawPresentation is the engine's object graph as returned by Open. Shape
// payloads stay raw JSON until the extractor decodes them per shape type,
// so one malformed node cannot fail the whole graph.
type RawPresentation struct {
	Properties RawProperties `json:"properties"`
	SlideSize  RawSlideSize  `json:"slideSize"`
	Slides     []RawSlide    `json:"slides"`
	Masters    []RawTemplate `json:"masters"`
	Layouts    []RawTemplate `json:"layouts"`
	Theme      *RawTheme     `json:"theme,omitempty"`
}

type RawProperties struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Company   string `json:"company"`
	Subject   string `json:"subject"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type RawSlideSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Type   string  `json:"type"`
}

type RawSlide struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Shapes     []RawShape `json:"shapes"`
	Background *RawFill   `json:"background,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Transition string     `json:"transition,omitempty"`
	// Error is set by the engine when it could not read this slide.
	Error string `json:"error,omitempty"`
}

type RawShape struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Geometry *RawGeometry    `json:"geometry,omitempty"`
	Text     *RawText        `json:"text,omitempty"`
	Fill     *RawFill        `json:"fill,omitempty"`
	Line     *RawLine        `json:"line,omitempty"`
	Effects  *RawEffects     `json:"effects,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type RawGeometry struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

type RawText struct {
	Content    string         `json:"content"`
	Paragraphs []RawParagraph `json:"paragraphs,omitempty"`
}

type RawParagraph struct {
	Portions []RawPortion `json:"portions,omitempty"`
}

type RawPortion struct {
	Text     string  `json:"text"`
	FontName string  `json:"fontName,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Bold     bool    `json:"bold,omitempty"`
	Italic   bool    `json:"italic,omitempty"`
	Color    string  `json:"color,omitempty"`
}

type RawFill struct {
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

type RawLine struct {
	Width float64 `json:"width"`
	Color string  `json:"color,omitempty"`
	Style string  `json:"style,omitempty"`
}

type RawEffects struct {
	Shadow     bool `json:"shadow"`
	Glow       bool `json:"glow"`
	Reflection bool `json:"reflection"`
}

type RawTemplate struct {
	Name       string `json:"name"`
	ShapeCount int    `json:"shapeCount"`
}

type RawTheme struct {
	Name        string            `json:"name"`
	ColorScheme map[string]string `json:"colorScheme,omitempty"`
	FontScheme  map[string]string `json:"fontScheme,omitempty"`
}
