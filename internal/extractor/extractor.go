// Package extractor walks an opened document's object graph into an
// intermediate extraction tree. Failures are contained per unit: a bad
// shape or slide becomes an error-tagged placeholder at its source
// position and every other unit still runs.
package extractor

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/anlaklab/simple-luna-sub003/internal/engine"
	"github.com/anlaklab/simple-luna-sub003/internal/schema"
)

// Tree is the intermediate output of one extraction run. It reuses the
// universal schema node types but is not yet a UniversalDocument; the
// builder assembles and defaults it.
type Tree struct {
	SourcePath   string
	Properties   engine.RawProperties
	SlideSize    schema.SlideSize
	Slides       []schema.Slide
	MasterSlides []schema.TemplateSlide
	LayoutSlides []schema.TemplateSlide
	Theme        *schema.Theme
}

// Report summarizes one extraction run for statistics and logging.
type Report struct {
	SlideCount   int
	SlidesFailed int
	ShapeCount   int
	ShapesFailed int
	DurationMS   int64
}

type Extractor struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract walks every slide of the graph, with no slide-count ceiling.
func (e *Extractor) Extract(doc engine.Document, sourcePath string) (*Tree, *Report) {
	start := time.Now()
	graph := doc.Graph()

	tree := &Tree{
		SourcePath: sourcePath,
		Properties: graph.Properties,
		SlideSize: schema.SlideSize{
			Width:  graph.SlideSize.Width,
			Height: graph.SlideSize.Height,
			Type:   graph.SlideSize.Type,
		},
		Slides:       make([]schema.Slide, 0, len(graph.Slides)),
		MasterSlides: extractTemplates(graph.Masters),
		LayoutSlides: extractTemplates(graph.Layouts),
		Theme:        extractTheme(graph.Theme),
	}

	report := &Report{SlideCount: len(graph.Slides)}
	for index, raw := range graph.Slides {
		slide := e.extractSlide(index, raw, report)
		tree.Slides = append(tree.Slides, slide)
	}

	report.DurationMS = time.Since(start).Milliseconds()
	if e.logger != nil {
		e.logger.Printf(
			"extraction finished source=%s slides=%d slides_failed=%d shapes=%d shapes_failed=%d duration_ms=%d",
			sourcePath,
			report.SlideCount,
			report.SlidesFailed,
			report.ShapeCount,
			report.ShapesFailed,
			report.DurationMS,
		)
	}
	return tree, report
}

func (e *Extractor) extractSlide(index int, raw engine.RawSlide, report *Report) schema.Slide {
	start := time.Now()

	slide := schema.Slide{
		SlideIndex: index,
		SlideID:    raw.ID,
		Name:       raw.Name,
		SlideType:  raw.Type,
		Shapes:     make([]schema.Shape, 0, len(raw.Shapes)),
		Notes:      raw.Notes,
		Transition: raw.Transition,
		Background: extractBackground(raw.Background),
	}

	if raw.Error != "" {
		report.SlidesFailed++
		slide.ErrorMessage = raw.Error
		slide.Shapes = []schema.Shape{}
		slide.Processing = &schema.SlideProcessing{
			DurationMS: time.Since(start).Milliseconds(),
		}
		if e.logger != nil {
			e.logger.Printf("slide extraction failed slide=%d: %s", index, raw.Error)
		}
		return slide
	}

	failed := 0
	for shapeIndex, rawShape := range raw.Shapes {
		report.ShapeCount++
		shape, err := extractShape(shapeIndex, rawShape)
		if err != nil {
			report.ShapesFailed++
			failed++
			shape = placeholderShape(shapeIndex, rawShape, err)
			if e.logger != nil {
				e.logger.Printf("shape extraction failed slide=%d shape=%d: %v", index, shapeIndex, err)
			}
		}
		slide.Shapes = append(slide.Shapes, shape)
	}

	slide.Processing = &schema.SlideProcessing{
		DurationMS:   time.Since(start).Milliseconds(),
		ShapeCount:   len(slide.Shapes),
		ShapesFailed: failed,
	}
	return slide
}

func extractShape(index int, raw engine.RawShape) (schema.Shape, error) {
	if raw.Error != "" {
		return schema.Shape{}, fmt.Errorf("engine marked shape failed: %s", raw.Error)
	}

	shape := schema.Shape{
		ShapeIndex: index,
		ShapeType:  normalizeShapeType(raw.Type),
		Name:       raw.Name,
	}
	if raw.Geometry != nil {
		shape.Geometry = schema.Geometry{
			X:        raw.Geometry.X,
			Y:        raw.Geometry.Y,
			Width:    raw.Geometry.Width,
			Height:   raw.Geometry.Height,
			Rotation: raw.Geometry.Rotation,
		}
	}
	shape.Text = extractText(raw.Text)
	if raw.Fill != nil {
		shape.FillFormat = &schema.FillFormat{Type: raw.Fill.Type, Color: raw.Fill.Color}
	}
	if raw.Line != nil {
		shape.LineFormat = &schema.LineFormat{Width: raw.Line.Width, Color: raw.Line.Color, Style: raw.Line.Style}
	}
	if raw.Effects != nil {
		shape.EffectFormat = &schema.EffectFormat{
			Shadow:     raw.Effects.Shadow,
			Glow:       raw.Effects.Glow,
			Reflection: raw.Effects.Reflection,
		}
	}

	if err := decodePayload(&shape, raw.Payload); err != nil {
		return schema.Shape{}, err
	}
	return shape, nil
}

// decodePayload fills the type-specific variant selected by the shape
// type tag. Payloads are optional for every type.
func decodePayload(shape *schema.Shape, payload json.RawMessage) error {
	if len(payload) == 0 {
		return nil
	}

	switch shape.ShapeType {
	case schema.ShapeTable:
		var properties schema.TableProperties
		if err := json.Unmarshal(payload, &properties); err != nil {
			return fmt.Errorf("decode table payload: %w", err)
		}
		shape.TableProperties = &properties
	case schema.ShapeChart:
		var properties schema.ChartProperties
		if err := json.Unmarshal(payload, &properties); err != nil {
			return fmt.Errorf("decode chart payload: %w", err)
		}
		shape.ChartProperties = &properties
	case schema.ShapePicture, schema.ShapeVideo, schema.ShapeAudio:
		var properties schema.PictureProperties
		if err := json.Unmarshal(payload, &properties); err != nil {
			return fmt.Errorf("decode media payload: %w", err)
		}
		shape.PictureProperties = &properties
	default:
		// Other shape types carry no structured payload; verify it is
		// at least well-formed JSON so corruption is surfaced here.
		var probe any
		if err := json.Unmarshal(payload, &probe); err != nil {
			return fmt.Errorf("decode shape payload: %w", err)
		}
	}
	return nil
}

func placeholderShape(index int, raw engine.RawShape, err error) schema.Shape {
	return schema.Shape{
		ShapeIndex:   index,
		ShapeType:    normalizeShapeType(raw.Type),
		Name:         raw.Name,
		ErrorMessage: err.Error(),
	}
}

func normalizeShapeType(value string) schema.ShapeType {
	for _, known := range schema.ShapeTypes {
		if value == known {
			return schema.ShapeType(value)
		}
	}
	return schema.ShapeUnknown
}

func extractText(raw *engine.RawText) *schema.TextContent {
	if raw == nil {
		return nil
	}
	text := &schema.TextContent{
		Content:    raw.Content,
		Paragraphs: make([]schema.Paragraph, 0, len(raw.Paragraphs)),
	}
	for _, paragraph := range raw.Paragraphs {
		portions := make([]schema.Portion, 0, len(paragraph.Portions))
		for _, portion := range paragraph.Portions {
			portions = append(portions, schema.Portion{
				Text:     portion.Text,
				FontName: portion.FontName,
				FontSize: portion.FontSize,
				Bold:     portion.Bold,
				Italic:   portion.Italic,
				Color:    portion.Color,
			})
		}
		text.Paragraphs = append(text.Paragraphs, schema.Paragraph{Portions: portions})
	}
	return text
}

func extractBackground(raw *engine.RawFill) schema.Background {
	if raw == nil {
		return schema.Background{}
	}
	return schema.Background{Type: raw.Type, Color: raw.Color}
}

func extractTemplates(raw []engine.RawTemplate) []schema.TemplateSlide {
	templates := make([]schema.TemplateSlide, 0, len(raw))
	for _, template := range raw {
		templates = append(templates, schema.TemplateSlide{
			Name:       template.Name,
			ShapeCount: template.ShapeCount,
		})
	}
	return templates
}

func extractTheme(raw *engine.RawTheme) *schema.Theme {
	if raw == nil {
		return nil
	}
	return &schema.Theme{
		Name:        raw.Name,
		ColorScheme: raw.ColorScheme,
		FontScheme:  raw.FontScheme,
	}
}
