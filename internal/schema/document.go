// Package schema defines the Universal Schema document model, the builder
// that assembles it from extraction output, and the definition-driven
// validator with deterministic auto-fix.
package schema

import "time"

const Version = "1.0"

// UniversalDocument is the normalized, versioned representation of a
// presentation, independent of the source binary format. A conversion run
// always produces a fresh tree; documents are never mutated across runs.
type UniversalDocument struct {
	ID           string              `json:"id"`
	Metadata     DocumentMetadata    `json:"metadata"`
	SlideSize    SlideSize           `json:"slideSize"`
	Slides       []Slide             `json:"slides"`
	MasterSlides []TemplateSlide     `json:"masterSlides"`
	LayoutSlides []TemplateSlide     `json:"layoutSlides"`
	Theme        Theme               `json:"theme"`
	Conversion   *ConversionMetadata `json:"conversionMetadata,omitempty"`
}

type DocumentMetadata struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Company    string `json:"company"`
	Subject    string `json:"subject,omitempty"`
	SlideCount int    `json:"slideCount"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

type SlideSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Type   string  `json:"type"`
}

// TemplateSlide summarizes a master or layout slide; templates are not
// fully materialized in the universal document.
type TemplateSlide struct {
	Name       string `json:"name"`
	ShapeCount int    `json:"shapeCount"`
}

type Theme struct {
	Name        string            `json:"name"`
	ColorScheme map[string]string `json:"colorScheme"`
	FontScheme  map[string]string `json:"fontScheme"`
}

type Slide struct {
	SlideIndex int              `json:"slideIndex"`
	SlideID    string           `json:"slideId"`
	Name       string           `json:"name"`
	SlideType  string           `json:"slideType"`
	Shapes     []Shape          `json:"shapes"`
	Background Background       `json:"background"`
	Notes      string           `json:"notes"`
	Transition string           `json:"transition"`
	Processing *SlideProcessing `json:"processingMetadata,omitempty"`
	// ErrorMessage marks a slide whose extraction failed; the placeholder
	// still occupies its source position so sibling slides are unaffected.
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func (s *Slide) Failed() bool {
	return s.ErrorMessage != ""
}

type SlideProcessing struct {
	DurationMS   int64 `json:"durationMs"`
	ShapeCount   int   `json:"shapeCount"`
	ShapesFailed int   `json:"shapesFailed"`
}

type Background struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

type ShapeType string

const (
	ShapeTextBox   ShapeType = "textBox"
	ShapeAutoShape ShapeType = "autoShape"
	ShapeChart     ShapeType = "chart"
	ShapeTable     ShapeType = "table"
	ShapePicture   ShapeType = "picture"
	ShapeVideo     ShapeType = "video"
	ShapeAudio     ShapeType = "audio"
	ShapeGroup     ShapeType = "group"
	ShapeConnector ShapeType = "connector"
	ShapeSmartArt  ShapeType = "smartArt"
	ShapeUnknown   ShapeType = "unknown"
)

// ShapeTypes lists every allowed shapeType value, in schema order.
var ShapeTypes = []string{
	string(ShapeTextBox),
	string(ShapeAutoShape),
	string(ShapeChart),
	string(ShapeTable),
	string(ShapePicture),
	string(ShapeVideo),
	string(ShapeAudio),
	string(ShapeGroup),
	string(ShapeConnector),
	string(ShapeSmartArt),
	string(ShapeUnknown),
}

// Shape is a tagged union: ShapeType selects which of the optional
// per-type payloads is populated; the base fields are always present.
type Shape struct {
	ID         string    `json:"id,omitempty"`
	ShapeIndex int       `json:"shapeIndex"`
	ShapeType  ShapeType `json:"shapeType"`
	Name       string    `json:"name"`
	Geometry   Geometry  `json:"geometry"`

	Text         *TextContent  `json:"text,omitempty"`
	FillFormat   *FillFormat   `json:"fillFormat,omitempty"`
	LineFormat   *LineFormat   `json:"lineFormat,omitempty"`
	EffectFormat *EffectFormat `json:"effectFormat,omitempty"`

	TableProperties   *TableProperties   `json:"tableProperties,omitempty"`
	ChartProperties   *ChartProperties   `json:"chartProperties,omitempty"`
	PictureProperties *PictureProperties `json:"pictureProperties,omitempty"`

	Enrichment *ShapeEnrichment `json:"enrichment,omitempty"`

	// ErrorMessage marks a shape whose extraction failed. Enrichment
	// failures are recorded on Enrichment.Metadata instead.
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func (s *Shape) Failed() bool {
	return s.ErrorMessage != ""
}

type Geometry struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

type TextContent struct {
	Content    string      `json:"content"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

type Paragraph struct {
	Portions []Portion `json:"portions"`
}

type Portion struct {
	Text     string  `json:"text"`
	FontName string  `json:"fontName,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Bold     bool    `json:"bold,omitempty"`
	Italic   bool    `json:"italic,omitempty"`
	Color    string  `json:"color,omitempty"`
}

type FillFormat struct {
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

type LineFormat struct {
	Width float64 `json:"width"`
	Color string  `json:"color,omitempty"`
	Style string  `json:"style,omitempty"`
}

type EffectFormat struct {
	Shadow     bool `json:"shadow"`
	Glow       bool `json:"glow"`
	Reflection bool `json:"reflection"`
}

type TableProperties struct {
	Rows    int  `json:"rows"`
	Columns int  `json:"columns"`
	Header  bool `json:"header"`
}

type ChartProperties struct {
	ChartType   string `json:"chartType"`
	SeriesCount int    `json:"seriesCount"`
	HasLegend   bool   `json:"hasLegend"`
}

type PictureProperties struct {
	ContentType string `json:"contentType"`
	WidthPx     int    `json:"widthPx"`
	HeightPx    int    `json:"heightPx"`
}

// ShapeEnrichment holds derived fields computed after extraction. Original
// extracted fields are never overwritten; everything derived lives here.
type ShapeEnrichment struct {
	Text     *TextMetrics       `json:"textMetrics,omitempty"`
	Geometry *GeometryMetrics   `json:"geometryMetrics,omitempty"`
	Color    *ColorInfo         `json:"colorInfo,omitempty"`
	Category *CategoryInfo      `json:"category,omitempty"`
	Metadata EnrichmentMetadata `json:"metadata"`
}

type EnrichmentMetadata struct {
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error,omitempty"`
}

type TextMetrics struct {
	WordCount       int     `json:"wordCount"`
	CharCount       int     `json:"charCount"`
	ParagraphCount  int     `json:"paragraphCount"`
	LineCount       int     `json:"lineCount"`
	IsEmpty         bool    `json:"isEmpty"`
	Language        string  `json:"language"`
	DominantFont    string  `json:"dominantFont"`
	AverageFontSize float64 `json:"averageFontSize"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

type GeometryMetrics struct {
	Center      Point       `json:"center"`
	Area        float64     `json:"area"`
	AspectRatio float64     `json:"aspectRatio"`
	Position    string      `json:"position"`
	Size        string      `json:"size"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

type ColorInfo struct {
	FillColor string `json:"fillColor"`
	IsDark    bool   `json:"isDark"`
	Family    string `json:"family"`
}

type CategoryInfo struct {
	Category   string `json:"category"`
	Complexity string `json:"complexity"`
	Importance string `json:"importance"`
	Decorative bool   `json:"decorative,omitempty"`
}

// ConversionMetadata is attached once at build time and never updated.
type ConversionMetadata struct {
	SchemaVersion string          `json:"schemaVersion"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	DurationMS    int64           `json:"durationMs"`
	Stats         ProcessingStats `json:"processingStats"`
}

// ProcessingStats is derived purely from the error markers left by the
// extractor and enricher; the builder never re-walks the source document.
type ProcessingStats struct {
	TotalSlides        int     `json:"totalSlides"`
	SuccessfulSlides   int     `json:"successfulSlides"`
	FailedSlides       int     `json:"failedSlides"`
	TotalShapes        int     `json:"totalShapes"`
	SuccessfulShapes   int     `json:"successfulShapes"`
	FailedShapes       int     `json:"failedShapes"`
	AvgShapesPerSlide  float64 `json:"avgShapesPerSlide"`
	AvgSlideDurationMS float64 `json:"avgSlideDurationMs"`
	SlideSuccessRate   float64 `json:"slideSuccessRate"`
	ShapeSuccessRate   float64 `json:"shapeSuccessRate"`
}
