package schema

import (
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
)

const (
	defaultTitle  = "Untitled Presentation"
	defaultAuthor = "Unknown"

	defaultSlideWidth  = 960.0
	defaultSlideHeight = 540.0
	defaultSlideType   = "widescreen"

	defaultBackgroundColor = "#FFFFFF"
)

// SourceProperties are the document properties read from the source file.
type SourceProperties struct {
	Title     string
	Author    string
	Company   string
	Subject   string
	CreatedAt string
	UpdatedAt string
}

// MetadataOverrides are caller-supplied values that win over anything
// extracted from the source.
type MetadataOverrides struct {
	Title   string
	Author  string
	Company string
}

// BuildInput carries everything the builder assembles into one document.
type BuildInput struct {
	SourceProperties     SourceProperties
	Overrides            MetadataOverrides
	SlideSize            SlideSize
	Slides               []Slide
	MasterSlides         []TemplateSlide
	LayoutSlides         []TemplateSlide
	Theme                *Theme
	ExtractionDurationMS int64
}

type Builder struct {
	logger *log.Logger
}

func NewBuilder(logger *log.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build assembles the universal document. It fails only on a structural
// inconsistency it cannot default around; every other gap gets an
// explicit default. slideCount is always recomputed from the slide array.
func (b *Builder) Build(input BuildInput) (*UniversalDocument, error) {
	start := time.Now()

	if input.Slides == nil {
		return nil, domain.NewError(domain.ErrCodeSchema, "build requires a slide array (may be empty, not missing)")
	}

	doc := &UniversalDocument{
		ID:           "presentation_" + uuid.NewString(),
		Metadata:     b.buildMetadata(input),
		SlideSize:    defaultSlideSize(input.SlideSize),
		Slides:       make([]Slide, len(input.Slides)),
		MasterSlides: orEmptyTemplates(input.MasterSlides),
		LayoutSlides: orEmptyTemplates(input.LayoutSlides),
		Theme:        defaultTheme(input.Theme),
	}

	for index, slide := range input.Slides {
		doc.Slides[index] = defaultSlide(slide)
	}
	doc.Metadata.SlideCount = len(doc.Slides)

	doc.Conversion = &ConversionMetadata{
		SchemaVersion: Version,
		GeneratedAt:   time.Now().UTC(),
		DurationMS:    input.ExtractionDurationMS + time.Since(start).Milliseconds(),
		Stats:         computeStats(doc.Slides),
	}

	if b.logger != nil {
		b.logger.Printf(
			"schema built id=%s slides=%d shapes=%d slide_success_rate=%.1f",
			doc.ID,
			doc.Conversion.Stats.TotalSlides,
			doc.Conversion.Stats.TotalShapes,
			doc.Conversion.Stats.SlideSuccessRate,
		)
	}
	return doc, nil
}

// buildMetadata merges explicit overrides over extracted properties over
// hard defaults, in that priority order.
func (b *Builder) buildMetadata(input BuildInput) DocumentMetadata {
	now := time.Now().UTC().Format(time.RFC3339)
	return DocumentMetadata{
		Title:     firstNonEmpty(input.Overrides.Title, input.SourceProperties.Title, defaultTitle),
		Author:    firstNonEmpty(input.Overrides.Author, input.SourceProperties.Author, defaultAuthor),
		Company:   firstNonEmpty(input.Overrides.Company, input.SourceProperties.Company),
		Subject:   strings.TrimSpace(input.SourceProperties.Subject),
		CreatedAt: firstNonEmpty(input.SourceProperties.CreatedAt, now),
		UpdatedAt: firstNonEmpty(input.SourceProperties.UpdatedAt, now),
	}
}

func defaultSlideSize(size SlideSize) SlideSize {
	if size.Width <= 0 || size.Height <= 0 {
		return SlideSize{Width: defaultSlideWidth, Height: defaultSlideHeight, Type: defaultSlideType}
	}
	if size.Type == "" {
		size.Type = "custom"
	}
	return size
}

func defaultSlide(slide Slide) Slide {
	if slide.Shapes == nil {
		slide.Shapes = []Shape{}
	}
	if slide.Background.Type == "" {
		slide.Background = Background{Type: "solid", Color: defaultBackgroundColor}
	}
	if slide.Transition == "" {
		slide.Transition = "none"
	}
	if slide.SlideType == "" {
		slide.SlideType = "slide"
	}
	return slide
}

func defaultTheme(theme *Theme) Theme {
	if theme == nil {
		return Theme{
			Name:        "Default",
			ColorScheme: map[string]string{},
			FontScheme:  map[string]string{},
		}
	}
	result := *theme
	if result.Name == "" {
		result.Name = "Default"
	}
	if result.ColorScheme == nil {
		result.ColorScheme = map[string]string{}
	}
	if result.FontScheme == nil {
		result.FontScheme = map[string]string{}
	}
	return result
}

func orEmptyTemplates(templates []TemplateSlide) []TemplateSlide {
	if templates == nil {
		return []TemplateSlide{}
	}
	return templates
}

// computeStats derives success/failure counts from the error markers left
// during extraction and enrichment. Units without a marker count as
// successful; the builder does not re-verify them.
func computeStats(slides []Slide) ProcessingStats {
	stats := ProcessingStats{TotalSlides: len(slides)}

	totalDuration := int64(0)
	for _, slide := range slides {
		if slide.Failed() {
			stats.FailedSlides++
		} else {
			stats.SuccessfulSlides++
		}
		if slide.Processing != nil {
			totalDuration += slide.Processing.DurationMS
		}
		for _, shape := range slide.Shapes {
			stats.TotalShapes++
			if shape.Failed() || enrichmentFailed(shape) {
				stats.FailedShapes++
			} else {
				stats.SuccessfulShapes++
			}
		}
	}

	if stats.TotalSlides > 0 {
		stats.AvgShapesPerSlide = round2(float64(stats.TotalShapes) / float64(stats.TotalSlides))
		stats.AvgSlideDurationMS = round2(float64(totalDuration) / float64(stats.TotalSlides))
		stats.SlideSuccessRate = round2(100 * float64(stats.SuccessfulSlides) / float64(stats.TotalSlides))
	}
	if stats.TotalShapes > 0 {
		stats.ShapeSuccessRate = round2(100 * float64(stats.SuccessfulShapes) / float64(stats.TotalShapes))
	}
	return stats
}

func enrichmentFailed(shape Shape) bool {
	return shape.Enrichment != nil && shape.Enrichment.Metadata.Status == "failed"
}

// QuickValidation is the builder's fast structural pre-check result. It is
// not a replacement for the full definition-driven validator.
type QuickValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate enforces minimal structural rules so callers can short-circuit
// before running the full validator.
func (b *Builder) Validate(doc *UniversalDocument) QuickValidation {
	result := QuickValidation{Errors: []string{}, Warnings: []string{}}
	if doc == nil {
		result.Errors = append(result.Errors, "document is nil")
		return result
	}
	if strings.TrimSpace(doc.ID) == "" {
		result.Errors = append(result.Errors, "presentation id is missing")
	}
	if doc.Slides == nil {
		result.Errors = append(result.Errors, "slides array is missing")
	}
	for index, slide := range doc.Slides {
		if slide.Shapes == nil {
			result.Errors = append(result.Errors, "slide "+strconv.Itoa(index)+" has no shapes array")
		}
	}
	if doc.Metadata.SlideCount != len(doc.Slides) {
		result.Warnings = append(result.Warnings, "metadata.slideCount disagrees with slides length")
	}
	result.Valid = len(result.Errors) == 0
	return result
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
