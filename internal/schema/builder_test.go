package schema

import (
	"strings"
	"testing"
)

func TestBuildRequiresSlideArray(t *testing.T) {
	builder := NewBuilder(nil)
	if _, err := builder.Build(BuildInput{}); err == nil {
		t.Fatal("expected error for nil slide array")
	}
}

func TestBuildEmptyDeck(t *testing.T) {
	builder := NewBuilder(nil)
	doc, err := builder.Build(BuildInput{Slides: []Slide{}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !strings.HasPrefix(doc.ID, "presentation_") {
		t.Fatalf("expected presentation id prefix, got %q", doc.ID)
	}
	if doc.Metadata.Title != "Untitled Presentation" {
		t.Fatalf("expected default title, got %q", doc.Metadata.Title)
	}
	if doc.Metadata.Author != "Unknown" {
		t.Fatalf("expected default author, got %q", doc.Metadata.Author)
	}
	if doc.Metadata.SlideCount != 0 {
		t.Fatalf("expected slideCount 0, got %d", doc.Metadata.SlideCount)
	}
	if doc.SlideSize.Width != 960 || doc.SlideSize.Height != 540 {
		t.Fatalf("expected default slide size, got %+v", doc.SlideSize)
	}
	if doc.Conversion == nil || doc.Conversion.SchemaVersion != Version {
		t.Fatal("expected conversion metadata with schema version")
	}
}

func TestBuildRecomputesSlideCount(t *testing.T) {
	builder := NewBuilder(nil)
	doc, err := builder.Build(BuildInput{
		Slides: []Slide{{SlideIndex: 0}, {SlideIndex: 1}, {SlideIndex: 2}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if doc.Metadata.SlideCount != 3 {
		t.Fatalf("expected slideCount 3, got %d", doc.Metadata.SlideCount)
	}
	if len(doc.Slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(doc.Slides))
	}
}

func TestBuildOverridesWinOverSource(t *testing.T) {
	builder := NewBuilder(nil)
	doc, err := builder.Build(BuildInput{
		SourceProperties: SourceProperties{Title: "From File", Author: "File Author"},
		Overrides:        MetadataOverrides{Title: "From Caller"},
		Slides:           []Slide{},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if doc.Metadata.Title != "From Caller" {
		t.Fatalf("expected override title, got %q", doc.Metadata.Title)
	}
	if doc.Metadata.Author != "File Author" {
		t.Fatalf("expected source author, got %q", doc.Metadata.Author)
	}
}

func TestBuildSlideDefaults(t *testing.T) {
	builder := NewBuilder(nil)
	doc, err := builder.Build(BuildInput{Slides: []Slide{{SlideIndex: 0}}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	slide := doc.Slides[0]
	if slide.Shapes == nil {
		t.Fatal("expected non-nil shapes array")
	}
	if slide.Background.Type != "solid" || slide.Background.Color != "#FFFFFF" {
		t.Fatalf("expected default background, got %+v", slide.Background)
	}
	if slide.Transition != "none" {
		t.Fatalf("expected default transition, got %q", slide.Transition)
	}
}

func TestBuildStatsFromErrorMarkers(t *testing.T) {
	builder := NewBuilder(nil)
	doc, err := builder.Build(BuildInput{
		Slides: []Slide{
			{
				SlideIndex: 0,
				Shapes: []Shape{
					{ShapeIndex: 0, ShapeType: ShapeTextBox},
					{ShapeIndex: 1, ShapeType: ShapeUnknown, ErrorMessage: "decode failed"},
				},
			},
			{SlideIndex: 1, ErrorMessage: "slide unreadable"},
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	stats := doc.Conversion.Stats
	if stats.TotalSlides != 2 || stats.FailedSlides != 1 || stats.SuccessfulSlides != 1 {
		t.Fatalf("unexpected slide stats: %+v", stats)
	}
	if stats.TotalShapes != 2 || stats.FailedShapes != 1 || stats.SuccessfulShapes != 1 {
		t.Fatalf("unexpected shape stats: %+v", stats)
	}
	if stats.SlideSuccessRate != 50 {
		t.Fatalf("expected 50%% slide success rate, got %v", stats.SlideSuccessRate)
	}
}

func TestQuickValidation(t *testing.T) {
	builder := NewBuilder(nil)
	doc, err := builder.Build(BuildInput{Slides: []Slide{{SlideIndex: 0}}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	result := builder.Validate(doc)
	if !result.Valid {
		t.Fatalf("expected valid, errors: %v", result.Errors)
	}

	doc.Metadata.SlideCount = 9
	result = builder.Validate(doc)
	if !result.Valid {
		t.Fatal("count drift must stay a warning")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected slideCount warning")
	}

	doc.ID = ""
	result = builder.Validate(doc)
	if result.Valid {
		t.Fatal("expected invalid without id")
	}
}
