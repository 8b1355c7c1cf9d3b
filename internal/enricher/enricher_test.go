package enricher

import (
	"math"
	"strings"
	"testing"

	"github.com/anlaklab/simple-luna-sub003/internal/schema"
)

func textShape(content string) schema.Shape {
	return schema.Shape{
		ShapeType: schema.ShapeTextBox,
		Geometry:  schema.Geometry{X: 10, Y: 10, Width: 300, Height: 120},
		Text: &schema.TextContent{
			Content: content,
			Paragraphs: []schema.Paragraph{
				{Portions: []schema.Portion{{Text: content, FontName: "Arial", FontSize: 24}}},
			},
		},
	}
}

func TestEnrichShapesIsolation(t *testing.T) {
	enricher := New(nil)
	shapes := []schema.Shape{
		textShape("first"),
		{
			ShapeType: schema.ShapeTextBox,
			Geometry:  schema.Geometry{Width: math.NaN(), Height: 100},
		},
		textShape("third"),
	}

	enriched, stats := enricher.EnrichShapes(shapes, 0)

	if len(enriched) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(enriched))
	}
	if stats.Processed != 3 || stats.Enriched != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	for index, shape := range enriched {
		if shape.Enrichment == nil {
			t.Fatalf("shape %d missing enrichment block", index)
		}
	}
	if enriched[1].Enrichment.Metadata.Status != StatusFailed {
		t.Fatal("expected NaN geometry shape marked failed")
	}
	if enriched[1].Enrichment.Metadata.Error == "" {
		t.Fatal("expected error message on failed enrichment")
	}
	if enriched[0].Enrichment.Metadata.Status != StatusSuccess {
		t.Fatal("expected sibling shapes to succeed")
	}
}

func TestStatsAddTotalsPerSlideRuns(t *testing.T) {
	total := Stats{}
	total.Add(Stats{Processed: 4, Enriched: 3, Failed: 1})
	total.Add(Stats{Processed: 2, Enriched: 2})

	if total.Processed != 6 || total.Enriched != 5 || total.Failed != 1 {
		t.Fatalf("unexpected totals: %+v", total)
	}
}

func TestEnrichSkipsExtractionFailures(t *testing.T) {
	enricher := New(nil)
	shapes := []schema.Shape{
		{ShapeType: schema.ShapeUnknown, ErrorMessage: "decode failed"},
	}

	enriched, stats := enricher.EnrichShapes(shapes, 0)
	if stats.Failed != 1 || stats.Enriched != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	metadata := enriched[0].Enrichment.Metadata
	if metadata.Status != StatusFailed {
		t.Fatal("expected failed status")
	}
	if !strings.Contains(metadata.Error, "extraction failed") {
		t.Fatalf("expected extraction-failed marker, got %q", metadata.Error)
	}
}

func TestEnrichTextMetrics(t *testing.T) {
	enricher := New(nil)
	shape := textShape("the quick brown fox jumps over the lazy dog")

	enriched, _ := enricher.EnrichShapes([]schema.Shape{shape}, 0)
	text := enriched[0].Enrichment.Text
	if text == nil {
		t.Fatal("expected text metrics")
	}
	if text.WordCount != 9 {
		t.Fatalf("expected 9 words, got %d", text.WordCount)
	}
	if text.CharCount != len("the quick brown fox jumps over the lazy dog") {
		t.Fatalf("unexpected char count %d", text.CharCount)
	}
	if text.DominantFont != "Arial" || text.AverageFontSize != 24 {
		t.Fatalf("unexpected font metrics: %+v", text)
	}
	if text.Language != "english" {
		t.Fatalf("expected english, got %q", text.Language)
	}
}

func TestEnrichGeometryDescriptors(t *testing.T) {
	cases := []struct {
		name     string
		geometry schema.Geometry
		position string
		size     string
	}{
		{"top left small", schema.Geometry{X: 0, Y: 0, Width: 50, Height: 50}, "top-left", "small"},
		{"center medium", schema.Geometry{X: 380, Y: 170, Width: 200, Height: 200}, "middle-center", "medium"},
		{"bottom right large", schema.Geometry{X: 600, Y: 350, Width: 400, Height: 300}, "bottom-right", "large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := enrichGeometry(tc.geometry)
			if metrics.Position != tc.position {
				t.Fatalf("expected position %q, got %q", tc.position, metrics.Position)
			}
			if metrics.Size != tc.size {
				t.Fatalf("expected size %q, got %q", tc.size, metrics.Size)
			}
		})
	}
}

func TestEnrichColor(t *testing.T) {
	info, err := enrichColor("#1A2B3C")
	if err != nil {
		t.Fatalf("enrich color: %v", err)
	}
	if !info.IsDark {
		t.Fatal("expected dark color")
	}

	// 8-char values drop the leading alpha pair.
	info, err = enrichColor("#FF000080")
	if err != nil {
		t.Fatalf("enrich color with alpha: %v", err)
	}
	if info.FillColor != "#000080" {
		t.Fatalf("expected alpha stripped, got %q", info.FillColor)
	}

	if _, err := enrichColor("red"); err == nil {
		t.Fatal("expected error for non-hex color")
	}
}

func TestColorFamily(t *testing.T) {
	cases := []struct {
		r, g, b int
		family  string
	}{
		{200, 200, 210, "gray"},
		{220, 40, 40, "red"},
		{40, 220, 40, "green"},
		{40, 40, 220, "blue"},
		{220, 200, 40, "mixed"},
	}
	for _, tc := range cases {
		if family := colorFamily(tc.r, tc.g, tc.b); family != tc.family {
			t.Fatalf("rgb(%d,%d,%d): expected %q, got %q", tc.r, tc.g, tc.b, tc.family, family)
		}
	}
}

func TestCategoryDecorativePicture(t *testing.T) {
	shape := &schema.Shape{
		ShapeType: schema.ShapePicture,
		Geometry:  schema.Geometry{Width: 50, Height: 50},
	}
	info := enrichCategory(shape)
	if info.Category != "picture" || !info.Decorative {
		t.Fatalf("expected decorative picture, got %+v", info)
	}

	shape.Geometry = schema.Geometry{Width: 500, Height: 400}
	info = enrichCategory(shape)
	if info.Decorative {
		t.Fatal("large picture must not be decorative")
	}
}

func TestGuessLanguage(t *testing.T) {
	cases := []struct {
		text     string
		language string
	}{
		{"the quick brown fox and the lazy dog with many words", "english"},
		{"el informe para la empresa con los datos y una propuesta", "spanish"},
		{"xyzzy plugh", "unknown"},
	}
	for _, tc := range cases {
		if language := guessLanguage(tc.text); language != tc.language {
			t.Fatalf("%q: expected %q, got %q", tc.text, tc.language, language)
		}
	}
}
