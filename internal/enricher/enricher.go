// Package enricher computes derived, denormalized fields from raw
// extracted shape data. Enrichment only adds fields; extracted originals
// are never modified, and a failing shape never stops its siblings.
package enricher

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/anlaklab/simple-luna-sub003/internal/schema"
)

const enrichmentVersion = "1.0"

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Stats accumulates per-run counters. Each enrichment run owns its own
// accumulator, so concurrent jobs never share mutable state.
type Stats struct {
	Processed int
	Enriched  int
	Failed    int
}

// Add folds another accumulator in, so callers can total per-slide runs.
func (s *Stats) Add(other Stats) {
	s.Processed += other.Processed
	s.Enriched += other.Enriched
	s.Failed += other.Failed
}

type Enricher struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Enricher {
	return &Enricher{logger: logger}
}

// EnrichSlide enriches every shape of the slide in place. Never fails.
func (e *Enricher) EnrichSlide(slide *schema.Slide) Stats {
	shapes, stats := e.EnrichShapes(slide.Shapes, slide.SlideIndex)
	slide.Shapes = shapes
	return stats
}

// EnrichShapes returns a same-length slice where every shape carries an
// enrichment block, success or failed.
func (e *Enricher) EnrichShapes(shapes []schema.Shape, slideIndex int) ([]schema.Shape, Stats) {
	stats := Stats{}
	enriched := make([]schema.Shape, len(shapes))
	for index, shape := range shapes {
		enriched[index] = e.enrichOne(shape, slideIndex, &stats)
	}
	return enriched, stats
}

func (e *Enricher) enrichOne(shape schema.Shape, slideIndex int, stats *Stats) schema.Shape {
	stats.Processed++
	started := time.Now()

	if shape.Failed() {
		stats.Failed++
		shape.Enrichment = &schema.ShapeEnrichment{
			Metadata: failedMetadata(started, "not enriched: shape extraction failed"),
		}
		return shape
	}

	enrichment, err := e.compute(&shape)
	if err != nil {
		stats.Failed++
		shape.Enrichment = &schema.ShapeEnrichment{
			Metadata: failedMetadata(started, err.Error()),
		}
		if e.logger != nil {
			e.logger.Printf("enrichment failed slide=%d shape=%d: %v", slideIndex, shape.ShapeIndex, err)
		}
		return shape
	}

	stats.Enriched++
	enrichment.Metadata = schema.EnrichmentMetadata{
		StartedAt:  started.UTC(),
		DurationMS: time.Since(started).Milliseconds(),
		Status:     StatusSuccess,
		Version:    enrichmentVersion,
		Timestamp:  time.Now().UTC(),
	}
	shape.Enrichment = enrichment
	return shape
}

// compute runs every enrichment stage. The recover guard is the isolation
// boundary the pipeline relies on: a panic in any stage degrades exactly
// this shape and the run continues.
func (e *Enricher) compute(shape *schema.Shape) (enrichment *schema.ShapeEnrichment, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			enrichment = nil
			err = fmt.Errorf("enrichment panic: %v", recovered)
		}
	}()

	if err := checkGeometry(shape.Geometry); err != nil {
		return nil, err
	}

	result := &schema.ShapeEnrichment{
		Geometry: enrichGeometry(shape.Geometry),
		Category: enrichCategory(shape),
	}
	if shape.Text != nil {
		result.Text = enrichText(shape.Text)
	}
	if shape.FillFormat != nil && shape.FillFormat.Type == "solid" {
		color, colorErr := enrichColor(shape.FillFormat.Color)
		if colorErr != nil {
			return nil, colorErr
		}
		result.Color = color
	}
	return result, nil
}

func checkGeometry(geometry schema.Geometry) error {
	for _, value := range []float64{geometry.X, geometry.Y, geometry.Width, geometry.Height, geometry.Rotation} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("geometry contains non-finite value")
		}
	}
	return nil
}

func failedMetadata(started time.Time, message string) schema.EnrichmentMetadata {
	return schema.EnrichmentMetadata{
		StartedAt:  started.UTC(),
		DurationMS: time.Since(started).Milliseconds(),
		Status:     StatusFailed,
		Version:    enrichmentVersion,
		Timestamp:  time.Now().UTC(),
		Error:      message,
	}
}
