package enricher

import (
	"math"

	"github.com/anlaklab/simple-luna-sub003/internal/schema"
)

// Fixed pixel thresholds for the coarse positional descriptor, calibrated
// to a 960x540 canvas.
const (
	positionLeftMax   = 320.0
	positionRightMin  = 640.0
	positionTopMax    = 180.0
	positionBottomMin = 360.0
)

// Fixed area thresholds for the coarse size descriptor.
const (
	areaSmallMax  = 10000.0
	areaMediumMax = 80000.0
	areaLargeMax  = 250000.0
)

func enrichGeometry(geometry schema.Geometry) *schema.GeometryMetrics {
	center := schema.Point{
		X: geometry.X + geometry.Width/2,
		Y: geometry.Y + geometry.Height/2,
	}
	area := geometry.Width * geometry.Height

	aspect := 0.0
	if geometry.Height > 0 {
		aspect = round2(geometry.Width / geometry.Height)
	}

	return &schema.GeometryMetrics{
		Center:      schema.Point{X: round2(center.X), Y: round2(center.Y)},
		Area:        round2(area),
		AspectRatio: aspect,
		Position:    describePosition(center),
		Size:        describeSize(area),
		BoundingBox: schema.BoundingBox{
			Left:   geometry.X,
			Top:    geometry.Y,
			Right:  geometry.X + geometry.Width,
			Bottom: geometry.Y + geometry.Height,
		},
	}
}

func describePosition(center schema.Point) string {
	vertical := "middle"
	switch {
	case center.Y < positionTopMax:
		vertical = "top"
	case center.Y > positionBottomMin:
		vertical = "bottom"
	}

	horizontal := "center"
	switch {
	case center.X < positionLeftMax:
		horizontal = "left"
	case center.X > positionRightMin:
		horizontal = "right"
	}

	return vertical + "-" + horizontal
}

func describeSize(area float64) string {
	switch {
	case area < areaSmallMax:
		return "small"
	case area < areaMediumMax:
		return "medium"
	case area < areaLargeMax:
		return "large"
	default:
		return "extra-large"
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
