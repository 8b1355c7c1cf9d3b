package enricher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anlaklab/simple-luna-sub003/internal/schema"
)

const decorativeAreaMax = 10000.0

// enrichColor classifies a solid fill color: display string, light/dark by
// relative luminance, and a coarse family label by channel magnitude.
func enrichColor(color string) (*schema.ColorInfo, error) {
	r, g, b, err := parseHexColor(color)
	if err != nil {
		return nil, err
	}

	luminance := 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)

	return &schema.ColorInfo{
		FillColor: fmt.Sprintf("#%02X%02X%02X", r, g, b),
		IsDark:    luminance < 128,
		Family:    colorFamily(r, g, b),
	}, nil
}

func parseHexColor(value string) (int, int, int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(trimmed) == 8 {
		// Drop a leading alpha channel.
		trimmed = trimmed[2:]
	}
	if len(trimmed) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color %q", value)
	}

	parsed, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", value, err)
	}
	return int(parsed >> 16 & 0xFF), int(parsed >> 8 & 0xFF), int(parsed & 0xFF), nil
}

func colorFamily(r, g, b int) string {
	maxChannel := max3(r, g, b)
	minChannel := min3(r, g, b)

	if maxChannel-minChannel <= 30 {
		return "gray"
	}

	const dominance = 40
	switch {
	case r == maxChannel && r-g >= dominance && r-b >= dominance:
		return "red"
	case g == maxChannel && g-r >= dominance && g-b >= dominance:
		return "green"
	case b == maxChannel && b-r >= dominance && b-g >= dominance:
		return "blue"
	default:
		return "mixed"
	}
}

// enrichCategory assigns the shape-type category block plus 3-bucket
// complexity and importance scores.
func enrichCategory(shape *schema.Shape) *schema.CategoryInfo {
	info := &schema.CategoryInfo{
		Complexity: scoreComplexity(shape),
		Importance: scoreImportance(shape),
	}

	switch shape.ShapeType {
	case schema.ShapeTable:
		info.Category = "table"
	case schema.ShapeChart:
		info.Category = "chart"
	case schema.ShapePicture:
		info.Category = "picture"
		area := shape.Geometry.Width * shape.Geometry.Height
		info.Decorative = area > 0 && area < decorativeAreaMax
	case schema.ShapeTextBox:
		info.Category = "text"
	default:
		info.Category = "generic"
	}
	return info
}

func scoreComplexity(shape *schema.Shape) string {
	score := 0
	if textLength(shape) > 100 {
		score++
	}
	if shape.FillFormat != nil {
		score++
	}
	if shape.Text != nil && len(shape.Text.Paragraphs) > 3 {
		score++
	}
	return bucket(score)
}

func scoreImportance(shape *schema.Shape) string {
	score := 0
	if textLength(shape) > 50 {
		score++
	}
	area := shape.Geometry.Width * shape.Geometry.Height
	if area > areaMediumMax {
		score++
	}
	if area > areaLargeMax {
		score++
	}
	return bucket(score)
}

func bucket(score int) string {
	switch {
	case score <= 1:
		return "low"
	case score == 2:
		return "medium"
	default:
		return "high"
	}
}

func textLength(shape *schema.Shape) int {
	if shape.Text == nil {
		return 0
	}
	return len(strings.TrimSpace(shape.Text.Content))
}

func max3(a, b, c int) int {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
