package enricher

import (
	"strings"

	"github.com/anlaklab/simple-luna-sub003/internal/schema"
)

const (
	defaultFontName = "Calibri"
	defaultFontSize = 18.0
)

func enrichText(text *schema.TextContent) *schema.TextMetrics {
	content := text.Content
	trimmed := strings.TrimSpace(content)

	metrics := &schema.TextMetrics{
		CharCount:      len([]rune(content)),
		WordCount:      len(strings.Fields(content)),
		ParagraphCount: len(text.Paragraphs),
		LineCount:      countLines(trimmed),
		IsEmpty:        trimmed == "",
		Language:       guessLanguage(content),
	}
	metrics.DominantFont, metrics.AverageFontSize = scanFonts(text.Paragraphs)
	return metrics
}

func countLines(value string) int {
	if value == "" {
		return 0
	}
	return strings.Count(value, "\n") + 1
}

// scanFonts walks every paragraph portion for the most frequent font name
// and the mean font size, falling back to fixed defaults when the source
// carries no portion-level formatting.
func scanFonts(paragraphs []schema.Paragraph) (string, float64) {
	counts := make(map[string]int)
	sizeTotal := 0.0
	sizeSamples := 0

	for _, paragraph := range paragraphs {
		for _, portion := range paragraph.Portions {
			if portion.FontName != "" {
				counts[portion.FontName]++
			}
			if portion.FontSize > 0 {
				sizeTotal += portion.FontSize
				sizeSamples++
			}
		}
	}

	dominant := defaultFontName
	best := 0
	for name, count := range counts {
		if count > best || (count == best && name < dominant) {
			dominant = name
			best = count
		}
	}

	size := defaultFontSize
	if sizeSamples > 0 {
		size = round2(sizeTotal / float64(sizeSamples))
	}
	return dominant, size
}

// guessLanguage is a coarse keyword-frequency heuristic over a small
// closed set of languages, not a general classifier. Ties and low signal
// resolve to "unknown".
func guessLanguage(content string) string {
	lowered := " " + strings.ToLower(content) + " "

	bestLanguage := "unknown"
	bestScore := 0
	tie := false
	for language, markers := range languageMarkers {
		score := 0
		for _, marker := range markers {
			score += strings.Count(lowered, marker)
		}
		if score > bestScore {
			bestLanguage = language
			bestScore = score
			tie = false
		} else if score == bestScore && score > 0 {
			tie = true
		}
	}

	if bestScore < 2 || tie {
		return "unknown"
	}
	return bestLanguage
}

var languageMarkers = map[string][]string{
	"english":    {" the ", " and ", " with ", " you ", " that ", " this "},
	"spanish":    {" el ", " la ", " los ", " una ", " para ", " con "},
	"portuguese": {" você ", " não ", " uma ", " para ", " com ", " que "},
	"french":     {" le ", " les ", " des ", " une ", " avec ", " pour "},
	"german":     {" der ", " die ", " das ", " und ", " mit ", " für "},
}
