package schema

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// applyFixes repairs a deep copy of the document. Fixes are deterministic:
// the same violations on the same document always yield the same repaired
// document, so running auto-fix twice is a no-op the second time.
func (v *Validator) applyFixes(doc map[string]any, violations []Violation, opts FixOptions) (map[string]any, []Fix) {
	fixed := deepCopy(doc)
	fixes := make([]Fix, 0, len(violations))

	for _, violation := range violations {
		if fix, ok := fixViolation(fixed, violation); ok {
			fixes = append(fixes, fix)
		}
	}

	fixes = append(fixes, reconcileIndexes(fixed)...)
	fixes = append(fixes, reconcileSlideCount(fixed)...)
	if opts.SynthesizeIDs {
		fixes = append(fixes, synthesizeIDs(fixed)...)
	}
	return fixed, fixes
}

// fixViolation repairs one violation in place. Violations without a field
// definition (structural type mismatches, advisories handled by the
// reconcile passes) are left alone.
func fixViolation(doc map[string]any, violation Violation) (Fix, bool) {
	def := violation.def
	if def == nil {
		return Fix{}, false
	}
	obj, ok := resolveParent(doc, violation.Path)
	if !ok {
		return Fix{}, false
	}

	switch violation.Code {
	case CodeRequired:
		obj[def.Name] = deepCopyValue(def.Default)
		return Fix{Path: violation.Path, Action: "set_default", Value: def.Default}, true

	case CodeType:
		coerced, ok := coerce(obj[def.Name], def.Type)
		if !ok {
			coerced = zeroValue(def.Type)
		}
		obj[def.Name] = coerced
		return Fix{Path: violation.Path, Action: "coerce_type", Value: coerced}, true

	case CodeEnum:
		if len(def.Enum) == 0 {
			return Fix{}, false
		}
		obj[def.Name] = def.Enum[0]
		return Fix{Path: violation.Path, Action: "reset_to_allowed", Value: def.Enum[0]}, true

	case CodeRange:
		number, ok := obj[def.Name].(float64)
		if !ok {
			return Fix{}, false
		}
		clamped := number
		if def.Min != nil && clamped < *def.Min {
			clamped = *def.Min
		}
		if def.Max != nil && clamped > *def.Max {
			clamped = *def.Max
		}
		obj[def.Name] = clamped
		return Fix{Path: violation.Path, Action: "clamp", Value: clamped}, true

	case CodeFormat:
		if !def.IsDate {
			return Fix{}, false
		}
		text, _ := obj[def.Name].(string)
		repaired := reparseDate(text)
		obj[def.Name] = repaired
		return Fix{Path: violation.Path, Action: "reformat_date", Value: repaired}, true
	}
	return Fix{}, false
}

// coerce converts a value to the target type when a faithful conversion
// exists. Callers substitute the type's zero value when it does not.
func coerce(value any, target FieldType) (any, bool) {
	switch target {
	case TypeString:
		switch typed := value.(type) {
		case float64:
			return strconv.FormatFloat(typed, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(typed), true
		}
	case TypeNumber:
		if text, ok := value.(string); ok {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
				return parsed, true
			}
		}
		if flag, ok := value.(bool); ok {
			if flag {
				return 1.0, true
			}
			return 0.0, true
		}
	case TypeBoolean:
		if text, ok := value.(string); ok {
			if parsed, err := strconv.ParseBool(strings.TrimSpace(text)); err == nil {
				return parsed, true
			}
		}
	}
	return nil, false
}

func zeroValue(target FieldType) any {
	switch target {
	case TypeString:
		return ""
	case TypeNumber:
		return 0.0
	case TypeBoolean:
		return false
	case TypeArray:
		return []any{}
	default:
		return map[string]any{}
	}
}

// reparseDate tries the common non-RFC-3339 layouts seen in office
// documents and falls back to the current time when none parse.
func reparseDate(text string) string {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"01/02/2006",
	}
	trimmed := strings.TrimSpace(text)
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// reconcileIndexes rewrites slideIndex and shapeIndex to match array
// positions. Array position is the source of truth.
func reconcileIndexes(doc map[string]any) []Fix {
	fixes := make([]Fix, 0)
	for slideIndex, slide := range slidesOf(doc) {
		slidePath := "slides/" + strconv.Itoa(slideIndex)
		if current, ok := slide["slideIndex"].(float64); !ok || int(current) != slideIndex {
			slide["slideIndex"] = float64(slideIndex)
			fixes = append(fixes, Fix{Path: slidePath + "/slideIndex", Action: "reindex", Value: slideIndex})
		}
		for shapeIndex, shape := range shapesOf(slide) {
			if current, ok := shape["shapeIndex"].(float64); !ok || int(current) != shapeIndex {
				shape["shapeIndex"] = float64(shapeIndex)
				fixes = append(fixes, Fix{
					Path:   slidePath + "/shapes/" + strconv.Itoa(shapeIndex) + "/shapeIndex",
					Action: "reindex",
					Value:  shapeIndex,
				})
			}
		}
	}
	return fixes
}

func reconcileSlideCount(doc map[string]any) []Fix {
	metadata, ok := doc["metadata"].(map[string]any)
	if !ok {
		return nil
	}
	slides, ok := doc["slides"].([]any)
	if !ok {
		return nil
	}
	if current, ok := metadata["slideCount"].(float64); ok && int(current) == len(slides) {
		return nil
	}
	metadata["slideCount"] = float64(len(slides))
	return []Fix{{Path: "metadata/slideCount", Action: "recount", Value: len(slides)}}
}

// synthesizeIDs fills missing slide and shape identifiers from array
// positions. Existing identifiers are never overwritten.
func synthesizeIDs(doc map[string]any) []Fix {
	fixes := make([]Fix, 0)
	for slideIndex, slide := range slidesOf(doc) {
		slidePath := "slides/" + strconv.Itoa(slideIndex)
		if id, _ := slide["slideId"].(string); id == "" {
			value := "slide_" + strconv.Itoa(slideIndex)
			slide["slideId"] = value
			fixes = append(fixes, Fix{Path: slidePath + "/slideId", Action: "synthesize_id", Value: value})
		}
		for shapeIndex, shape := range shapesOf(slide) {
			if id, _ := shape["id"].(string); id == "" {
				value := "slide_" + strconv.Itoa(slideIndex) + "_shape_" + strconv.Itoa(shapeIndex)
				shape["id"] = value
				fixes = append(fixes, Fix{
					Path:   slidePath + "/shapes/" + strconv.Itoa(shapeIndex) + "/id",
					Action: "synthesize_id",
					Value:  value,
				})
			}
		}
	}
	return fixes
}

// resolveParent walks a slash path to the object owning its last segment.
func resolveParent(doc map[string]any, path string) (map[string]any, bool) {
	segments := strings.Split(path, "/")
	current := any(doc)
	for _, segment := range segments[:len(segments)-1] {
		switch typed := current.(type) {
		case map[string]any:
			current = typed[segment]
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(typed) {
				return nil, false
			}
			current = typed[index]
		default:
			return nil, false
		}
	}
	parent, ok := current.(map[string]any)
	return parent, ok
}

func slidesOf(doc map[string]any) []map[string]any {
	raw, _ := doc["slides"].([]any)
	slides := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if slide, ok := item.(map[string]any); ok {
			slides = append(slides, slide)
		}
	}
	return slides
}

func shapesOf(slide map[string]any) []map[string]any {
	raw, _ := slide["shapes"].([]any)
	shapes := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if shape, ok := item.(map[string]any); ok {
			shapes = append(shapes, shape)
		}
	}
	return shapes
}

func deepCopy(doc map[string]any) map[string]any {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return map[string]any{}
	}
	var copied map[string]any
	if err := json.Unmarshal(encoded, &copied); err != nil {
		return map[string]any{}
	}
	return copied
}

func deepCopyValue(value any) any {
	switch value.(type) {
	case map[string]any, []any:
		encoded, err := json.Marshal(value)
		if err != nil {
			return value
		}
		var copied any
		if err := json.Unmarshal(encoded, &copied); err != nil {
			return value
		}
		return copied
	default:
		return value
	}
}
