package schema

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Violation codes. required/type/enum classify as errors, the rest as
// warnings.
const (
	CodeRequired = "required"
	CodeType     = "type"
	CodeEnum     = "enum"
	CodeRange    = "range"
	CodeFormat   = "format"
	CodeIndex    = "index"
	CodeCount    = "count"
)

type Violation struct {
	Code       string `json:"code"`
	Path       string `json:"path"`
	Message    string `json:"message"`
	Expected   string `json:"expected,omitempty"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion,omitempty"`

	def *FieldDef
}

// Warning is advisory and never blocks validity.
type Warning struct {
	Code           string `json:"code"`
	Path           string `json:"path"`
	Message        string `json:"message"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
}

type Fix struct {
	Path   string `json:"path"`
	Action string `json:"action"`
	Value  any    `json:"value,omitempty"`
}

type FixOptions struct {
	AutoFix       bool
	SynthesizeIDs bool
}

// Result reports validity after any requested auto-fix pass. When fixes
// were applied, Errors holds only the residual, unfixable violations and
// FixedDocument the repaired copy; the caller's document is untouched.
type Result struct {
	IsValid       bool           `json:"is_valid"`
	Errors        []Violation    `json:"errors"`
	Warnings      []Warning      `json:"warnings"`
	FixesApplied  []Fix          `json:"fixes_applied"`
	FixedDocument map[string]any `json:"fixed_document,omitempty"`
}

type Validator struct {
	logger *log.Logger
}

func NewValidator(logger *log.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateJSON decodes raw JSON and validates it.
func (v *Validator) ValidateJSON(raw json.RawMessage, opts FixOptions) (*Result, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return v.Validate(doc, opts), nil
}

// ValidateDocument validates a typed document by round-tripping it through
// its JSON form, which is the representation the definition describes.
func (v *Validator) ValidateDocument(doc *UniversalDocument, opts FixOptions) (*Result, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return v.ValidateJSON(encoded, opts)
}

func (v *Validator) Validate(doc map[string]any, opts FixOptions) *Result {
	violations := v.check(doc)

	if !opts.AutoFix {
		errors, warnings := splitViolations(violations)
		return &Result{
			IsValid:      len(errors) == 0,
			Errors:       errors,
			Warnings:     append(warnings, adviseDocument(doc)...),
			FixesApplied: []Fix{},
		}
	}

	fixed, fixes := v.applyFixes(doc, violations, opts)

	residual := v.check(fixed)
	errors, warnings := splitViolations(residual)
	result := &Result{
		IsValid:       len(errors) == 0,
		Errors:        errors,
		Warnings:      append(warnings, adviseDocument(fixed)...),
		FixesApplied:  fixes,
		FixedDocument: fixed,
	}
	if v.logger != nil && len(fixes) > 0 {
		v.logger.Printf("auto-fix applied fixes=%d residual_errors=%d", len(fixes), len(errors))
	}
	return result
}

// check walks the definition over the dynamic document and returns every
// violation found, error and warning severity alike.
func (v *Validator) check(doc map[string]any) []Violation {
	violations := checkFields(doc, documentFields, "")

	if metadata, ok := doc["metadata"].(map[string]any); ok {
		violations = append(violations, checkFields(metadata, metadataFields, "metadata")...)
		violations = append(violations, checkSlideCount(metadata, doc)...)
	}
	if slideSize, ok := doc["slideSize"].(map[string]any); ok {
		violations = append(violations, checkFields(slideSize, slideSizeFields, "slideSize")...)
	}

	slides, ok := doc["slides"].([]any)
	if !ok {
		return violations
	}
	for slideIndex, rawSlide := range slides {
		slidePath := "slides/" + strconv.Itoa(slideIndex)
		slide, ok := rawSlide.(map[string]any)
		if !ok {
			violations = append(violations, Violation{
				Code:     CodeType,
				Path:     slidePath,
				Message:  "slide must be an object",
				Expected: string(TypeObject),
				Severity: SeverityError,
			})
			continue
		}
		violations = append(violations, checkFields(slide, slideFields, slidePath)...)
		violations = append(violations, checkIndexField(slide, "slideIndex", slideIndex, slidePath)...)

		shapes, ok := slide["shapes"].([]any)
		if !ok {
			continue
		}
		for shapeIndex, rawShape := range shapes {
			shapePath := slidePath + "/shapes/" + strconv.Itoa(shapeIndex)
			shape, ok := rawShape.(map[string]any)
			if !ok {
				violations = append(violations, Violation{
					Code:     CodeType,
					Path:     shapePath,
					Message:  "shape must be an object",
					Expected: string(TypeObject),
					Severity: SeverityError,
				})
				continue
			}
			violations = append(violations, checkFields(shape, shapeFields, shapePath)...)
			violations = append(violations, checkIndexField(shape, "shapeIndex", shapeIndex, shapePath)...)
			if geometry, ok := shape["geometry"].(map[string]any); ok {
				violations = append(violations, checkFields(geometry, geometryFields, shapePath+"/geometry")...)
			}
		}
	}
	return violations
}

func checkFields(obj map[string]any, defs []FieldDef, basePath string) []Violation {
	violations := make([]Violation, 0)
	for index := range defs {
		def := &defs[index]
		path := joinPath(basePath, def.Name)

		value, present := obj[def.Name]
		if !present || value == nil {
			if def.Required {
				violations = append(violations, Violation{
					Code:       CodeRequired,
					Path:       path,
					Message:    fmt.Sprintf("missing required field %q", def.Name),
					Expected:   string(def.Type),
					Severity:   SeverityError,
					Suggestion: fmt.Sprintf("set %q to its default (%v)", def.Name, def.Default),
					def:        def,
				})
			}
			continue
		}

		if !matchesType(value, def.Type) {
			violations = append(violations, Violation{
				Code:       CodeType,
				Path:       path,
				Message:    fmt.Sprintf("field %q has type %s, want %s", def.Name, typeName(value), def.Type),
				Expected:   string(def.Type),
				Severity:   SeverityError,
				Suggestion: fmt.Sprintf("convert %q to %s", def.Name, def.Type),
				def:        def,
			})
			continue
		}

		if len(def.Enum) > 0 {
			text, _ := value.(string)
			if !contains(def.Enum, text) {
				violations = append(violations, Violation{
					Code:       CodeEnum,
					Path:       path,
					Message:    fmt.Sprintf("value %q is not an allowed %s", text, def.Name),
					Expected:   strings.Join(def.Enum, "|"),
					Severity:   SeverityError,
					Suggestion: fmt.Sprintf("use one of: %s", strings.Join(def.Enum, ", ")),
					def:        def,
				})
				continue
			}
		}

		if def.Type == TypeNumber && (def.Min != nil || def.Max != nil) {
			number, _ := value.(float64)
			if (def.Min != nil && number < *def.Min) || (def.Max != nil && number > *def.Max) {
				violations = append(violations, Violation{
					Code:       CodeRange,
					Path:       path,
					Message:    fmt.Sprintf("value %v is out of range for %q", number, def.Name),
					Severity:   SeverityWarning,
					Suggestion: "clamp to the nearest bound",
					def:        def,
				})
			}
		}

		if def.IsDate {
			text, _ := value.(string)
			if text != "" {
				if _, err := time.Parse(time.RFC3339, text); err != nil {
					violations = append(violations, Violation{
						Code:       CodeFormat,
						Path:       path,
						Message:    fmt.Sprintf("field %q is not an ISO-8601 date: %q", def.Name, text),
						Severity:   SeverityWarning,
						Suggestion: "reformat as RFC 3339",
						def:        def,
					})
				}
			}
		}
	}
	return violations
}

func checkSlideCount(metadata, doc map[string]any) []Violation {
	count, ok := metadata["slideCount"].(float64)
	if !ok {
		return nil
	}
	slides, ok := doc["slides"].([]any)
	if !ok {
		return nil
	}
	if int(count) == len(slides) {
		return nil
	}
	return []Violation{{
		Code:       CodeCount,
		Path:       "metadata/slideCount",
		Message:    fmt.Sprintf("slideCount is %d but document has %d slides", int(count), len(slides)),
		Severity:   SeverityWarning,
		Suggestion: "recompute slideCount from the slides array",
	}}
}

func checkIndexField(obj map[string]any, field string, expected int, basePath string) []Violation {
	value, ok := obj[field].(float64)
	if !ok || int(value) == expected {
		return nil
	}
	return []Violation{{
		Code:       CodeIndex,
		Path:       joinPath(basePath, field),
		Message:    fmt.Sprintf("%s is %d but array position is %d", field, int(value), expected),
		Severity:   SeverityWarning,
		Suggestion: "reindex to match the array position",
	}}
}

func splitViolations(violations []Violation) ([]Violation, []Warning) {
	errors := make([]Violation, 0, len(violations))
	warnings := make([]Warning, 0)
	for _, violation := range violations {
		if violation.Severity == SeverityError {
			errors = append(errors, violation)
			continue
		}
		warnings = append(warnings, Warning{
			Code:           violation.Code,
			Path:           violation.Path,
			Message:        violation.Message,
			Impact:         "low",
			Recommendation: violation.Suggestion,
		})
	}
	return errors, warnings
}

// adviseDocument produces the soft, non-blocking advisories. The author
// advisory covers absent and blank values alike, so externally submitted
// documents that never carried the key still get flagged.
func adviseDocument(doc map[string]any) []Warning {
	warnings := make([]Warning, 0)

	slides, _ := doc["slides"].([]any)

	if metadata, ok := doc["metadata"].(map[string]any); ok {
		if author, _ := metadata["author"].(string); strings.TrimSpace(author) == "" {
			warnings = append(warnings, Warning{
				Code:           "missing_author",
				Path:           "metadata/author",
				Message:        "author metadata is missing or empty",
				Impact:         "low",
				Recommendation: "set the document author for provenance tracking",
			})
		}
		if subject, present := metadata["subject"]; present {
			if text, _ := subject.(string); strings.TrimSpace(text) == "" {
				warnings = append(warnings, Warning{
					Code:           "missing_subject",
					Path:           "metadata/subject",
					Message:        "subject metadata is empty",
					Impact:         "low",
					Recommendation: "set a subject to aid search and cataloguing",
				})
			}
		}
	}

	for slideIndex, rawSlide := range slides {
		slide, ok := rawSlide.(map[string]any)
		if !ok {
			continue
		}
		slidePath := "slides/" + strconv.Itoa(slideIndex)

		shapes, _ := slide["shapes"].([]any)
		if len(shapes) == 0 {
			warnings = append(warnings, Warning{
				Code:           "empty_slide",
				Path:           slidePath,
				Message:        "slide has no shapes",
				Impact:         "medium",
				Recommendation: "remove the slide or add content",
			})
		}
		for shapeIndex, rawShape := range shapes {
			shape, ok := rawShape.(map[string]any)
			if !ok {
				continue
			}
			geometry, ok := shape["geometry"].(map[string]any)
			if !ok {
				continue
			}
			width, _ := geometry["width"].(float64)
			height, _ := geometry["height"].(float64)
			if width*height < 16 {
				warnings = append(warnings, Warning{
					Code:           "tiny_geometry",
					Path:           slidePath + "/shapes/" + strconv.Itoa(shapeIndex) + "/geometry",
					Message:        fmt.Sprintf("shape geometry is implausibly small (%gx%g)", width, height),
					Impact:         "medium",
					Recommendation: "verify the shape dimensions survived conversion",
				})
			}
		}
	}
	return warnings
}

func matchesType(value any, fieldType FieldType) bool {
	switch fieldType {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeNumber:
		_, ok := value.(float64)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeArray:
		_, ok := value.([]any)
		return ok
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	default:
		return false
	}
}

func typeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "null"
	}
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "/" + field
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
