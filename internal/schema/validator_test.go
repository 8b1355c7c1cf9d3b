package schema

import (
	"encoding/json"
	"testing"
	"time"
)

func validDocument() map[string]any {
	return map[string]any{
		"id": "presentation_test",
		"metadata": map[string]any{
			"title":      "Quarterly Review",
			"author":     "Dana",
			"slideCount": 1.0,
			"createdAt":  time.Now().UTC().Format(time.RFC3339),
		},
		"slideSize": map[string]any{"width": 960.0, "height": 540.0, "type": "widescreen"},
		"slides": []any{
			map[string]any{
				"slideIndex": 0.0,
				"shapes": []any{
					map[string]any{
						"shapeIndex": 0.0,
						"shapeType":  "textBox",
						"geometry": map[string]any{
							"x": 10.0, "y": 10.0, "width": 300.0, "height": 120.0, "rotation": 0.0,
						},
					},
				},
			},
		},
	}
}

func TestValidateAcceptsValidDocument(t *testing.T) {
	validator := NewValidator(nil)

	result := validator.Validate(validDocument(), FixOptions{})
	if !result.IsValid {
		t.Fatalf("expected valid document, got errors: %+v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %d", len(result.Errors))
	}
}

func TestValidateEmptyDeckHasNoWarnings(t *testing.T) {
	validator := NewValidator(nil)
	doc := map[string]any{
		"id": "presentation_empty",
		"metadata": map[string]any{
			"title":      "Empty",
			"author":     "Dana",
			"slideCount": 0.0,
		},
		"slideSize": map[string]any{"width": 960.0, "height": 540.0, "type": "widescreen"},
		"slides":    []any{},
	}

	result := validator.Validate(doc, FixOptions{})
	if !result.IsValid {
		t.Fatalf("expected valid document, got errors: %+v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings for an empty deck, got %+v", result.Warnings)
	}
}

func TestValidateMissingRequiredGeometryWidth(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	shape := doc["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	geometry := shape["geometry"].(map[string]any)
	delete(geometry, "width")

	result := validator.Validate(doc, FixOptions{})
	if result.IsValid {
		t.Fatal("expected invalid document")
	}

	found := false
	for _, violation := range result.Errors {
		if violation.Code == CodeRequired && violation.Path == "slides/0/shapes/0/geometry/width" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected required violation for geometry width, got %+v", result.Errors)
	}
}

func TestAutoFixInjectsGeometryWidthDefault(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	shape := doc["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	delete(shape["geometry"].(map[string]any), "width")

	result := validator.Validate(doc, FixOptions{AutoFix: true})
	if !result.IsValid {
		t.Fatalf("expected fixed document to be valid, residual: %+v", result.Errors)
	}

	fixedShape := result.FixedDocument["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	width := fixedShape["geometry"].(map[string]any)["width"].(float64)
	if width != 100 {
		t.Fatalf("expected default width 100, got %v", width)
	}

	// The caller's document must stay untouched.
	original := doc["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	if _, present := original["geometry"].(map[string]any)["width"]; present {
		t.Fatal("auto-fix mutated the input document")
	}
}

func TestAutoFixCoercesStringNumber(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	doc["metadata"].(map[string]any)["slideCount"] = "1"

	result := validator.Validate(doc, FixOptions{AutoFix: true})
	if !result.IsValid {
		t.Fatalf("expected valid after coercion, residual: %+v", result.Errors)
	}
	count := result.FixedDocument["metadata"].(map[string]any)["slideCount"].(float64)
	if count != 1 {
		t.Fatalf("expected slideCount 1 after coercion, got %v", count)
	}
}

func TestAutoFixResetsUnknownShapeType(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	shape := doc["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	shape["shapeType"] = "hologram"

	result := validator.Validate(doc, FixOptions{AutoFix: true})
	if !result.IsValid {
		t.Fatalf("expected valid after enum reset, residual: %+v", result.Errors)
	}
	fixedShape := result.FixedDocument["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	shapeType := fixedShape["shapeType"].(string)
	if shapeType != ShapeTypes[0] {
		t.Fatalf("expected first allowed shape type %q, got %q", ShapeTypes[0], shapeType)
	}
}

func TestAutoFixClampsRotation(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	shape := doc["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	shape["geometry"].(map[string]any)["rotation"] = 540.0

	result := validator.Validate(doc, FixOptions{AutoFix: true})
	fixedShape := result.FixedDocument["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	rotation := fixedShape["geometry"].(map[string]any)["rotation"].(float64)
	if rotation < 0 || rotation >= 360 {
		t.Fatalf("expected rotation clamped into [0,360), got %v", rotation)
	}
}

func TestAutoFixReconcilesScrambledIndexes(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	slides := doc["slides"].([]any)
	slides[0].(map[string]any)["slideIndex"] = 7.0
	shape := slides[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	shape["shapeIndex"] = 3.0
	doc["metadata"].(map[string]any)["slideCount"] = 9.0

	result := validator.Validate(doc, FixOptions{AutoFix: true})
	if !result.IsValid {
		t.Fatalf("expected valid after reconcile, residual: %+v", result.Errors)
	}

	fixedSlide := result.FixedDocument["slides"].([]any)[0].(map[string]any)
	if fixedSlide["slideIndex"].(float64) != 0 {
		t.Fatalf("expected slideIndex reconciled to 0, got %v", fixedSlide["slideIndex"])
	}
	fixedShape := fixedSlide["shapes"].([]any)[0].(map[string]any)
	if fixedShape["shapeIndex"].(float64) != 0 {
		t.Fatalf("expected shapeIndex reconciled to 0, got %v", fixedShape["shapeIndex"])
	}
	if result.FixedDocument["metadata"].(map[string]any)["slideCount"].(float64) != 1 {
		t.Fatal("expected slideCount reconciled to 1")
	}
}

func TestAutoFixSynthesizesIDs(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()

	result := validator.Validate(doc, FixOptions{AutoFix: true, SynthesizeIDs: true})
	fixedSlide := result.FixedDocument["slides"].([]any)[0].(map[string]any)
	if fixedSlide["slideId"] != "slide_0" {
		t.Fatalf("expected synthesized slideId slide_0, got %v", fixedSlide["slideId"])
	}
	fixedShape := fixedSlide["shapes"].([]any)[0].(map[string]any)
	if fixedShape["id"] != "slide_0_shape_0" {
		t.Fatalf("expected synthesized shape id slide_0_shape_0, got %v", fixedShape["id"])
	}
}

func TestAutoFixIsIdempotent(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	shape := doc["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	delete(shape["geometry"].(map[string]any), "width")
	shape["shapeType"] = "hologram"

	first := validator.Validate(doc, FixOptions{AutoFix: true})
	second := validator.Validate(first.FixedDocument, FixOptions{AutoFix: true})

	if !second.IsValid {
		t.Fatalf("expected second pass valid, residual: %+v", second.Errors)
	}
	for _, fix := range second.FixesApplied {
		if fix.Action != "synthesize_id" {
			t.Fatalf("expected no structural fixes on second pass, got %+v", fix)
		}
	}
}

func TestAutoFixZeroValueFallback(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	shape := doc["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	shape["geometry"].(map[string]any)["width"] = "wide"

	result := validator.Validate(doc, FixOptions{AutoFix: true})
	if !result.IsValid {
		t.Fatalf("expected valid document after zero-value coercion, errors: %+v", result.Errors)
	}

	fixedShape := result.FixedDocument["slides"].([]any)[0].(map[string]any)["shapes"].([]any)[0].(map[string]any)
	width, ok := fixedShape["geometry"].(map[string]any)["width"].(float64)
	if !ok || width != 0 {
		t.Fatalf("expected uncoercible width reset to 0, got %v", fixedShape["geometry"].(map[string]any)["width"])
	}
}

func TestAutoFixLeavesUnfixableErrors(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	doc["slides"] = append(doc["slides"].([]any), "not a slide")
	doc["metadata"].(map[string]any)["slideCount"] = 2.0

	result := validator.Validate(doc, FixOptions{AutoFix: true})
	if result.IsValid {
		t.Fatal("expected residual error for non-object slide")
	}
	found := false
	for _, violation := range result.Errors {
		if violation.Path == "slides/1" && violation.Code == CodeType {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected residual type error on slide, got %+v", result.Errors)
	}
}

func TestValidateAdvisoryWarnings(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	doc["metadata"].(map[string]any)["author"] = "  "
	doc["metadata"].(map[string]any)["subject"] = ""
	doc["slides"] = append(doc["slides"].([]any), map[string]any{
		"slideIndex": 1.0,
		"shapes":     []any{},
	})
	doc["metadata"].(map[string]any)["slideCount"] = 2.0

	result := validator.Validate(doc, FixOptions{})
	codes := map[string]bool{}
	for _, warning := range result.Warnings {
		codes[warning.Code] = true
	}
	for _, expected := range []string{"missing_author", "missing_subject", "empty_slide"} {
		if !codes[expected] {
			t.Fatalf("expected advisory %q, warnings: %+v", expected, result.Warnings)
		}
	}
	if !result.IsValid {
		t.Fatalf("advisories must not block validity, errors: %+v", result.Errors)
	}
}

func TestValidateAbsentAuthorKeyWarns(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	delete(doc["metadata"].(map[string]any), "author")

	result := validator.Validate(doc, FixOptions{})
	if !result.IsValid {
		t.Fatalf("advisories must not block validity, errors: %+v", result.Errors)
	}
	foundAuthor := false
	for _, warning := range result.Warnings {
		switch warning.Code {
		case "missing_author":
			foundAuthor = true
		case "missing_subject":
			// Subject only warns when present and blank.
			t.Fatalf("absent subject key must not warn, warnings: %+v", result.Warnings)
		}
	}
	if !foundAuthor {
		t.Fatalf("expected missing_author for a document without the key, warnings: %+v", result.Warnings)
	}
}

func TestValidateDateRepair(t *testing.T) {
	validator := NewValidator(nil)
	doc := validDocument()
	doc["metadata"].(map[string]any)["createdAt"] = "2024-03-05 14:30:00"

	result := validator.Validate(doc, FixOptions{AutoFix: true})
	repaired := result.FixedDocument["metadata"].(map[string]any)["createdAt"].(string)
	if _, err := time.Parse(time.RFC3339, repaired); err != nil {
		t.Fatalf("expected repaired RFC 3339 date, got %q", repaired)
	}
}

func TestValidateJSONRejectsMalformed(t *testing.T) {
	validator := NewValidator(nil)
	if _, err := validator.ValidateJSON(json.RawMessage(`{`), FixOptions{}); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestComplianceReportScoring(t *testing.T) {
	result := &Result{
		IsValid: false,
		Errors: []Violation{
			{Code: CodeRequired, Path: "metadata/title", Severity: SeverityError},
			{Code: CodeType, Path: "slides/0/shapes/0/shapeType", Severity: SeverityError},
		},
		Warnings: []Warning{
			{Code: "empty_slide", Path: "slides/1"},
		},
		FixesApplied: []Fix{},
	}

	report := BuildComplianceReport(result)
	if report.Score != 78 {
		t.Fatalf("expected score 78, got %v", report.Score)
	}
	if report.Sections["metadata"].Errors != 1 {
		t.Fatalf("expected 1 metadata error, got %d", report.Sections["metadata"].Errors)
	}
	if report.Sections["shapes"].Errors != 1 {
		t.Fatalf("expected 1 shapes error, got %d", report.Sections["shapes"].Errors)
	}
	if report.Sections["slides"].Warnings != 1 {
		t.Fatalf("expected 1 slides warning, got %d", report.Sections["slides"].Warnings)
	}
}
