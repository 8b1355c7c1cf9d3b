package schema

// The validator is driven by this declarative definition rather than
// hand-written checks, so fix suggestions, defaults, and coercions all
// derive from one table.

type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

type FieldDef struct {
	Name     string
	Type     FieldType
	Required bool
	Enum     []string
	Min      *float64
	Max      *float64
	IsDate   bool
	// Default is injected by the missing-required auto-fix.
	Default any
}

func numberPtr(value float64) *float64 {
	return &value
}

var documentFields = []FieldDef{
	{Name: "id", Type: TypeString, Required: true, Default: ""},
	{Name: "metadata", Type: TypeObject, Required: true, Default: map[string]any{}},
	{Name: "slideSize", Type: TypeObject, Required: true, Default: map[string]any{
		"width":  defaultSlideWidth,
		"height": defaultSlideHeight,
		"type":   defaultSlideType,
	}},
	{Name: "slides", Type: TypeArray, Required: true, Default: []any{}},
	{Name: "masterSlides", Type: TypeArray, Default: []any{}},
	{Name: "layoutSlides", Type: TypeArray, Default: []any{}},
	{Name: "theme", Type: TypeObject, Default: map[string]any{}},
}

var metadataFields = []FieldDef{
	{Name: "title", Type: TypeString, Required: true, Default: defaultTitle},
	{Name: "author", Type: TypeString, Default: defaultAuthor},
	{Name: "company", Type: TypeString, Default: ""},
	{Name: "subject", Type: TypeString, Default: ""},
	{Name: "slideCount", Type: TypeNumber, Required: true, Min: numberPtr(0), Default: 0.0},
	{Name: "createdAt", Type: TypeString, IsDate: true},
	{Name: "updatedAt", Type: TypeString, IsDate: true},
}

var slideSizeFields = []FieldDef{
	{Name: "width", Type: TypeNumber, Required: true, Min: numberPtr(1), Default: defaultSlideWidth},
	{Name: "height", Type: TypeNumber, Required: true, Min: numberPtr(1), Default: defaultSlideHeight},
	{Name: "type", Type: TypeString, Default: defaultSlideType},
}

var slideFields = []FieldDef{
	{Name: "slideIndex", Type: TypeNumber, Required: true, Min: numberPtr(0), Default: 0.0},
	{Name: "slideId", Type: TypeString, Default: ""},
	{Name: "name", Type: TypeString, Default: ""},
	{Name: "slideType", Type: TypeString, Default: "slide"},
	{Name: "shapes", Type: TypeArray, Required: true, Default: []any{}},
	{Name: "notes", Type: TypeString, Default: ""},
	{Name: "transition", Type: TypeString, Default: "none"},
}

var shapeFields = []FieldDef{
	{Name: "shapeIndex", Type: TypeNumber, Required: true, Min: numberPtr(0), Default: 0.0},
	{Name: "shapeType", Type: TypeString, Required: true, Enum: ShapeTypes, Default: string(ShapeUnknown)},
	{Name: "name", Type: TypeString, Default: ""},
	{Name: "geometry", Type: TypeObject, Required: true, Default: map[string]any{
		"x": 0.0, "y": 0.0, "width": 100.0, "height": 100.0, "rotation": 0.0,
	}},
}

// Rotation is clamped into [0,360); the max bound sits just under 360 so
// range repair never produces an out-of-domain value.
var geometryFields = []FieldDef{
	{Name: "x", Type: TypeNumber, Required: true, Default: 0.0},
	{Name: "y", Type: TypeNumber, Required: true, Default: 0.0},
	{Name: "width", Type: TypeNumber, Required: true, Min: numberPtr(0), Default: 100.0},
	{Name: "height", Type: TypeNumber, Required: true, Min: numberPtr(0), Default: 100.0},
	{Name: "rotation", Type: TypeNumber, Min: numberPtr(0), Max: numberPtr(359.999), Default: 0.0},
}
