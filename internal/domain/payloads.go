package domain

import "encoding/json"

// ExtractOptions tunes the pptx2json pipeline for one job.
type ExtractOptions struct {
	ValidateSchema bool `json:"validate_schema"`
	AutoFix        bool `json:"auto_fix"`
	SynthesizeIDs  bool `json:"synthesize_ids"`
}

// ExtractPayload is the stored request for extraction-family jobs.
type ExtractPayload struct {
	FilePath     string         `json:"file_path"`
	OriginalName string         `json:"original_name"`
	UserID       string         `json:"user_id,omitempty"`
	Options      ExtractOptions `json:"options"`
}

// ReconstructPayload is the stored request for json2pptx jobs.
type ReconstructPayload struct {
	Document   json.RawMessage `json:"document"`
	OutputName string          `json:"output_name"`
}

// RenderPayload is the stored request for thumbnails/extract-assets jobs.
type RenderPayload struct {
	FilePath string `json:"file_path"`
	Format   string `json:"format"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}
