// Package worker executes claimed jobs end to end: file validation,
// engine extraction, enrichment, schema assembly, and validation for the
// forward pipeline, plus the rebuild and render job families.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
	"github.com/anlaklab/simple-luna-sub003/internal/engine"
	"github.com/anlaklab/simple-luna-sub003/internal/enricher"
	"github.com/anlaklab/simple-luna-sub003/internal/extractor"
	"github.com/anlaklab/simple-luna-sub003/internal/jobstore"
	"github.com/anlaklab/simple-luna-sub003/internal/schema"
	"github.com/anlaklab/simple-luna-sub003/internal/storage"
)

// Pipeline progress checkpoints for the forward conversion.
const (
	progressValidated = 10
	progressExtracted = 20
	progressEnriched  = 60
	progressBuilt     = 80
)

type Processor struct {
	engine    engine.Engine
	extractor *extractor.Extractor
	enricher  *enricher.Enricher
	builder   *schema.Builder
	validator *schema.Validator
	store     storage.Store
	logger    *log.Logger
}

func NewProcessor(
	eng engine.Engine,
	ext *extractor.Extractor,
	enr *enricher.Enricher,
	builder *schema.Builder,
	validator *schema.Validator,
	store storage.Store,
	logger *log.Logger,
) *Processor {
	return &Processor{
		engine:    eng,
		extractor: ext,
		enricher:  enr,
		builder:   builder,
		validator: validator,
		store:     store,
		logger:    logger,
	}
}

// Run dispatches on the job type. Returned errors carry a domain error
// code so the API can classify the failure.
func (p *Processor) Run(
	ctx context.Context,
	envelope jobstore.Envelope,
	progress func(int),
) (json.RawMessage, map[string]any, error) {
	switch envelope.Type {
	case domain.JobTypePPTX2JSON:
		return p.runExtract(ctx, envelope.Payload, progress)
	case domain.JobTypeExtractMetadata:
		return p.runExtractMetadata(ctx, envelope.Payload)
	case domain.JobTypeJSON2PPTX:
		return p.runReconstruct(ctx, envelope.Payload, progress)
	case domain.JobTypeThumbnails, domain.JobTypeExtractAssets:
		return p.runRender(ctx, envelope.Payload, progress)
	default:
		return nil, nil, domain.NewError(domain.ErrCodeValidation, fmt.Sprintf("unknown job type %q", envelope.Type))
	}
}

// runExtract is the forward pipeline: source file to universal document.
func (p *Processor) runExtract(
	ctx context.Context,
	payload json.RawMessage,
	progress func(int),
) (json.RawMessage, map[string]any, error) {
	var request domain.ExtractPayload
	if err := json.Unmarshal(payload, &request); err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeValidation, err, "decode extract payload")
	}

	if err := extractor.ValidateFile(request.FilePath); err != nil {
		return nil, nil, err
	}
	progress(progressValidated)

	doc, err := p.openDocument(ctx, request.FilePath)
	if err != nil {
		return nil, nil, err
	}
	defer doc.Close(context.WithoutCancel(ctx))

	tree, report := p.extractor.Extract(doc, request.FilePath)
	progress(progressExtracted)
	if err := ctx.Err(); err != nil {
		return nil, nil, cancelError(err)
	}

	enrichStats := enricher.Stats{}
	for index := range tree.Slides {
		enrichStats.Add(p.enricher.EnrichSlide(&tree.Slides[index]))
	}
	progress(progressEnriched)
	if err := ctx.Err(); err != nil {
		return nil, nil, cancelError(err)
	}

	document, err := p.builder.Build(schema.BuildInput{
		SourceProperties: schema.SourceProperties{
			Title:     tree.Properties.Title,
			Author:    tree.Properties.Author,
			Company:   tree.Properties.Company,
			Subject:   tree.Properties.Subject,
			CreatedAt: tree.Properties.CreatedAt,
			UpdatedAt: tree.Properties.UpdatedAt,
		},
		SlideSize:            tree.SlideSize,
		Slides:               tree.Slides,
		MasterSlides:         tree.MasterSlides,
		LayoutSlides:         tree.LayoutSlides,
		Theme:                tree.Theme,
		ExtractionDurationMS: report.DurationMS,
	})
	if err != nil {
		return nil, nil, err
	}
	progress(progressBuilt)

	metadata := map[string]any{
		"original_name":     request.OriginalName,
		"slides_extracted":  report.SlideCount,
		"slides_failed":     report.SlidesFailed,
		"shapes_extracted":  report.ShapeCount,
		"shapes_failed":     report.ShapesFailed,
		"shapes_enriched":   enrichStats.Enriched,
		"enrichment_failed": enrichStats.Failed,
	}

	if !request.Options.ValidateSchema {
		result, err := json.Marshal(map[string]any{"document": document})
		if err != nil {
			return nil, nil, domain.WrapError(domain.ErrCodeInternal, err, "encode result")
		}
		return result, metadata, nil
	}

	validation, err := p.validator.ValidateDocument(document, schema.FixOptions{
		AutoFix:       request.Options.AutoFix,
		SynthesizeIDs: request.Options.SynthesizeIDs,
	})
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeSchema, err, "validate document")
	}

	resultDocument := any(document)
	if validation.FixedDocument != nil {
		resultDocument = validation.FixedDocument
	}
	metadata["validation_errors"] = len(validation.Errors)
	metadata["validation_warnings"] = len(validation.Warnings)
	metadata["fixes_applied"] = len(validation.FixesApplied)

	result, err := json.Marshal(map[string]any{
		"document":   resultDocument,
		"validation": validation,
		"compliance": schema.BuildComplianceReport(validation),
	})
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, err, "encode result")
	}
	return result, metadata, nil
}

// runExtractMetadata reads only the document properties, skipping the
// slide walk entirely.
func (p *Processor) runExtractMetadata(
	ctx context.Context,
	payload json.RawMessage,
) (json.RawMessage, map[string]any, error) {
	var request domain.ExtractPayload
	if err := json.Unmarshal(payload, &request); err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeValidation, err, "decode extract payload")
	}

	if err := extractor.ValidateFile(request.FilePath); err != nil {
		return nil, nil, err
	}

	doc, err := p.openDocument(ctx, request.FilePath)
	if err != nil {
		return nil, nil, err
	}
	defer doc.Close(context.WithoutCancel(ctx))

	graph := doc.Graph()
	result, err := json.Marshal(map[string]any{
		"properties": graph.Properties,
		"slideSize":  graph.SlideSize,
		"slideCount": len(graph.Slides),
	})
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, err, "encode result")
	}
	return result, nil, nil
}

// runReconstruct rebuilds a native presentation from universal schema
// JSON and uploads the artifact.
func (p *Processor) runReconstruct(
	ctx context.Context,
	payload json.RawMessage,
	progress func(int),
) (json.RawMessage, map[string]any, error) {
	var request domain.ReconstructPayload
	if err := json.Unmarshal(payload, &request); err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeValidation, err, "decode reconstruct payload")
	}
	if len(request.Document) == 0 {
		return nil, nil, domain.NewError(domain.ErrCodeValidation, "reconstruct requires a document")
	}

	validation, err := p.validator.ValidateJSON(request.Document, schema.FixOptions{AutoFix: true})
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeValidation, err, "document is not valid JSON")
	}
	if !validation.IsValid {
		return nil, nil, domain.NewError(
			domain.ErrCodeSchema,
			fmt.Sprintf("document failed schema validation with %d unfixable errors", len(validation.Errors)),
		)
	}
	document := request.Document
	if validation.FixedDocument != nil {
		if fixed, err := json.Marshal(validation.FixedDocument); err == nil {
			document = fixed
		}
	}
	progress(progressValidated)

	artifact, err := p.engine.Build(ctx, document)
	if err != nil {
		return nil, nil, engineError(ctx, "build presentation", err)
	}
	progress(progressBuilt)

	name := request.OutputName
	if name == "" {
		name = "presentation.pptx"
	}
	url, err := p.store.Upload(
		ctx,
		artifact,
		name,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, err, "store artifact")
	}

	result, err := json.Marshal(map[string]any{"url": url, "size_bytes": len(artifact)})
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, err, "encode result")
	}
	return result, map[string]any{"output_name": name}, nil
}

// runRender serves thumbnails and extract-assets: render through the
// engine, upload every asset, return their URLs.
func (p *Processor) runRender(
	ctx context.Context,
	payload json.RawMessage,
	progress func(int),
) (json.RawMessage, map[string]any, error) {
	var request domain.RenderPayload
	if err := json.Unmarshal(payload, &request); err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeValidation, err, "decode render payload")
	}

	if err := extractor.ValidateFile(request.FilePath); err != nil {
		return nil, nil, err
	}
	progress(progressValidated)

	doc, err := p.openDocument(ctx, request.FilePath)
	if err != nil {
		return nil, nil, err
	}
	defer doc.Close(context.WithoutCancel(ctx))

	format := request.Format
	if format == "" {
		format = "png"
	}
	assets, err := doc.Render(ctx, engine.RenderOptions{
		Format: format,
		Width:  request.Width,
		Height: request.Height,
	})
	if err != nil {
		return nil, nil, engineError(ctx, "render document", err)
	}
	progress(progressEnriched)

	uploaded := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		url, err := p.store.Upload(ctx, asset.Data, asset.Name, asset.MimeType)
		if err != nil {
			return nil, nil, domain.WrapError(domain.ErrCodeInternal, err, "store asset")
		}
		uploaded = append(uploaded, map[string]any{
			"name":       asset.Name,
			"mime_type":  asset.MimeType,
			"url":        url,
			"size_bytes": len(asset.Data),
		})
	}
	progress(progressBuilt)

	result, err := json.Marshal(map[string]any{"assets": uploaded, "count": len(uploaded)})
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, err, "encode result")
	}
	return result, map[string]any{"asset_count": len(uploaded)}, nil
}

func (p *Processor) openDocument(ctx context.Context, filePath string) (engine.Document, error) {
	doc, err := p.engine.Open(ctx, filePath)
	if err != nil {
		return nil, engineError(ctx, "open document", err)
	}
	return doc, nil
}

// engineError classifies an engine failure into the domain taxonomy.
func engineError(ctx context.Context, operation string, err error) error {
	if ctx.Err() != nil {
		return cancelError(ctx.Err())
	}
	switch {
	case errors.Is(err, engine.ErrUnsupportedFormat), errors.Is(err, engine.ErrCorruptDocument):
		return domain.WrapError(domain.ErrCodeFile, err, operation)
	case errors.Is(err, engine.ErrUnavailable):
		return domain.WrapError(domain.ErrCodeServiceUnavailable, err, operation)
	default:
		return domain.WrapError(domain.ErrCodeExtraction, err, operation)
	}
}

func cancelError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrCodeTimeout, err, "job deadline exceeded")
	}
	return domain.WrapError(domain.ErrCodeCancelled, err, "job cancelled")
}
