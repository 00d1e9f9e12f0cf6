package pipeline

import (
	"context"
	"log/slog"
	"path"

	"conversionloader/internal/catalog"
	"conversionloader/internal/csvutil"
	"conversionloader/internal/domain"
	"conversionloader/internal/filename"
	"conversionloader/internal/header"
	"conversionloader/internal/quarantine"
	"conversionloader/internal/tags"
)

// fileCategoryExtract tags freshly staged data files.
const fileCategoryExtract = "Extract"

// handleInitialUpload validates a staged data file's identity and shape,
// then relocates it: forward to the conversion stage when clean, into the
// quarantine folder when the ledger records any failure.
func (p *Pipeline) handleInitialUpload(ctx context.Context, bucket, key string, log *slog.Logger) error {
	name := path.Base(key)
	meta, parsed := filename.Parse(name)

	fileTags := tags.FromMetadata(meta)
	fileTags[tags.KeyFileCategory] = fileCategoryExtract

	var result domain.ValidationResult
	if parsed {
		r, err := p.catalog.Validate(ctx, meta)
		if err != nil {
			// A failed lookup validates the same as no match.
			log.Error("catalog validation query", "err", err)
		} else {
			result = r
		}
	}

	if !result.Found() {
		// Tags go on even unvalidated so the error artifact can cite them.
		_, err := p.reloc.Quarantine(ctx, bucket, key, quarantine.Failure{Category: quarantine.FileNameValidation}, fileTags)
		return err
	}

	// Canonical values from the catalog win over parsed ones.
	fileTags[tags.KeyTableName] = result.Field(catalog.FieldTableName)
	if sub := result.Field(catalog.FieldSubEntity); sub != "" {
		fileTags[tags.KeyDataEntity] = sub
	}
	entityFolder := result.Field(catalog.FieldEntityStructure)

	if result.Field(catalog.FieldFileExpected) != "Yes" {
		_, err := p.reloc.Quarantine(ctx, bucket, key, quarantine.Failure{Category: quarantine.ExpectedFileValidation}, fileTags)
		return err
	}
	fileTags.AppendWarning("File Expected Validation: Pass")

	if err := p.store.PutTags(ctx, bucket, key, fileTags); err != nil {
		log.Error("tag staged file", "err", err)
	}

	p.validateHeaders(ctx, bucket, key, fileTags, log)

	newKey, err := p.reloc.Relocate(ctx, bucket, key, fileTags, entityFolder)
	if err != nil {
		return err
	}
	log.Info("initial upload complete", "destination", newKey)
	return nil
}

// validateHeaders compares the file's first row against the catalog's
// expected column list. A mismatch appends to the ledger and emits the
// positional comparison artifact; a full match is silent. Processing
// continues either way; the final relocation inspects the ledger.
func (p *Pipeline) validateHeaders(ctx context.Context, bucket, key string, fileTags tags.Set, log *slog.Logger) {
	content, err := p.store.Get(ctx, bucket, key)
	if err != nil {
		log.Error("read file for header validation", "err", err)
		return
	}
	csvHeaders, err := csvutil.Header(content)
	if err != nil {
		log.Error("parse first line for header validation", "err", err)
		return
	}

	dbHeaders, err := p.catalog.ExpectedColumns(ctx, fileTags[tags.KeyMockNumber], fileTags[tags.KeyTableName])
	if err != nil || len(dbHeaders) == 0 {
		log.Error("expected columns lookup", "err", err)
		return
	}

	results := header.Compare(csvHeaders, dbHeaders)
	if !header.AnyMismatch(results) {
		return
	}

	parentView := fileTags.Clone()
	fileTags.AppendWarning(quarantine.HeaderValidation.Phrase())
	if err := p.store.PutTags(ctx, bucket, key, fileTags); err != nil {
		log.Error("update ledger after header mismatch", "err", err)
	}
	f := quarantine.Failure{Category: quarantine.HeaderValidation, Comparisons: results}
	if _, err := p.reloc.WriteArtifact(ctx, bucket, key, f, parentView); err != nil {
		log.Error("write header validation artifact", "err", err)
	}
}
