// Package pipeline is the routing state machine at the top of the
// ingestion flow. One upload event names a bucket and key; the top-level
// folder of the key selects which sub-pipeline runs:
//
//	InitialUpload   - parse, catalog-validate, header-validate, relocate
//	ConversionFiles - bulk-load rows, BU split, flip the catalog flag
//	TSQLFiles       - parse the load script name and tag it
//
// Every component failure is converted into the closed quarantine taxonomy
// at this boundary; nothing propagates past HandleEvent except an
// unrecognized top-level folder, which is returned as a structured error
// with no side effects.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"conversionloader/internal/busplit"
	"conversionloader/internal/catalog"
	"conversionloader/internal/db"
	"conversionloader/internal/objectstore"
	"conversionloader/internal/quarantine"
)

// ErrUnknownStage is returned when the key's top-level folder is not one
// of the three fixed stages.
var ErrUnknownStage = errors.New("unrecognized stage folder")

// Pipeline wires the collaborators for one deployment. Each file event is
// processed to completion on the calling goroutine; there is no internal
// parallelism across files.
type Pipeline struct {
	store    objectstore.Store
	database db.DB
	catalog  *catalog.Catalog
	reloc    *quarantine.Relocator
	splitter *busplit.Publisher
	log      *slog.Logger
}

// New builds a Pipeline from explicit collaborator handles; tests
// substitute fakes for any of them.
func New(store objectstore.Store, database db.DB, cat *catalog.Catalog, reloc *quarantine.Relocator, splitter *busplit.Publisher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    store,
		database: database,
		catalog:  cat,
		reloc:    reloc,
		splitter: splitter,
		log:      logger,
	}
}

// HandleEvent processes one uploaded file. rawKey arrives URL-shaped from
// the event source: `+` stands in for a space and is decoded exactly once,
// before any store lookup.
func (p *Pipeline) HandleEvent(ctx context.Context, bucket, rawKey string) error {
	key := strings.ReplaceAll(rawKey, "+", " ")
	stage, _, _ := strings.Cut(strings.TrimLeft(key, "/"), "/")

	log := p.log.With("bucket", bucket, "key", key, "stage", stage)
	log.Info("processing upload event")

	switch stage {
	case quarantine.StageInitialUpload:
		return p.handleInitialUpload(ctx, bucket, key, log)
	case quarantine.StageConversionFiles:
		return p.handleConversion(ctx, bucket, key, log)
	case quarantine.StageTSQLFiles:
		return p.handleScript(ctx, bucket, key, log)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
}
