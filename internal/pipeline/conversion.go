package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"conversionloader/internal/busplit"
	"conversionloader/internal/csvutil"
	"conversionloader/internal/loader"
	"conversionloader/internal/quarantine"
	"conversionloader/internal/tags"
)

// handleConversion bulk-loads a conversion file's rows through its
// reference-load script, splits the result by business unit when the
// catalog configures a split column, and flips the catalog's
// file-expected flag. Any failure quarantines the file and halts.
func (p *Pipeline) handleConversion(ctx context.Context, bucket, key string, log *slog.Logger) error {
	fileTags, err := p.store.GetTags(ctx, bucket, key)
	if err != nil {
		// Nothing to quarantine if the file is gone (for example a
		// redelivered event for an already-relocated file).
		return fmt.Errorf("read tags of %s: %w", key, err)
	}
	parentFileName := path.Base(key)

	content, err := p.store.Get(ctx, bucket, key)
	if err != nil {
		return p.quarantineConversion(ctx, bucket, key, quarantine.Failure{
			Category: quarantine.CSVRead,
			Message:  fmt.Sprintf("The following error occurred while reading CSV file: %v", err),
		}, fileTags)
	}
	hdr, rows, err := csvutil.ReadAll(content)
	if err != nil {
		return p.quarantineConversion(ctx, bucket, key, quarantine.Failure{
			Category: quarantine.CSVRead,
			Message:  fmt.Sprintf("The following error occurred while reading CSV file: %v", err),
		}, fileTags)
	}

	stmt, err := p.loadScript(ctx, bucket, fileTags)
	if err != nil {
		return p.quarantineConversion(ctx, bucket, key, quarantine.Failure{
			Category: quarantine.ScriptNotFound,
			Message:  fmt.Sprintf("No TSQL Upload File found for %s.", parentFileName),
		}, fileTags)
	}

	if err := loader.Load(ctx, p.database, stmt, rows); err != nil {
		var pce *loader.ParamCountError
		if errors.As(err, &pce) {
			return p.quarantineConversion(ctx, bucket, key, quarantine.Failure{
				Category: quarantine.ParamCount,
				Message: fmt.Sprintf("Load file %s has a total of %d parameters. Nonetheless; the TSQL file expects %d parameters.",
					parentFileName, pce.Provided, pce.Expected),
			}, fileTags)
		}
		return p.quarantineConversion(ctx, bucket, key, quarantine.Failure{
			Category: quarantine.InsertRows,
			Message:  fmt.Sprintf("Could not load %s because of the following error: %v", parentFileName, err),
		}, fileTags)
	}
	log.Info("loaded conversion file", "rows", len(rows))

	mock := fileTags[tags.KeyMockNumber]
	table := fileTags[tags.KeyTableName]

	splitColumn, err := p.catalog.SplitField(ctx, mock, table)
	switch {
	case err != nil:
		log.Error("split field lookup", "err", err)
	case splitColumn == "":
		log.Info("no BU split field configured", "table", table)
	case busplit.KeyIndex(hdr, splitColumn) < 0:
		log.Warn("BU split column not present in file", "column", splitColumn)
	default:
		if err := p.splitter.Publish(ctx, bucket, key, hdr, rows, splitColumn, fileTags); err != nil {
			log.Error("publish BU split artifacts", "err", err)
		}
	}

	// Advisory flag for future routing; already-loaded rows stay correct
	// even when this write is lost.
	if err := p.catalog.MarkFileLoaded(ctx, mock, table); err != nil {
		log.Error("flip file_expected flag", "err", err)
	}
	return nil
}

// loadScript locates the reference-load script whose tags match the
// conversion file's identity and returns its content.
func (p *Pipeline) loadScript(ctx context.Context, bucket string, fileTags tags.Set) (string, error) {
	scriptKey, err := p.findLoadScript(ctx, bucket, fileTags)
	if err != nil {
		return "", err
	}
	if scriptKey == "" {
		return "", fmt.Errorf("no load script matches tags")
	}
	content, err := p.store.Get(ctx, bucket, scriptKey)
	if err != nil {
		return "", fmt.Errorf("read load script %s: %w", scriptKey, err)
	}
	return strings.TrimSpace(string(content)), nil
}

// findLoadScript scans the script stage for the first object whose
// identity tags equal the file's. Only the four identity keys
// participate in the match.
func (p *Pipeline) findLoadScript(ctx context.Context, bucket string, fileTags tags.Set) (string, error) {
	keys, err := p.store.List(ctx, bucket, quarantine.StageTSQLFiles+"/")
	if err != nil {
		return "", err
	}
	required := []string{tags.KeyPillar, tags.KeyDataEntity, tags.KeyMockNumber, tags.KeySource}
	for _, key := range keys {
		scriptTags, err := p.store.GetTags(ctx, bucket, key)
		if err != nil {
			return "", err
		}
		matched := true
		for _, k := range required {
			if want, ok := fileTags[k]; ok && scriptTags[k] != want {
				matched = false
				break
			}
		}
		if matched {
			return key, nil
		}
	}
	return "", nil
}

// quarantineConversion funnels every conversion failure through the
// relocator; the quarantine error, if any, supersedes the original.
func (p *Pipeline) quarantineConversion(ctx context.Context, bucket, key string, f quarantine.Failure, fileTags tags.Set) error {
	if _, err := p.reloc.Quarantine(ctx, bucket, key, f, fileTags); err != nil {
		return err
	}
	return nil
}
