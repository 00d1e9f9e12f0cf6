package pipeline

import (
	"context"
	"log/slog"
	"path"

	"conversionloader/internal/catalog"
	"conversionloader/internal/filename"
	"conversionloader/internal/tags"
)

// handleScript tags an uploaded load script with the identity parsed from
// its name. Scripts are never quarantined; an unparseable name is logged
// and the object is left untouched so it can be renamed in place.
func (p *Pipeline) handleScript(ctx context.Context, bucket, key string, log *slog.Logger) error {
	name := path.Base(key)
	meta, ok := filename.ParseScript(name)
	if !ok {
		log.Warn("script name does not parse, leaving untagged")
		return nil
	}

	scriptTags := tags.FromMetadata(meta)
	if len(scriptTags) == 0 {
		log.Warn("script name yields no identity tags")
		return nil
	}

	result, err := p.catalog.Validate(ctx, meta)
	if err != nil {
		log.Error("catalog lookup for script", "err", err)
	}
	if result.Found() {
		if table := result.Field(catalog.FieldTableName); table != "" {
			scriptTags[tags.KeyTableName] = table
		}
	} else {
		log.Warn("script has no conversion plan entry", "table", meta.TableName())
	}

	if err := p.store.PutTags(ctx, bucket, key, scriptTags.Clamped()); err != nil {
		return err
	}
	log.Info("tagged load script", "category", meta.Category)
	return nil
}
