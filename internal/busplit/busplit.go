// Package busplit partitions a loaded file's rows by business unit: rows
// group on the first five characters of a configured key column (shorter
// values are their own partition key). Partitions are disjoint and their
// union is the input row set. One artifact is emitted per partition, plus
// one unpartitioned "All" artifact retained for audit and uploaded first.
package busplit

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"conversionloader/internal/csvutil"
	"conversionloader/internal/objectstore"
	"conversionloader/internal/tags"
)

// prefixLen is the number of leading characters of the key column that
// define a partition.
const prefixLen = 5

// uploadConcurrency bounds parallel partition uploads for one file.
const uploadConcurrency = 4

// Partition is one group of rows sharing a key prefix.
type Partition struct {
	Key  string
	Rows [][]string
}

// KeyIndex locates column in header, or -1 when the file does not carry
// the configured split column.
func KeyIndex(header []string, column string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			return i
		}
	}
	return -1
}

// Split groups rows by the first prefixLen characters of the key column,
// preserving first-seen key order. Emission order downstream is therefore
// input-dependent and not part of the contract.
func Split(rows [][]string, keyIdx int) []Partition {
	var order []string
	byKey := make(map[string][][]string)
	for _, row := range rows {
		var v string
		if keyIdx < len(row) {
			v = row[keyIdx]
		}
		key := v
		if len(key) > prefixLen {
			key = key[:prefixLen]
		}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], row)
	}

	out := make([]Partition, 0, len(order))
	for _, k := range order {
		out = append(out, Partition{Key: k, Rows: byKey[k]})
	}
	return out
}

// Publisher uploads split artifacts to the validation area of the store.
type Publisher struct {
	store objectstore.Store
	log   *slog.Logger
}

// NewPublisher builds a Publisher.
func NewPublisher(store objectstore.Store, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{store: store, log: logger}
}

// Publish writes the "All" artifact and one artifact per partition under
// DataValidation/{Mock}/{Pillar}/{DataEntity}/{Source}/1-Extracted/. The
// artifact key is deterministic given the parent file name and partition
// key. The All artifact goes up before any partition; partition uploads
// run concurrently.
func (p *Publisher) Publish(ctx context.Context, bucket, parentKey string, header []string, rows [][]string, column string, fileTags tags.Set) error {
	keyIdx := KeyIndex(header, column)
	if keyIdx < 0 {
		return fmt.Errorf("split column %q not present in file", column)
	}

	parentFileName := path.Base(parentKey)
	stem := strings.TrimSuffix(parentFileName, path.Ext(parentFileName))
	base := fmt.Sprintf("DataValidation/%s/%s/%s/%s/1-Extracted",
		fileTags[tags.KeyMockNumber],
		fileTags[tags.KeyPillar],
		fileTags[tags.KeyDataEntity],
		fileTags[tags.KeySource])

	splitTags := fileTags.Clone()
	delete(splitTags, tags.KeyFileName)
	splitTags[tags.KeyParentFile] = parentFileName

	// Full unpartitioned set first, tagged BU: All.
	allTags := splitTags.Clone()
	allTags[tags.KeyBU] = "All"
	allKey := fmt.Sprintf("%s/%s.csv", base, stem)
	if err := p.store.Put(ctx, bucket, allKey, csvutil.WriteAll(header, rows), allTags); err != nil {
		return fmt.Errorf("upload %s: %w", allKey, err)
	}
	p.log.Info("uploaded full split artifact", "key", allKey, "rows", len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, part := range Split(rows, keyIdx) {
		part := part
		g.Go(func() error {
			partTags := splitTags.Clone()
			partTags[tags.KeyBU] = part.Key
			key := fmt.Sprintf("%s/%s_BU%s.csv", base, stem, part.Key)
			if err := p.store.Put(gctx, bucket, key, csvutil.WriteAll(header, part.Rows), partTags); err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}
			p.log.Info("uploaded partition artifact", "key", key, "bu", part.Key, "rows", len(part.Rows))
			return nil
		})
	}
	return g.Wait()
}
