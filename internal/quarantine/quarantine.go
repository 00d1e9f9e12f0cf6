// Package quarantine is the sole path by which a file leaves active
// processing. It writes the failure's artifact next to a deterministic
// timestamped folder, appends the failure phrase to the file's ledger tag,
// and moves the file via copy-then-delete. The move is not atomic: a tag
// mutation that succeeded before a failed copy or delete is not rolled
// back, so tags and location can transiently disagree.
package quarantine

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"conversionloader/internal/notify"
	"conversionloader/internal/objectstore"
	"conversionloader/internal/tags"
)

// Stage names are the fixed top-level folders.
const (
	StageInitialUpload   = "InitialUpload"
	StageConversionFiles = "ConversionFiles"
	StageTSQLFiles       = "TSQLFiles"
)

// errorRoots maps a stage to its quarantine root folder.
var errorRoots = map[string]string{
	StageInitialUpload:   "InitialUploadErrors",
	StageConversionFiles: "ConversionFileErrors",
}

// Relocator owns artifact generation and file relocation. The notifier is
// optional; when present, every relocation triggers a best-effort
// notification.
type Relocator struct {
	store    objectstore.Store
	notifier notify.Notifier
	log      *slog.Logger
}

// New builds a Relocator. notifier may be nil.
func New(store objectstore.Store, notifier notify.Notifier, logger *slog.Logger) *Relocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relocator{store: store, notifier: notifier, log: logger}
}

// quarantineFolder builds the deterministic timestamped folder that holds
// both the artifact and the relocated file:
//
//	{errorRoot}/{parentFolders}/{lastModified MM_DD_YYYY hh_mm_pm} {parentFileName}
func quarantineFolder(key string, lastModified time.Time) string {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	stage := parts[0]
	root, ok := errorRoots[stage]
	if !ok {
		root = stage + "Errors"
	}
	parentFileName := parts[len(parts)-1]
	stamp := strings.ToLower(lastModified.Format("01_02_2006 03_04_PM"))

	folder := root
	if len(parts) > 2 {
		folder += "/" + strings.Join(parts[1:len(parts)-1], "/")
	}
	return folder + "/" + stamp + " " + parentFileName
}

// WriteArtifact renders and uploads the failure's artifact, returning its
// key. The artifact carries a copy of the parent's tags taken before the
// failure phrase was appended, retargeted with the artifact's own category
// and a Parent File Name pointer.
func (r *Relocator) WriteArtifact(ctx context.Context, bucket, key string, f Failure, parentTags tags.Set) (string, error) {
	parentFileName := path.Base(key)
	lastModified, err := r.store.LastModified(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("head %s: %w", key, err)
	}

	artTags := parentTags.Clone()
	delete(artTags, tags.KeyFileName)
	artTags[tags.KeyFileCategory] = f.Category.TagValue()
	artTags[tags.KeyParentFileName] = parentFileName

	artifactKey := fmt.Sprintf("%s/%s (%s).%s",
		quarantineFolder(key, lastModified), parentFileName, f.Category.Label(), f.Category.Ext())

	if err := r.store.Put(ctx, bucket, artifactKey, f.body(parentFileName, artTags), artTags); err != nil {
		return "", fmt.Errorf("upload artifact %s: %w", artifactKey, err)
	}
	r.log.Info("wrote failure artifact", "key", artifactKey, "category", f.Category.Label())
	return artifactKey, nil
}

// Quarantine is the terminal failure path: append the failure phrase to
// the file's ledger, write the artifact, and move the file into the
// artifact's folder. Returns the file's new key.
func (r *Relocator) Quarantine(ctx context.Context, bucket, key string, f Failure, fileTags tags.Set) (string, error) {
	parentTags := fileTags.Clone() // artifact carries the pre-failure view

	fileTags.AppendWarning(f.Category.Phrase())
	if err := r.store.PutTags(ctx, bucket, key, fileTags); err != nil {
		r.log.Error("update ledger tag", "key", key, "err", err)
	}

	if _, err := r.WriteArtifact(ctx, bucket, key, f, parentTags); err != nil {
		return "", err
	}

	lastModified, err := r.store.LastModified(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("head %s: %w", key, err)
	}
	newKey := quarantineFolder(key, lastModified) + "/" + path.Base(key)
	if err := r.move(ctx, bucket, key, newKey); err != nil {
		return "", err
	}
	r.notifyMoved(ctx, bucket, newKey, fileTags)
	return newKey, nil
}

// Relocate is the end-of-stage move for initial uploads. The destination
// is chosen by inspecting the ledger at relocation time: any recorded
// failure routes to the quarantine folder, otherwise the file advances to
// the conversion stage keyed by its catalog identity.
func (r *Relocator) Relocate(ctx context.Context, bucket, key string, fileTags tags.Set, entityFolder string) (string, error) {
	var newKey string
	if fileTags.HasFailure() {
		lastModified, err := r.store.LastModified(ctx, bucket, key)
		if err != nil {
			return "", fmt.Errorf("head %s: %w", key, err)
		}
		newKey = quarantineFolder(key, lastModified) + "/" + path.Base(key)
	} else {
		newKey = fmt.Sprintf("%s/%s/%s/%s/%s/%s",
			StageConversionFiles,
			fileTags[tags.KeyMockNumber],
			fileTags[tags.KeyPillar],
			entityFolder,
			fileTags[tags.KeySource],
			path.Base(key))
	}
	if err := r.move(ctx, bucket, key, newKey); err != nil {
		return "", err
	}
	r.notifyMoved(ctx, bucket, newKey, fileTags)
	return newKey, nil
}

// move copies then deletes. Tags travel with the copy. A delete failure
// after a successful copy leaves a transient duplicate; it is reported,
// not compensated.
func (r *Relocator) move(ctx context.Context, bucket, srcKey, dstKey string) error {
	if err := r.store.Copy(ctx, bucket, srcKey, dstKey); err != nil {
		return fmt.Errorf("copy %s to %s: %w", srcKey, dstKey, err)
	}
	if err := r.store.Delete(ctx, bucket, srcKey); err != nil {
		return fmt.Errorf("delete %s after copy: %w", srcKey, err)
	}
	r.log.Info("relocated file", "from", srcKey, "to", dstKey)
	return nil
}

// notifyMoved sends a fire-and-forget notification for a relocated file.
func (r *Relocator) notifyMoved(ctx context.Context, bucket, key string, fileTags tags.Set) {
	if r.notifier == nil {
		return
	}
	link, err := r.store.Presign(bucket, key, time.Hour)
	if err != nil {
		r.log.Warn("presign for notification", "key", key, "err", err)
		link = ""
	}
	if err := r.notifier.FileProcessed(ctx, bucket, key, link, fileTags); err != nil {
		r.log.Warn("file notification", "key", key, "err", err)
	}
}
