// Command ingestd is the event-driven entry point. It receives bucket
// notification events, builds the processing pipeline once per cold
// start, and hands every record to the router. It is a thin composition
// layer: all behavior lives in internal packages, and build() is the one
// place where real AWS and database clients are constructed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"

	"conversionloader/internal/busplit"
	"conversionloader/internal/catalog"
	"conversionloader/internal/config"
	"conversionloader/internal/db"
	"conversionloader/internal/identity"
	"conversionloader/internal/notify"
	"conversionloader/internal/objectstore"
	"conversionloader/internal/pipeline"
	"conversionloader/internal/quarantine"
	"conversionloader/internal/secrets"
)

// handler carries the pipeline across invocations of one warm instance.
type handler struct {
	p   *pipeline.Pipeline
	log *slog.Logger
}

// handle processes each record in arrival order. The first failing record
// aborts the batch so the event source can redeliver it.
func (h *handler) handle(ctx context.Context, evt events.S3Event) error {
	for _, rec := range evt.Records {
		if err := h.p.HandleEvent(ctx, rec.S3.Bucket.Name, rec.S3.Object.Key); err != nil {
			h.log.Error("event failed", "key", rec.S3.Object.Key, "err", err)
			return err
		}
	}
	return nil
}

// build constructs the full production pipeline from configuration.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AWSRegion)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}

	// A named secret overrides any literal DSN.
	dsn := cfg.DSN
	if cfg.DBSecretName != "" {
		var src secrets.Source = secrets.NewManager(sess)
		if dsn, err = src.Get(ctx, cfg.DBSecretName); err != nil {
			return nil, err
		}
	}

	var database db.DB
	var dialect catalog.Dialect
	switch cfg.DBDriver {
	case "postgres":
		database, err = db.NewPostgres(ctx, dsn)
		dialect = catalog.DialectPostgres
	case "mssql":
		database, err = db.NewMSSQL(dsn)
		dialect = catalog.DialectMSSQL
	default:
		return nil, fmt.Errorf("unsupported -db_driver=%q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	store := objectstore.NewS3(sess)
	notifier := buildNotifier(ctx, cfg, sess, logger)

	reloc := quarantine.New(store, notifier, logger)
	splitter := busplit.NewPublisher(store, logger)
	cat := catalog.New(database, dialect)

	return pipeline.New(store, database, cat, reloc, splitter, logger), nil
}

// buildNotifier returns the SES notifier when notifications are enabled
// and a recipient can be determined, and the no-op notifier otherwise.
// With no explicit recipient, the operator's email is resolved from the
// user-pool access token provided in the environment.
func buildNotifier(ctx context.Context, cfg *config.Config, sess *session.Session, logger *slog.Logger) notify.Notifier {
	if !cfg.NotifyEnabled {
		return notify.Noop{}
	}
	recipient := cfg.NotifyEmail
	if recipient == "" {
		var resolver identity.Resolver = identity.NewCognito(sess)
		email, err := resolver.Email(ctx, os.Getenv("COGNITO_ACCESS_TOKEN"))
		if err != nil || email == "" {
			logger.Warn("no notification recipient resolved, notifications disabled", "err", err)
			return notify.Noop{}
		}
		recipient = email
	}
	return notify.NewSES(sess, cfg.SenderEmail, recipient, cfg.AppURL)
}

// main is intentionally tiny: load config, build once, serve events.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	cfg := config.Load()

	p, err := build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}

	h := &handler{p: p, log: logger}
	lambda.Start(h.handle)
}
