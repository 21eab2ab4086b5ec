package telemetry

import (
	"errors"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound query variables on the spans
	LogFullSQL bool
	// DBSystem becomes db.system, "postgresql" or "sqlite"
	DBSystem string
}

// RegisterDBTracing installs otelgorm on db and adds the table name and row
// count to its spans. Lookups that find nothing are not errors.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("install otelgorm: %w", err)
	}

	// annotateSpan must run before otelgorm's after hook ends the span
	cb := db.Callback()
	hooks := []struct {
		op       string
		register func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().After("gorm:create").Before("otel:after:create").Register},
		{"query", cb.Query().After("gorm:query").Before("otel:after:query").Register},
		{"update", cb.Update().After("gorm:update").Before("otel:after:update").Register},
		{"delete", cb.Delete().After("gorm:delete").Before("otel:after:delete").Register},
	}
	for _, h := range hooks {
		if err := h.register("backoffice:span_details:"+h.op, annotateSpan); err != nil {
			return fmt.Errorf("register %s span callback: %w", h.op, err)
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
	)
	return nil
}

func annotateSpan(db *gorm.DB) {
	stmt := db.Statement
	if stmt.Context == nil {
		return
	}
	span := trace.SpanFromContext(stmt.Context)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{attribute.Int64("db.rows_affected", stmt.RowsAffected)}
	if stmt.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", stmt.Table))
	}
	span.SetAttributes(attrs...)

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}
