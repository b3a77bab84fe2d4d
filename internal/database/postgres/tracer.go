package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type queryStartKey struct{}

type queryStart struct {
	sql   string
	start time.Time
}

// slowQueryTracer logs statements that take longer than threshold, and every
// statement that fails with something other than no rows.
type slowQueryTracer struct {
	logger    *zap.Logger
	threshold time.Duration
	now       func() time.Time
}

func (t *slowQueryTracer) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, start: t.clock()})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qs, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := t.clock().Sub(qs.start)

	switch {
	case data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows):
		t.logger.Warn("query failed",
			zap.String("sql", compactSQL(qs.sql)),
			zap.Duration("elapsed", elapsed),
			zap.Error(data.Err),
		)
	case elapsed >= t.threshold:
		t.logger.Warn("slow query",
			zap.String("sql", compactSQL(qs.sql)),
			zap.Duration("elapsed", elapsed),
			zap.String("tag", data.CommandTag.String()),
		)
	}
}

func compactSQL(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
