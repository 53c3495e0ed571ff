package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iconic-inc/iconic-erp-sub003/config"
)

func newCapturingLogger(debug bool) (*gormSlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := &config.Config{}
	cfg.Env.Debug = debug

	return newGormSlogLogger(base, cfg).(*gormSlogLogger), &buf
}

func TestGormSlogLogger_ParamsFilter(t *testing.T) {
	l, _ := newCapturingLogger(false)

	sql, params := l.ParamsFilter(context.Background(), `SELECT * FROM "credentials" WHERE fingerprint = $1`, "secret-fingerprint")
	assert.Equal(t, `SELECT * FROM "credentials" WHERE fingerprint = $1`, sql)
	assert.Nil(t, params)
}

func TestGormSlogLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return `UPDATE "credentials" SET "revoked_at"=$1`, 1 }

	tests := []struct {
		name    string
		debug   bool
		elapsed time.Duration
		err     error
		want    string
	}{
		{name: "failure", err: errors.New("connection reset"), want: "GORM query failed"},
		{name: "missing row stays quiet", err: gorm.ErrRecordNotFound},
		{name: "duplicate fingerprint stays quiet", err: &pgconn.PgError{Code: uniqueViolation}},
		{name: "cancelled request stays quiet", err: context.Canceled},
		{name: "slow query", elapsed: time.Second, want: "GORM slow query"},
		{name: "fast query hidden outside debug"},
		{name: "fast query in debug", debug: true, want: "GORM query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newCapturingLogger(tt.debug)

			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), query, tt.err)

			if tt.want == "" {
				assert.Empty(t, buf.String())

				return
			}
			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), `revoked_at`)
		})
	}
}

func TestGormSlogLogger_Silent(t *testing.T) {
	l, buf := newCapturingLogger(true)
	silent := l.LogMode(logger.Silent)

	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	silent.Error(context.Background(), "boom %d", 1)

	assert.Empty(t, buf.String())
	assert.Equal(t, logger.Info, l.level, "LogMode returns a copy")
}
