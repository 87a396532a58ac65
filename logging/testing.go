package logging

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the time format used by the test core.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

type testCore struct {
	tb     testing.TB
	fields []zapcore.Field
}

// NewTestCore returns a zap core that logs to the underlying `testing.TB` object. Writing
// logs with `tb.Log` correctly associates each line with the Go "Test*" function that
// produced it, even for tests that call `t.Parallel()`.
func NewTestCore(tb testing.TB) zapcore.Core {
	return &testCore{tb: tb}
}

func (tc *testCore) Enabled(zapcore.Level) bool {
	return true
}

func (tc *testCore) With(fields []zapcore.Field) zapcore.Core {
	return &testCore{tb: tc.tb, fields: append(append([]zapcore.Field{}, tc.fields...), fields...)}
}

func (tc *testCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return ce.AddCore(ent, tc)
}

// Write outputs the log entry to the underlying test object `Log` method.
func (tc *testCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tc.tb.Helper()
	const maxLength = 10
	toPrint := make([]string, 0, maxLength)
	toPrint = append(toPrint, entry.Time.Format(DefaultTimeFormatStr))

	toPrint = append(toPrint, strings.ToUpper(entry.Level.String()))
	toPrint = append(toPrint, entry.LoggerName)
	if entry.Caller.Defined {
		toPrint = append(toPrint, fmt.Sprintf("%s:%d", entry.Caller.TrimmedPath(), entry.Caller.Line))
	}
	toPrint = append(toPrint, entry.Message)

	all := append(append([]zapcore.Field{}, tc.fields...), fields...)
	if len(all) == 0 {
		tc.tb.Log(strings.Join(toPrint, "\t"))
		return nil
	}

	// Use zap's json encoder which will encode our slice of fields in-order. As opposed to the
	// random iteration order of a map. Call it with an empty Entry object such that only the fields
	// become "map-ified".
	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, all)
	if err != nil {
		// Log what we have and return the error.
		tc.tb.Log(strings.Join(toPrint, "\t"))
		return err
	}
	toPrint = append(toPrint, buf.String())
	tc.tb.Log(strings.Join(toPrint, "\t"))
	return nil
}

// Sync is a no-op.
func (tc *testCore) Sync() error {
	return nil
}
