package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestObservedLevels(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("debug line", "faces", 12)
	logger.Info("info line")
	test.That(t, logs.Len(), test.ShouldEqual, 2)

	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
	logger.Info("dropped")
	logger.Warnf("kept %d", 1)
	test.That(t, logs.Len(), test.ShouldEqual, 3)
	test.That(t, logs.All()[2].Message, test.ShouldEqual, "kept 1")
	test.That(t, logs.All()[0].ContextMap()["faces"], test.ShouldEqual, int64(12))
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("qem")
	sub.Infof("hello")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "qem")

	subsub := sub.Sublogger("loop")
	subsub.Error("bad")
	test.That(t, logs.All()[1].LoggerName, test.ShouldEqual, "qem.loop")
}

func TestLevelFromString(t *testing.T) {
	for name, want := range map[string]Level{"debug": DEBUG, "INFO": INFO, "warning": WARN, "Error": ERROR} {
		got, err := LevelFromString(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, want)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshkit.log")
	logger, closer := NewFileLogger("cli", path, INFO)
	logger.Debug("not written")
	logger.Infow("simplified", "faces", 40)
	test.That(t, closer.Close(), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	test.That(t, lines, test.ShouldHaveLength, 1)

	var entry map[string]interface{}
	test.That(t, json.Unmarshal([]byte(lines[0]), &entry), test.ShouldBeNil)
	test.That(t, entry["msg"], test.ShouldEqual, "simplified")
	test.That(t, entry["logger"], test.ShouldEqual, "cli")
	test.That(t, entry["level"], test.ShouldEqual, "INFO")
	test.That(t, entry["faces"], test.ShouldEqual, 40.0)
}
