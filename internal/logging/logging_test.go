package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/medscan/internal/config"
)

func TestInit_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medscan.log")
	closer := Init(config.LoggingConfig{Level: "debug", Format: "json", Output: path})
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	})

	logrus.WithField("scan_type", "ct").Debug("hello")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"scan_type":"ct"`) || !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file = %s", data)
	}
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	Init(config.LoggingConfig{Level: "loud", Output: "stderr"})
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })
	if logrus.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s, want info", logrus.GetLevel())
	}
}
