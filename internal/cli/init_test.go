package cli

import (
	"errors"
	"os"
	"strings"
	"testing"

	"spesebot/internal/config"
	"spesebot/internal/storage"
)

func TestStorageConfig(t *testing.T) {
	cfg := &config.Config{
		DBDriver:         "mysql",
		DBHost:           "db",
		DBPort:           3307,
		DBUsername:       "u",
		DBPassword:       "p",
		DBDatabase:       "ledger",
		DBSSLCertificate: "/etc/ca.pem",
		DBSSLVerify:      true,
		SQLiteDBPath:     "x.db",
	}

	got := StorageConfig(cfg)
	if got.Driver != storage.MySQL || got.Host != "db" || got.Port != 3307 ||
		got.Database != "ledger" || got.TLSCertPath != "/etc/ca.pem" || !got.TLSVerify {
		t.Errorf("StorageConfig = %+v", got)
	}
}

func TestSetupLogger_WritesFile(t *testing.T) {
	dir := t.TempDir()

	logger, closeLog := SetupLogger("debug", dir)
	logger.Info("hello from test")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "spesebot_") {
		t.Fatalf("log dir = %v", entries)
	}
	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file = %q", data)
	}
}

func TestInitPublisher_Disabled(t *testing.T) {
	logger, closeLog := SetupLogger("error", t.TempDir())
	defer closeLog()

	if p := InitPublisher(logger, &config.Config{}); p != nil {
		t.Error("publisher should be nil without AMQP_URL")
	}
}

func TestCloseAll(t *testing.T) {
	err := CloseAll(map[string]func() error{
		"ok":    func() error { return nil },
		"nil":   nil,
		"store": func() error { return errors.New("busy") },
	})
	if err == nil || !strings.Contains(err.Error(), "store: busy") {
		t.Errorf("err = %v", err)
	}
}
