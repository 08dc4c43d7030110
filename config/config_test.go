package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/maho-db/chainkv/config"
)

func TestDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := config.New(fs)
	if c.Engine != "pebble" || c.DataDir != "chainkv-data" || c.LogLevel != "info" {
		t.Fatalf("New() defaults = %+v", c)
	}
}

func TestFlagsOverrideDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := config.New(fs)
	if err := fs.Parse([]string{"--engine=badger", "--max-open-files=256"}); err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if c.Engine != "badger" || c.MaxOpenFiles != 256 {
		t.Fatalf("after Parse: engine=%s maxOpenFiles=%d", c.Engine, c.MaxOpenFiles)
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chainkv.hcl")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	return path
}

func TestLoadAppliesUnsetFields(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := config.New(fs)

	path := writeConfigFile(t, `engine = "badger"
data-dir = "/var/lib/chainkv"
max-open-files = 128`)

	if err := c.Load(path, map[string]struct{}{}); err != nil {
		t.Fatalf("Load: %s", err)
	}
	if c.Engine != "badger" || c.DataDir != "/var/lib/chainkv" || c.MaxOpenFiles != 128 {
		t.Fatalf("after Load: %+v", c)
	}
}

func TestLoadDoesNotOverrideUsedFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := config.New(fs)
	if err := fs.Parse([]string{"--engine=pebble"}); err != nil {
		t.Fatalf("Parse: %s", err)
	}

	path := writeConfigFile(t, `engine = "badger"`)
	used := map[string]struct{}{"engine": {}}
	if err := c.Load(path, used); err != nil {
		t.Fatalf("Load: %s", err)
	}
	if c.Engine != "pebble" {
		t.Fatalf("Load overrode a flag set on the command line: engine = %s", c.Engine)
	}
}

func TestLoadRejectsUnknownVariable(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := config.New(fs)

	path := writeConfigFile(t, `bogus = 123`)
	if err := c.Load(path, map[string]struct{}{}); err == nil {
		t.Fatal("Load did not fail on an unknown config variable")
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := config.New(fs)
	if err := c.Load(filepath.Join(t.TempDir(), "missing.hcl"), map[string]struct{}{}); err == nil {
		t.Fatal("Load did not fail on a missing file")
	}
}
