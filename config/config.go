// Package config binds chainkv's settings onto a pflag.FlagSet and
// layers an HCL config file underneath whatever the command line
// already set, the way cmd/maho.go's loadConfig does for the server
// this package's host module was split out of.
package config

import (
	"fmt"
	"io/ioutil"

	"github.com/hashicorp/hcl"
	"github.com/spf13/pflag"
)

// Config holds the settings needed to open a Database and run
// chainkvctl: which engine to use, where its files live, and how the
// undo stack and underlying store are tuned.
type Config struct {
	DataDir           string
	Engine            string
	TargetSegmentSize int
	Parallelism       int
	MaxOpenFiles      int
	LogLevel          string

	cfgVars map[string]*pflag.Flag
}

// New binds Config's fields onto fs as flags with their defaults and
// returns a Config ready to read once fs has been parsed, and
// optionally layered with a config file via Load.
func New(fs *pflag.FlagSet) *Config {
	c := &Config{cfgVars: map[string]*pflag.Flag{}}

	fs.StringVar(&c.DataDir, "data-dir", "chainkv-data", "`directory` holding the store's files")
	c.track(fs, "data-dir")

	fs.StringVar(&c.Engine, "engine", "pebble", "storage engine: pebble, badger, or bbolt")
	c.track(fs, "engine")

	fs.IntVar(&c.TargetSegmentSize, "target-segment-size", 0,
		"target `size` in bytes of an undo segment before it is flushed; 0 uses the undo package's default")
	c.track(fs, "target-segment-size")

	fs.IntVar(&c.Parallelism, "parallelism", 0, "compaction parallelism hint passed to the storage engine")
	c.track(fs, "parallelism")

	fs.IntVar(&c.MaxOpenFiles, "max-open-files", 0, "maximum open files hint passed to the storage engine")
	c.track(fs, "max-open-files")

	fs.StringVar(&c.LogLevel, "log-level", "info",
		"log level: trace, debug, info, warn, error, fatal, or panic")
	c.track(fs, "log-level")

	return c
}

func (c *Config) track(fs *pflag.FlagSet, name string) {
	c.cfgVars[name] = fs.Lookup(name)
}

// Load reads an HCL config file and applies any settings it names that
// weren't already set on the command line. usedFlags is the set of
// flag names cmd.Flags().Visit saw during parsing; a name present there
// wins over the same name in the file.
func (c *Config) Load(configFile string, usedFlags map[string]struct{}) error {
	b, err := ioutil.ReadFile(configFile)
	if err != nil {
		return err
	}

	var fileVals map[string]interface{}
	if err := hcl.Decode(&fileVals, string(b)); err != nil {
		return err
	}

	for name, val := range fileVals {
		flg, ok := c.cfgVars[name]
		if !ok {
			return fmt.Errorf("%s is not a config variable", name)
		}
		if _, used := usedFlags[flg.Name]; used {
			continue
		}
		if err := flg.Value.Set(fmt.Sprintf("%v", val)); err != nil {
			return fmt.Errorf("%s: %s", name, err)
		}
	}
	return nil
}
