// Command chainkvctl is a scripted operator tool for a chainkv
// database: open a store, read and write keys under a view, and drive
// its undo stack directly. Its command tree and PersistentPreRunE
// logging setup follow cmd/maho.go and cmd/start.go.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maho-db/chainkv"
	"github.com/maho-db/chainkv/config"
	"github.com/maho-db/chainkv/session"
	"github.com/maho-db/chainkv/view"
)

var (
	rootCmd = &cobra.Command{
		Use:               "chainkvctl",
		Short:             "Inspect and mutate a chainkv database",
		PersistentPreRunE: preRun,
	}

	cfg        *config.Config
	configFile = "chainkv.hcl"
	noConfig   = false

	prefixHex = "70"
	contract  = uint64(0)

	usedFlags = map[string]struct{}{}
)

func init() {
	fs := rootCmd.PersistentFlags()
	cfg = config.New(fs)

	fs.StringVar(&configFile, "config-file", configFile, "`file` to load config from")
	fs.BoolVar(&noConfig, "no-config", noConfig, "don't load config file")
	fs.StringVar(&prefixHex, "prefix", prefixHex, "`hex` bytes naming the view's prefix")
	fs.Uint64Var(&contract, "contract", contract, "contract id to scope keys under")

	rootCmd.AddCommand(getCmd, putCmd, delCmd, iterCmd, pushCmd, undoCmd, squashCmd,
		commitCmd, revisionCmd, depthCmd)
}

func preRun(cmd *cobra.Command, args []string) error {
	cmd.Flags().Visit(func(flg *pflag.Flag) {
		usedFlags[flg.Name] = struct{}{}
	})

	if configFile != "" && !noConfig {
		if _, err := os.Stat(configFile); err == nil {
			if err := cfg.Load(configFile, usedFlags); err != nil {
				return fmt.Errorf("chainkvctl: %s", err)
			}
		}
	}

	ll, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("chainkvctl: %s", err)
	}
	log.SetLevel(ll)
	return nil
}

func viewPrefix() ([]byte, error) {
	prefix, err := hex.DecodeString(prefixHex)
	if err != nil {
		return nil, fmt.Errorf("chainkvctl: --prefix: %s", err)
	}
	return prefix, nil
}

func withDatabase(fn func(d *chainkv.Database) error) error {
	d, err := chainkv.Open(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}

// withView opens the database and a session+view scoped to --prefix,
// hands them to fn, and writes the session's change list through before
// closing the database if write is true and fn succeeds.
func withView(write bool, fn func(d *chainkv.Database, s *session.Session, v *view.View) error) error {
	return withDatabase(func(d *chainkv.Database) error {
		prefix, err := viewPrefix()
		if err != nil {
			return err
		}
		s := d.NewSession()
		v, err := d.NewView(s, prefix)
		if err != nil {
			return err
		}
		if err := fn(d, s, v); err != nil {
			return err
		}
		if write {
			return d.WriteChanges(s)
		}
		return nil
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
