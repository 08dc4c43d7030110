package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maho-db/chainkv"
	"github.com/maho-db/chainkv/session"
	"github.com/maho-db/chainkv/view"
)

var getCmd = &cobra.Command{
	Use:   "get key",
	Short: "Print the value at a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withView(false, func(d *chainkv.Database, s *session.Session, v *view.View) error {
			val, found, err := v.Get(contract, []byte(args[0]))
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("chainkvctl: %q not found", args[0])
			}
			fmt.Println(string(val))
			return nil
		})
	},
}
