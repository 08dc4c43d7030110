package main

import (
	"github.com/spf13/cobra"

	"github.com/maho-db/chainkv"
	"github.com/maho-db/chainkv/session"
	"github.com/maho-db/chainkv/view"
)

var putCmd = &cobra.Command{
	Use:   "put key value",
	Short: "Set a key to a value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withView(true, func(d *chainkv.Database, s *session.Session, v *view.View) error {
			return v.Set(contract, []byte(args[0]), []byte(args[1]))
		})
	},
}
