package main

import (
	"github.com/spf13/cobra"

	"github.com/maho-db/chainkv"
	"github.com/maho-db/chainkv/session"
	"github.com/maho-db/chainkv/view"
)

var delCmd = &cobra.Command{
	Use:   "del key",
	Short: "Erase a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withView(true, func(d *chainkv.Database, s *session.Session, v *view.View) error {
			return v.Erase(contract, []byte(args[0]))
		})
	},
}
