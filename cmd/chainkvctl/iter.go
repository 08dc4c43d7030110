package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maho-db/chainkv"
	"github.com/maho-db/chainkv/session"
	"github.com/maho-db/chainkv/view"
)

var reverse bool

func init() {
	iterCmd.Flags().BoolVar(&reverse, "reverse", false, "walk the range backward")
}

var iterCmd = &cobra.Command{
	Use:   "iter [user-prefix]",
	Short: "List every live key in range, in order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var userPrefix []byte
		if len(args) == 1 {
			userPrefix = []byte(args[0])
		}
		return withView(false, func(d *chainkv.Database, s *session.Session, v *view.View) error {
			it, err := v.NewIterator(contract, userPrefix)
			if err != nil {
				return err
			}
			defer it.Close()

			step := it.Next
			if reverse {
				step = it.Prev
			}
			for {
				if err := step(); err != nil {
					return err
				}
				if !it.Valid() {
					return nil
				}
				key, val, _, err := it.GetKV()
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\n", key, val)
			}
		})
	},
}
