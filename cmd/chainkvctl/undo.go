package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/maho-db/chainkv"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Start a new undo frame",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(d *chainkv.Database) error {
			if err := d.Push(); err != nil {
				return err
			}
			fmt.Println(d.Revision())
			return nil
		})
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Reverse the top undo frame and pop it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(d *chainkv.Database) error {
			return d.Undo()
		})
	},
}

var squashCmd = &cobra.Command{
	Use:   "squash",
	Short: "Merge the top two undo frames into one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(d *chainkv.Database) error {
			return d.Squash()
		})
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit revision",
	Short: "Drop every undo frame older than revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("chainkvctl: revision: %s", err)
		}
		return withDatabase(func(d *chainkv.Database) error {
			return d.Commit(r)
		})
	},
}

var depthCmd = &cobra.Command{
	Use:   "undo-depth",
	Short: "Print the number of frames currently on the undo stack",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(d *chainkv.Database) error {
			fmt.Println(d.UndoDepth())
			return nil
		})
	},
}

var revisionCmd = &cobra.Command{
	Use:   "revision",
	Short: "Print the current revision",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(d *chainkv.Database) error {
			fmt.Println(d.Revision())
			return nil
		})
	},
}
