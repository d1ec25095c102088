// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/masiedu4/timemachine/internal/cliutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show files added, removed, or modified since the last snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := engineFor(cmd)
		cs, err := e.Status()
		if err != nil {
			return err
		}

		if cs.IsEmpty() {
			fmt.Println("No changes since the last snapshot")
			return nil
		}

		rows := make([][]string, 0, len(cs.Added)+len(cs.Removed)+len(cs.Modified))
		for _, p := range cs.Added {
			rows = append(rows, []string{"added", p})
		}
		for _, p := range cs.Removed {
			rows = append(rows, []string{"removed", p})
		}
		for _, p := range cs.Modified {
			rows = append(rows, []string{"modified", p})
		}
		cliutil.PrintTable(os.Stdout, []string{"Status", "Path"}, rows)
		return nil
	},
}
