// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/masiedu4/timemachine/internal/cliutil"
)

var diffCmd = &cobra.Command{
	Use:   "diff SNAPSHOT_1 SNAPSHOT_2",
	Short: "Compare two snapshots",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id1, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}
		id2, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[1])
		}

		e := engineFor(cmd)
		cs, err := e.Diff(id1, id2)
		if err != nil {
			return err
		}

		if cs.IsEmpty() {
			fmt.Println("No differences")
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
