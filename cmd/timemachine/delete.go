// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/masiedu4/timemachine/internal/cliutil"
)

var deleteCmd = &cobra.Command{
	Use:   "delete SNAPSHOT",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}
		cleanup, _ := cmd.Flags().GetBool("cleanup")

		e := engineFor(cmd)
		result, err := e.Delete(id, cleanup)
		if err != nil {
			return err
		}

		fmt.Printf("Snapshot %d deleted\n", result.SnapshotID)
		if result.CleanupRun {
			fmt.Printf("Reclaimed %d objects (%s)\n", result.ObjectsFreed, cliutil.FormatBytes(result.BytesFreed))
		}
		return nil
	},
}

func init() {
	deleteCmd.Flags().Bool("cleanup", false, "Reclaim orphaned content objects immediately")
}
