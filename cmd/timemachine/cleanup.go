// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/masiedu4/timemachine/internal/cliutil"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Reclaim content objects unreferenced by any remaining snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := engineFor(cmd)
		result, err := e.Cleanup()
		if err != nil {
			return err
		}
		fmt.Printf("Reclaimed %d objects (%s)\n", result.ObjectsFreed, cliutil.FormatBytes(result.BytesFreed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
