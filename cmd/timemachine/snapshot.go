// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record a snapshot of the current tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := engineFor(cmd)
		id, err := e.Snapshot()
		if err != nil {
			return err
		}
		fmt.Printf("Snapshot %d created\n", id)
		return nil
	},
}
