// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/masiedu4/timemachine"
)

var restoreCmd = &cobra.Command{
	Use:   "restore SNAPSHOT",
	Short: "Restore the tracked directory to a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		force, _ := cmd.Flags().GetBool("force")

		e := engineFor(cmd)
		plan, err := e.Restore(id, dryRun, force)
		if err != nil {
			if timemachine.Kind(err) == timemachine.KindUncommittedChanges {
				return fmt.Errorf("%w (use --force to snapshot the current state first)", err)
			}
			return err
		}

		if plan.ForceSnapshotID != 0 {
			fmt.Printf("Backed up uncommitted changes as snapshot %d\n", plan.ForceSnapshotID)
		}

		verb := "Would"
		if !dryRun {
			verb = "Will"
		}
		for _, p := range plan.Create {
			fmt.Printf("%s create: %s\n", verb, p)
		}
		for _, p := range plan.Overwrite {
			fmt.Printf("%s overwrite: %s\n", verb, p)
		}
		for _, p := range plan.Delete {
			fmt.Printf("%s delete: %s\n", verb, p)
		}

		if plan.TotalChanges() == 0 {
			fmt.Println("Already at the requested snapshot")
		} else if dryRun {
			fmt.Printf("%d changes would be applied (dry run)\n", plan.TotalChanges())
		} else {
			fmt.Printf("Restored to snapshot %d\n", id)
		}
		return nil
	},
}

func init() {
	restoreCmd.Flags().Bool("dry-run", false, "Show the restore plan without applying it")
	restoreCmd.Flags().Bool("force", false, "Snapshot uncommitted changes before restoring")
}
