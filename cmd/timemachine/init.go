// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Start tracking the directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := engineFor(cmd)
		if err := e.Init(); err != nil {
			return err
		}
		fmt.Printf("Initialized empty timemachine repository in %s\n", e.Root())
		return nil
	},
}
