// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/masiedu4/timemachine"
)

func engineFor(cmd *cobra.Command) *timemachine.Engine {
	dir, _ := cmd.Root().PersistentFlags().GetString("dir")
	return timemachine.New(dir, timemachine.WithLogger(log))
}
