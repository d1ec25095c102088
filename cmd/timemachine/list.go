// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/masiedu4/timemachine/internal/cliutil"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		detailed, _ := cmd.Flags().GetBool("detailed")

		e := engineFor(cmd)
		infos, err := e.List(detailed)
		if err != nil {
			return err
		}

		if len(infos) == 0 {
			fmt.Println("No snapshots")
			return nil
		}

		headers := []string{"ID", "Created", "Files", "Logical Size"}
		if detailed {
			headers = append(headers, "On-Disk Size")
		}

		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			row := []string{
				fmt.Sprint(info.ID),
				info.Timestamp.Format("2006-01-02 15:04:05"),
				fmt.Sprint(info.FileCount),
				cliutil.FormatBytes(info.TotalLogicalSize),
			}
			if detailed {
				if info.OnDiskSizeKnown {
					row = append(row, cliutil.FormatBytes(info.OnDiskSize))
				} else {
					row = append(row, "-")
				}
			}
			rows = append(rows, row)
		}
		cliutil.PrintTable(os.Stdout, headers, rows)
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("detailed", false, "Include per-snapshot on-disk size accounting")
}
