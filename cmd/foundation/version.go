package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON {
			data, err := json.MarshalIndent(version.Info(), "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		}
		cmd.Println(version.String())
		return nil
	},
}
