package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sosgibs/internal/config"
)

func newConfigCommand(stdout io.Writer) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Print a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := config.Sample()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(stdout, sample)
			return err
		},
	})
	return configCmd
}
