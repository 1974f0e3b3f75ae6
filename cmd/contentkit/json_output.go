package main

import (
	"github.com/spf13/cobra"

	"contentkit/internal/jsonfile"
)

// writeJSON encodes v to the command's stdout using the same canonical form
// as the written artifacts.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := jsonfile.Marshal(v)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
