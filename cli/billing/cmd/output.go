package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// printJSON writes "v" as indented JSON into the output of the command
// (stdout unless redirected with SetOut).
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
