package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typebridge/typebridge/version"
)

// VersionCmd prints the typebridge version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the typebridge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("typebridge %s\n", version.Tag)
	},
}
