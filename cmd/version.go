package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		extended, _ := cmd.Flags().GetBool("extended")
		cmd.Printf("publisher %s\n", buildinfo.BinaryVersion)
		if extended {
			cmd.Printf("module: %s\n", buildinfo.ModuleVersion())
			cmd.Printf("user-agent: %s\n", buildinfo.UserAgent())
		}
	},
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Include module and build details")
}
