package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Coder-Joe458/ios-review-checker/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display detailed version information about ipacheck and the rule catalog in use.`,
	Run: func(cmd *cobra.Command, args []string) {
		sum := ""
		if catalog, err := loadCatalog(cmd.Context(), appConfig); err == nil {
			sum = catalog.SHA256
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.Info(sum))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
