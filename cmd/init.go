package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Coder-Joe458/ios-review-checker/internal/config"
	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file template",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.FileName + ".yaml"
		if len(args) == 1 {
			configPath = args[0]
		}

		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("%s", i18n.T("init.exists", map[string]interface{}{"Path": configPath}))
		}

		if err := config.SaveTemplate(configPath); err != nil {
			return fmt.Errorf("failed to create configuration file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s\n", i18n.T("init.written", map[string]interface{}{"Path": configPath}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
}
