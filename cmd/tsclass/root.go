package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tsclass",
	Short: "Extract utility-class tokens from TypeScript and Vue sources",
	Long: `Resolve the string literal types of every expression in TypeScript and Vue
single-file components and print the class-name tokens they can produce.
Template literals over literal unions expand to every combination.`,
	// Default behavior: run extract when no subcommand is given.
	// PreRunE of extractCmd is not triggered when delegating via rootCmd.RunE.
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return runExtract(cmd.Context())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags (inherited by all subcommands)
	f := rootCmd.PersistentFlags()
	f.String("config", defaultConfigFile, "Config file path")
	f.String("cwd", "", "Project directory (default: current directory)")
	f.String("tsconfig", "tsconfig.json", "TypeScript configuration file name")
	f.String("split-mode", "default", "Token split mode: default|pattern|literal|none")
	f.String("split", "", "Split pattern or separator for the split mode")
	f.Bool("silent", false, "Log per-file failures instead of reporting them")
	f.BoolP("verbose", "v", false, "Enable verbose logging")
	f.Bool("quiet", false, "Suppress all output (exit code only)")
	f.Bool("color", false, "Force color output")

	addExtractFlags(rootCmd)

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}
