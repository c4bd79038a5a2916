package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default .tsclass.yaml config file",
	Long:  `Create a .tsclass.yaml configuration file in the current directory with sensible defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(defaultConfigFile); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", defaultConfigFile)
		}

		if err := os.WriteFile(defaultConfigFile, []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", defaultConfigFile)
		return nil
	},
}

const defaultConfig = `# tsclass configuration

# Shared settings
tsconfig: tsconfig.json
split-mode: default      # default | pattern | literal | none
split: ""                # pattern or separator for the split mode
silent: false
verbose: false

# Extraction settings
extract:
  paths:
    - "**/*.{ts,tsx,mts,cts,vue}"
  output-format: text    # text | files | json | issues
  out: ""
  strict: false
  summary: false
  no-gitignore: false
  jobs: 0                # 0 = GOMAXPROCS

# Watch settings
watch:
  debounce: 300ms
  ignore: []
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
