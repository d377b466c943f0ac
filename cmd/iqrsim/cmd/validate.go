package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vcrouter/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a router configuration.",
	Long: "`validate --config router.yaml` loads the configuration, applies " +
		"the VCROUTER_* environment variables and checks the result.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		filename, _ := cmd.Flags().GetString("config")
		envFile, _ := cmd.Flags().GetString("env")

		err := config.LoadEnvFile(envFile)
		if err != nil {
			return err
		}

		f, err := config.Load(filename)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"%s: %d inputs, %d outputs, %d vcs, %s routing\n",
			filename, f.Router.NumInputs, f.Router.NumOutputs,
			f.Router.NumVCs, f.Routing.Kind)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("config", "", "The router configuration file")
	validateCmd.Flags().String("env", "", "A .env file with VCROUTER_* overrides")
	_ = validateCmd.MarkFlagRequired("config")
}
