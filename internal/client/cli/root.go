package cli

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/tripflow/internal/client/config"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	config     *config.Config
}

// NewRootCmd builds the flowctl command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "flowctl",
		Short:         "Developer tool for the encrypted travel flow endpoint",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.config = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a JSON profile")

	root.AddCommand(a.keygenCmd())
	root.AddCommand(a.signCmd())
	root.AddCommand(a.tokenCmd())
	root.AddCommand(a.sendCmd())

	return root
}

// Execute runs flowctl with os.Args.
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// pick returns the flag value when set, otherwise the profile value.
func pick(flagValue, profileValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return profileValue
}
