package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tanq16/fragget/internal/config"
	"github.com/tanq16/fragget/internal/output"
)

func newConfigCmd() *cobra.Command {
	var show, save bool

	cmd := &cobra.Command{
		Use:   "config [--show] [--save]",
		Short: "Show or persist the effective configuration",
		Long:  "Prints the configuration after applying any flags given on the same command line. With --save the result is written to the config file.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if save {
				path := configPath
				if path == "" {
					path = config.DefaultPath()
				}
				if err := globalConfig.Save(path); err != nil {
					output.PrintError(fmt.Sprintf("Error saving configuration: %v", err))
					os.Exit(1)
				}
				output.PrintSuccess(fmt.Sprintf("%s Configuration saved to %s", output.StyleSymbols["pass"], path))
			}
			if show || !save {
				if err := printConfig(globalConfig); err != nil {
					output.PrintError(fmt.Sprintf("Error rendering configuration: %v", err))
					os.Exit(1)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the effective configuration")
	cmd.Flags().BoolVar(&save, "save", false, "Write the effective configuration to the config file")
	return cmd
}

func printConfig(cfg config.Config) error {
	if cfg.BearerToken != "" {
		cfg.BearerToken = "********"
	}
	if cfg.ProxyPassword != "" {
		cfg.ProxyPassword = "********"
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	output.PrintHeader("Current configuration")
	fmt.Print(string(b))
	return nil
}
