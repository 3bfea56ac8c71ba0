package cli

import (
	"github.com/kyma-incubator/trino-reconciler/pkg/config"
	file "github.com/kyma-incubator/trino-reconciler/pkg/files"
	"github.com/spf13/cobra"
)

const DefaultConfigFile = "configs/trino-reconciler.yaml"

func NewRootCommand(o *Options, name, shortDesc, longDesc string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: shortDesc,
		Long:  longDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			//validate given user input
			if err := o.Validate(); err != nil {
				return err
			}
			return o.LoadConfig(cmd.Flags().Changed("config"))
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			//close db connection after cmd (or sub-cmd) was executed
			return o.Close()
		},
		SilenceErrors: false,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", DefaultConfigFile, `Path to the configuration file.`)
	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false, "Show detailed information about the executed command actions.")
	cmd.PersistentFlags().BoolVar(&o.NonInteractive, "non-interactive", false, "Enables the non-interactive shell mode")
	cmd.PersistentFlags().StringVarP(&o.OutputFormat, "output", "o", "table", "Output format (table, json or yaml)")
	cmd.PersistentFlags().BoolP("help", "h", false, "Command help")
	return cmd
}

// LoadConfig reads the configuration. The default configuration file is optional: a
// missing file is only an error if the file was explicitly requested.
func (o *Options) LoadConfig(explicit bool) error {
	if o.Config != nil {
		return nil
	}
	configFile := o.ConfigFile
	if !explicit && !file.Exists(configFile) {
		o.Logger().Debugf("Configuration file '%s' not found: using defaults", configFile)
		configFile = ""
	}
	cfg, err := config.Load(config.NewViper(), configFile)
	if err != nil {
		return err
	}
	o.Logger().Debugf("Configuration loaded: %s", cfg)
	o.Config = cfg
	return nil
}
