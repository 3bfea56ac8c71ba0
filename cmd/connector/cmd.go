package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kyma-incubator/trino-reconciler/internal/cli"
	"github.com/kyma-incubator/trino-reconciler/pkg/connector"
	"github.com/spf13/cobra"
)

type Options struct {
	*cli.Options
	Tenant string
	Fields map[string]string
}

func NewOptions(o *cli.Options) *Options {
	return &Options{Options: o}
}

func (o *Options) Validate() error {
	if o.Tenant == "" {
		return fmt.Errorf("tenant is undefined: use the --tenant flag")
	}
	return nil
}

func NewCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connector",
		Short: "Manage the connectors of a tenant",
	}

	applyCmd := &cobra.Command{
		Use:   "apply KIND",
		Short: "Apply the configuration document of a connector and restart the query engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return RunApply(cli.NewContext(), o, cmd.OutOrStdout(), args[0])
		},
	}
	addFieldFlags(applyCmd, o)
	cmd.AddCommand(applyCmd)

	connectCmd := &cobra.Command{
		Use:   "connect KIND",
		Short: "Connect a data source: deploy its catalog and secret and restart the query engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return RunConnect(cli.NewContext(), o, cmd.OutOrStdout(), args[0])
		},
	}
	addFieldFlags(connectCmd, o)
	cmd.AddCommand(connectCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the supported connector kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunList(o, cmd.OutOrStdout())
		},
	})
	return cmd
}

func addFieldFlags(cmd *cobra.Command, o *Options) {
	cmd.Flags().StringVarP(&o.Tenant, "tenant", "t", "", "Tenant ID")
	cmd.Flags().StringToStringVar(&o.Fields, "set", nil, "Connector field as key=value (repeatable)")
}

func RunApply(ctx context.Context, o *Options, out io.Writer, kind string) error {
	service, err := o.Service()
	if err != nil {
		return err
	}
	result, err := service.ApplyConnectorConfig(ctx, kind, o.Fields, o.Tenant)
	if err != nil {
		return err
	}

	formatter, err := cli.NewOutputFormatter(o.OutputFormat)
	if err != nil {
		return err
	}
	if err := formatter.Header("Namespace", "Config", "Outcome", "Restarted"); err != nil {
		return err
	}
	err = formatter.AddRow(result.Namespace, result.Config, result.Outcome.String(), strings.Join(result.Restarted, ","))
	if err != nil {
		return err
	}
	return formatter.Output(out)
}

func RunConnect(ctx context.Context, o *Options, out io.Writer, kind string) error {
	service, err := o.Service()
	if err != nil {
		return err
	}
	result, err := service.ConnectSource(ctx, kind, o.Fields, o.Tenant)
	if err != nil {
		return err
	}

	formatter, err := cli.NewOutputFormatter(o.OutputFormat)
	if err != nil {
		return err
	}
	if err := formatter.Header("Namespace", "Catalog", "Secret", "Restarted"); err != nil {
		return err
	}
	err = formatter.AddRow(result.Namespace, result.Catalog, result.Outcome.Secret.String(), strings.Join(result.Restarted, ","))
	if err != nil {
		return err
	}
	return formatter.Output(out)
}

// RunList prints the connector templates. It does not require cluster access.
func RunList(o *Options, out io.Writer) error {
	registry, err := connector.DefaultRegistry()
	if err != nil {
		return err
	}

	formatter, err := cli.NewOutputFormatter(o.OutputFormat)
	if err != nil {
		return err
	}
	if err := formatter.Header("Kind", "Name", "Required"); err != nil {
		return err
	}
	for _, tpl := range registry.Templates() {
		required := append([]string(nil), tpl.Required...)
		sort.Strings(required)
		if err := formatter.AddRow(string(tpl.Kind), tpl.DisplayName, strings.Join(required, ",")); err != nil {
			return err
		}
	}
	return formatter.Output(out)
}
