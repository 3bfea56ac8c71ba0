package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/kyma-incubator/trino-reconciler/internal/cli"
	"github.com/spf13/cobra"
)

func NewCmd(o *cli.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenant environments",
	}
	cmd.AddCommand(newProvisionCmd(o))
	cmd.AddCommand(newStatusCmd(o))
	return cmd
}

func newProvisionCmd(o *cli.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "provision TENANT",
		Short: "Create the namespace of a tenant and bootstrap its query engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunProvision(cli.NewContext(), o, cmd.OutOrStdout(), args[0])
		},
	}
}

func newStatusCmd(o *cli.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status TENANT",
		Short: "Show the provisioning state of a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunStatus(cli.NewContext(), o, cmd.OutOrStdout(), args[0])
		},
	}
}

func RunProvision(ctx context.Context, o *cli.Options, out io.Writer, tenantID string) error {
	service, err := o.Service()
	if err != nil {
		return err
	}
	result, err := service.ProvisionTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	formatter, err := cli.NewOutputFormatter(o.OutputFormat)
	if err != nil {
		return err
	}
	if err := formatter.Header("Tenant", "Namespace", "Created"); err != nil {
		return err
	}
	if err := formatter.AddRow(tenantID, result.Namespace, boolString(result.NamespaceCreated)); err != nil {
		return err
	}
	return formatter.Output(out)
}

func RunStatus(ctx context.Context, o *cli.Options, out io.Writer, tenantID string) error {
	service, err := o.Service()
	if err != nil {
		return err
	}
	status, err := service.TenantStatus(ctx, tenantID)
	if err != nil {
		return err
	}

	formatter, err := cli.NewOutputFormatter(o.OutputFormat)
	if err != nil {
		return err
	}
	if o.OutputFormat != cli.FormatTable {
		return formatter.OutputObject(out, status)
	}

	catalogs := make([]string, 0, len(status.Catalogs))
	for _, catalog := range status.Catalogs {
		catalogs = append(catalogs, catalog.Name)
	}
	if err := formatter.Header("Tenant", "Namespace", "State", "Workloads", "Catalogs"); err != nil {
		return err
	}
	err = formatter.AddRow(status.Tenant, status.Namespace, string(status.State),
		strings.Join(status.Workloads, ","), strings.Join(catalogs, ","))
	if err != nil {
		return err
	}
	return formatter.Output(out)
}

func boolString(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
