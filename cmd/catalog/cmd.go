package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/kyma-incubator/trino-reconciler/internal/cli"
	"github.com/kyma-incubator/trino-reconciler/pkg/catalog"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	file "github.com/kyma-incubator/trino-reconciler/pkg/files"
	"github.com/kyma-incubator/trino-reconciler/pkg/tenant"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// DeployRequest is the content of a catalog deployment file (YAML or JSON).
type DeployRequest struct {
	CatalogConfig *catalog.Config   `json:"catalogConfig"`
	SecretData    map[string]string `json:"secretData,omitempty"`
	Namespace     string            `json:"namespace,omitempty"`
}

type Options struct {
	*cli.Options
	Tenant string
	File   string
}

func NewOptions(o *cli.Options) *Options {
	return &Options{Options: o}
}

func (o *Options) validateTenant() error {
	if o.Tenant == "" {
		return fmt.Errorf("tenant is undefined: use the --tenant flag")
	}
	return nil
}

func NewCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the catalogs of a tenant",
	}
	cmd.PersistentFlags().StringVarP(&o.Tenant, "tenant", "t", "", "Tenant ID")

	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a catalog described in a YAML or JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunDeploy(cli.NewContext(), o, cmd.OutOrStdout())
		},
	}
	deployCmd.Flags().StringVarP(&o.File, "file", "f", "", "Path to the catalog deployment file")
	cmd.AddCommand(deployCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the catalogs of a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunList(cli.NewContext(), o, cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove CATALOG",
		Short: "Remove a catalog and its secret from a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunRemove(cli.NewContext(), o, cmd.OutOrStdout(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "inventory",
		Short: "List the catalogs recorded for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunInventory(cli.NewContext(), o, cmd.OutOrStdout())
		},
	})
	return cmd
}

// ReadDeployRequest parses a catalog deployment file.
func ReadDeployRequest(path string) (*DeployRequest, error) {
	data, err := file.Read(path)
	if errors.Is(err, file.ErrNotExist) {
		return nil, e.NewValidationError("catalog file '%s' not found", path)
	}
	if err != nil {
		return nil, err
	}
	req := &DeployRequest{}
	if err := yaml.UnmarshalStrict(data, req); err != nil {
		return nil, e.NewValidationError("catalog file '%s' is invalid: %s", path, err)
	}
	return req, nil
}

func RunDeploy(ctx context.Context, o *Options, out io.Writer) error {
	if o.File == "" {
		return fmt.Errorf("catalog file is undefined: use the --file flag")
	}
	req, err := ReadDeployRequest(o.File)
	if err != nil {
		return err
	}
	namespace := req.Namespace
	if namespace == "" {
		if err := o.validateTenant(); err != nil {
			return err
		}
		namespace = tenant.NamespaceName(o.Tenant)
	}

	service, err := o.Service()
	if err != nil {
		return err
	}
	result, err := service.DeployCatalog(ctx, req.CatalogConfig, req.SecretData, namespace)
	if err != nil {
		return err
	}

	formatter, err := cli.NewOutputFormatter(o.OutputFormat)
	if err != nil {
		return err
	}
	if err := formatter.Header("Namespace", "Catalog", "Secret"); err != nil {
		return err
	}
	if err := formatter.AddRow(result.Namespace, result.Catalog, result.Outcome.Secret.String()); err != nil {
		return err
	}
	return formatter.Output(out)
}

func RunList(ctx context.Context, o *Options, out io.Writer) error {
	if err := o.validateTenant(); err != nil {
		return err
	}
	service, err := o.Service()
	if err != nil {
		return err
	}
	catalogs, err := service.ListCatalogs(ctx, o.Tenant)
	if err != nil {
		return err
	}

	formatter, err := cli.NewOutputFormatter(o.OutputFormat)
	if err != nil {
		return err
	}
	if err := formatter.Header("Name", "Connector", "Tenant"); err != nil {
		return err
	}
	for _, summary := range catalogs {
		if err := formatter.AddRow(summary.Name, summary.ConnectorName, summary.Tenant); err != nil {
			return err
		}
	}
	return formatter.Output(out)
}

func RunRemove(ctx context.Context, o *Options, out io.Writer, catalogName string) error {
	if err := o.validateTenant(); err != nil {
		return err
	}
	service, err := o.Service()
	if err != nil {
		return err
	}
	if err := service.RemoveCatalog(ctx, o.Tenant, catalogName); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Catalog '%s' removed from tenant '%s'\n", catalogName, o.Tenant)
	return err
}

func RunInventory(ctx context.Context, o *Options, out io.Writer) error {
	if err := o.validateTenant(); err != nil {
		return err
	}
	service, err := o.Service()
	if err != nil {
		return err
	}
	entries, err := service.CatalogInventory(ctx, o.Tenant)
	if err != nil {
		return err
	}

	formatter, err := cli.NewOutputFormatter(o.OutputFormat)
	if err != nil {
		return err
	}
	if err := formatter.Header("Catalog", "Connector", "Namespace", "Updated"); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := formatter.AddRow(entry.CatalogName, entry.ConnectorKind, entry.Namespace, entry.Updated.Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	return formatter.Output(out)
}
