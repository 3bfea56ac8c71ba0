package cmd

import (
	"fmt"
	"io"

	"github.com/kyma-incubator/trino-reconciler/internal/cli"
	"github.com/kyma-incubator/trino-reconciler/pkg/catalog"
	"github.com/kyma-incubator/trino-reconciler/pkg/connector"
	"github.com/kyma-incubator/trino-reconciler/pkg/manifest"
	"github.com/kyma-incubator/trino-reconciler/pkg/provisioner"
	"github.com/spf13/cobra"
)

const documentSeparator = "---\n"

type Options struct {
	*cli.Options
	Tenant string
	Fields map[string]string
}

func NewOptions(o *cli.Options) *Options {
	return &Options{Options: o}
}

func NewCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest KIND",
		Short: "Render the manifests of a data source connection without applying them",
		Long: `Render the namespace, secret, catalog and connector configuration document
a data source connection results in. The cluster is not contacted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(o, cmd.OutOrStdout(), args[0])
		},
	}
	cmd.Flags().StringVarP(&o.Tenant, "tenant", "t", "", "Tenant ID")
	cmd.Flags().StringToStringVar(&o.Fields, "set", nil, "Connector field as key=value (repeatable)")
	return cmd
}

func Run(o *Options, out io.Writer, kind string) error {
	registry, err := connector.DefaultRegistry()
	if err != nil {
		return err
	}
	cfg := o.Config.Provisioner()
	builder := catalog.NewBuilder(registry, cfg.SensitivePrefixes, cfg.Labels)

	docs, err := provisioner.RenderManifests(builder, kind, o.Fields, o.Tenant)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		data, err := manifest.Marshal(doc)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s%s", documentSeparator, data); err != nil {
			return err
		}
	}
	return nil
}
