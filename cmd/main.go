package main

import (
	"os"
	"path/filepath"

	catalogCmd "github.com/kyma-incubator/trino-reconciler/cmd/catalog"
	connectorCmd "github.com/kyma-incubator/trino-reconciler/cmd/connector"
	manifestCmd "github.com/kyma-incubator/trino-reconciler/cmd/manifest"
	startCmd "github.com/kyma-incubator/trino-reconciler/cmd/start"
	tenantCmd "github.com/kyma-incubator/trino-reconciler/cmd/tenant"
	"github.com/kyma-incubator/trino-reconciler/internal/cli"
)

func main() {
	o := &cli.Options{}
	cmd := cli.NewRootCommand(
		o,
		filepath.Base(os.Args[0]),
		"Trino reconciler",
		"Provision per-tenant Trino environments and reconcile their catalogs")

	cmd.AddCommand(startCmd.NewCmd(startCmd.NewOptions(o)))
	cmd.AddCommand(tenantCmd.NewCmd(o))
	cmd.AddCommand(catalogCmd.NewCmd(catalogCmd.NewOptions(o)))
	cmd.AddCommand(connectorCmd.NewCmd(connectorCmd.NewOptions(o)))
	cmd.AddCommand(manifestCmd.NewCmd(manifestCmd.NewOptions(o)))

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
