package cmd

import (
	"os"
	"path/filepath"

	"github.com/kyma-incubator/trino-reconciler/internal/cli"
	"github.com/kyma-incubator/trino-reconciler/pkg/ssl"
	"github.com/spf13/cobra"
)

const (
	paramContractVersion = "contractVersion"
	paramCatalog         = "catalog"

	supportedContractVersion = 1
)

func NewCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the trino-reconciler service",
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Apply()
			if o.SelfSignedTLS {
				if err := o.createCertificate(); err != nil {
					return err
				}
			}
			if err := o.Validate(); err != nil {
				return err
			}
			return Run(o)
		},
	}
	cmd.Flags().IntVar(&o.Port, "server-port", 0, "Webserver port (overrides the configuration)")
	cmd.Flags().StringVar(&o.SSLCrt, "server-crt", "", "Path to SSL certificate file")
	cmd.Flags().StringVar(&o.SSLKey, "server-key", "", "Path to SSL key file")
	cmd.Flags().StringVar(&o.AuditLog, "audit-log", "", "Path to the audit log file (rotated by size)")
	cmd.Flags().BoolVar(&o.SelfSignedTLS, "self-signed-tls", false, "Serve TLS with a generated self-signed certificate")
	cmd.Flags().StringVar(&o.SelfSignedDomain, "self-signed-domain", "localhost", "Domain of the self-signed certificate")
	return cmd
}

func Run(o *Options) error {
	ctx := cli.NewContext()
	return startWebserver(ctx, o)
}

func (o *Options) createCertificate() error {
	dir, err := os.MkdirTemp("", "trino-reconciler-tls")
	if err != nil {
		return err
	}
	o.Config.Server.SSLCrt = filepath.Join(dir, "tls.crt")
	o.Config.Server.SSLKey = filepath.Join(dir, "tls.key")
	o.Logger().Infof("Creating self-signed certificate for domain '%s' in directory '%s'", o.SelfSignedDomain, dir)
	return ssl.WriteCertificate(o.SelfSignedDomain, []string{o.SelfSignedDomain}, o.Config.Server.SSLCrt, o.Config.Server.SSLKey)
}
