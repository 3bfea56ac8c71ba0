package cmd

import (
	"github.com/kyma-incubator/trino-reconciler/internal/cli"
)

type Options struct {
	*cli.Options
	Port             int
	SSLCrt           string
	SSLKey           string
	AuditLog         string
	SelfSignedTLS    bool
	SelfSignedDomain string
}

func NewOptions(o *cli.Options) *Options {
	return &Options{Options: o}
}

// Apply overrides the server configuration with the command flags which were set.
func (o *Options) Apply() {
	if o.Port > 0 {
		o.Config.Server.Port = o.Port
	}
	if o.SSLCrt != "" {
		o.Config.Server.SSLCrt = o.SSLCrt
	}
	if o.SSLKey != "" {
		o.Config.Server.SSLKey = o.SSLKey
	}
	if o.AuditLog != "" {
		o.Config.Server.AuditLog = o.AuditLog
	}
}

func (o *Options) Validate() error {
	return o.Config.Validate()
}
