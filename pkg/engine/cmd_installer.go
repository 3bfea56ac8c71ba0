package engine

import (
	"context"
	"fmt"
	"strings"

	gocmd "github.com/go-cmd/cmd"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	"go.uber.org/zap"
)

const DefaultHelmBinary = "helm"

// CmdInstaller runs the helm binary as subprocess.
type CmdInstaller struct {
	binary string
	logger *zap.SugaredLogger
}

func NewCmdInstaller(binary string, logger *zap.SugaredLogger) *CmdInstaller {
	if binary == "" {
		binary = DefaultHelmBinary
	}
	return &CmdInstaller{
		binary: binary,
		logger: logger,
	}
}

// Args returns the command line arguments of an upgrade-or-install run.
func (c *CmdInstaller) Args(namespace string, params Params) []string {
	chart := params.Chart
	args := []string{"upgrade", "--install", params.ReleaseName}
	if params.RepoURL != "" {
		chart = params.ChartName()
		args = append(args, chart, "--repo", params.RepoURL)
	} else {
		args = append(args, chart)
	}
	args = append(args, "--namespace", namespace, "--create-namespace")
	if params.Version != "" {
		args = append(args, "--version", params.Version)
	}
	if params.Wait {
		args = append(args, "--wait")
	}
	if params.Timeout > 0 {
		args = append(args, "--timeout", params.Timeout.String())
	}
	for _, value := range params.SetValues() {
		args = append(args, "--set", value)
	}
	return args
}

func (c *CmdInstaller) Install(ctx context.Context, namespace string, params Params) error {
	args := c.Args(namespace, params)
	executableCmd := gocmd.NewCmd(c.binary, args...)
	c.logger.Debugf("Executing command '%s %s'", c.binary, strings.Join(args, " "))

	var status gocmd.Status
	select {
	case status = <-executableCmd.Start():
	case <-ctx.Done():
		if err := executableCmd.Stop(); err != nil {
			c.logger.Warnf("Failed to stop command '%s': %s", c.binary, err)
		}
		return &e.DeploymentError{
			Release:   params.ReleaseName,
			Namespace: namespace,
			Cause:     ctx.Err(),
		}
	}

	stdout := strings.Join(status.Stdout, "\n")
	c.logger.Debugf("Executed command '%s', got output: %s", c.binary, stdout)

	// status.Error is nil for commands which ran but exited with a non-zero code
	if status.Error != nil || status.Exit != 0 {
		cause := status.Error
		if cause == nil {
			cause = fmt.Errorf("command '%s' exited with code %d", c.binary, status.Exit)
		}
		return &e.DeploymentError{
			Release:   params.ReleaseName,
			Namespace: namespace,
			Output:    strings.TrimSpace(strings.Join(append(status.Stderr, status.Stdout...), "\n")),
			Cause:     cause,
		}
	}
	return nil
}
