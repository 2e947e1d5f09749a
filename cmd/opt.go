/*
Copyright 2026 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/deckhouse/sds-volume-limit/internal/env"
)

type Opt struct {
	Kubeconfig     string
	MaxConcurrency int
	DryRun         bool
	PushgatewayURL string
	Debug          bool
}

// newRootCmd binds the flags of o. Flag defaults come from defaults, so an
// explicit flag wins over the environment.
func newRootCmd(o *Opt, defaults env.ConfigProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sds-volume-limit",
		Short:         "Taints nodes that reached their EBS volume attachment limit",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := env.ValidateMaxConcurrency(o.MaxConcurrency); err != nil {
				return err
			}
			return env.ValidatePushgatewayURL(o.PushgatewayURL)
		},
	}

	rootCmd.Flags().StringVarP(&o.Kubeconfig, "kubeconfig", "", defaults.Kubeconfig(), "Path to a kubeconfig file. In-cluster config is used when empty")
	rootCmd.Flags().IntVarP(&o.MaxConcurrency, "max-concurrency", "", defaults.MaxConcurrency(), "Maximum number of nodes reconciled at once (0 = unbounded)")
	rootCmd.Flags().BoolVarP(&o.DryRun, "dry-run", "", defaults.DryRun(), "Send patches in server-side dry-run mode")
	rootCmd.Flags().StringVarP(&o.PushgatewayURL, "pushgateway-url", "", defaults.PushgatewayURL(), "Prometheus Pushgateway to push pass metrics to. Metrics are not pushed when empty")
	rootCmd.Flags().BoolVarP(&o.Debug, "debug", "", false, "Enable debug logging")

	return rootCmd
}

func (o *Opt) Parse(defaults env.ConfigProvider) {
	rootCmd := newRootCmd(o, defaults)

	// Exit after displaying the help information
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		cmd.Print(cmd.UsageString())
		os.Exit(0)
	})

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
