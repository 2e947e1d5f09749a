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
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/deckhouse/sds-common-lib/slogh"
	u "github.com/deckhouse/sds-common-lib/utils"
	"github.com/go-logr/logr"
	crlog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	"github.com/deckhouse/sds-volume-limit/internal/attachlimit"
	"github.com/deckhouse/sds-volume-limit/internal/controllers/nodetaint"
	"github.com/deckhouse/sds-volume-limit/internal/env"
	"github.com/deckhouse/sds-volume-limit/internal/kubeutils"
	"github.com/deckhouse/sds-volume-limit/internal/metrics"
	"github.com/deckhouse/sds-volume-limit/internal/pass"
)

func main() {
	envConfig, err := env.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "getting env config: %v\n", err)
		os.Exit(1)
	}

	opt := &Opt{}
	opt.Parse(envConfig)

	ctx := signals.SetupSignalHandler()

	if opt.Debug {
		if err := slogh.UpdateConfig(
			slogh.Config{Level: slogh.LevelDebug, Format: slogh.FormatText, Callsite: slogh.CallsiteDisabled},
		); err != nil {
			panic(err)
		}
	} else {
		slogh.EnableConfigReload(ctx, nil)
	}
	logHandler := &slogh.Handler{}
	log := slog.New(logHandler).With("dryRun", opt.DryRun)
	slog.SetDefault(log)

	crlog.SetLogger(logr.FromSlogHandler(logHandler))

	log.Info("sds-volume-limit started")
	if err := run(ctx, log, opt); err != nil {
		// we expect err to be logged already
		os.Exit(1)
	}
	log.Info("sds-volume-limit finished")
}

func run(ctx context.Context, log *slog.Logger, opt *Opt) error {
	cl, err := kubeutils.NewClient(opt.Kubeconfig)
	if err != nil {
		return u.LogError(log, fmt.Errorf("creating kubernetes client: %w", err))
	}

	runLog := logr.FromSlogHandler(log.Handler())
	recorder := metrics.NewRecorder()

	rec := nodetaint.NewReconciler(
		cl,
		attachlimit.NewResolver(attachlimit.DefaultTable()),
		nodetaint.WithDryRun(opt.DryRun),
		nodetaint.WithLogger(runLog.WithName("nodetaint")),
	)
	runner := pass.NewRunner(
		cl,
		rec,
		pass.WithLogger(runLog.WithName("pass")),
		pass.WithMaxConcurrency(opt.MaxConcurrency),
		pass.WithObserver(recorder),
	)

	_, passErr := runner.Run(ctx)

	if opt.PushgatewayURL != "" {
		// the pass context may be cancelled already, metrics are still worth pushing
		if err := recorder.Push(context.WithoutCancel(ctx), opt.PushgatewayURL); err != nil {
			log.Error("pushing metrics", "err", err)
		}
	}

	// the runner logs the failure itself
	return passErr
}
