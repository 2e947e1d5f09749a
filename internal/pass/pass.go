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

// Package pass runs one maintenance pass over the cluster: it lists Nodes and
// Pods, counts network-backed volumes per Node and reconciles the taint of
// every Node.
package pass

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/deckhouse/sds-volume-limit/internal/census"
	e "github.com/deckhouse/sds-volume-limit/internal/ctlerrors"
	"github.com/deckhouse/sds-volume-limit/internal/reconciliation/flow"
	"github.com/deckhouse/sds-volume-limit/internal/taint"
)

// NodeReconciler brings the taint of a single Node to its target state.
type NodeReconciler interface {
	Reconcile(ctx context.Context, node *corev1.Node, volumeCount int) flow.Outcome
}

// Observer is notified once a pass is over, whatever its result.
type Observer interface {
	ObservePass(s Summary, duration time.Duration, err error)
}

// Summary counts what a pass did. Nodes that failed are counted in Failed
// only.
type Summary struct {
	Nodes         int
	Tainted       int
	Untainted     int
	RemainTainted int
	Failed        int
}

type Runner struct {
	cl             client.Reader
	rec            NodeReconciler
	log            logr.Logger
	maxConcurrency int
	observers      []Observer
	now            func() time.Time
}

type Option func(*Runner)

func WithLogger(log logr.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithMaxConcurrency bounds the number of Nodes reconciled at once. Zero or a
// negative value means no bound.
func WithMaxConcurrency(n int) Option {
	return func(r *Runner) { r.maxConcurrency = n }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

func NewRunner(cl client.Reader, rec NodeReconciler, opts ...Option) *Runner {
	r := &Runner{
		cl:  cl,
		rec: rec,
		log: logr.Discard(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a single pass.
//
// A failure to list Nodes or Pods aborts the pass before any Node is touched.
// Otherwise every Node is reconciled, and the first reconciliation error is
// returned once all of them have finished. A failing Node does not cancel the
// others.
func (r *Runner) Run(ctx context.Context) (s Summary, err error) {
	ctx = log.IntoContext(ctx, r.log)
	ctx, l := flow.Begin(ctx)

	start := r.now()
	defer func() {
		d := r.now().Sub(start)
		if err != nil {
			l.Error(err, "pass failed", "duration", d, "summary", s)
		} else {
			l.Info("pass finished", "duration", d, "summary", s)
		}
		for _, o := range r.observers {
			o.ObservePass(s, d, err)
		}
	}()

	nodes, pods, err := r.fetch(ctx)
	if err != nil {
		return s, err
	}

	counts := census.Build(pods)
	l.V(1).Info("census built", "nodes", len(nodes), "pods", len(pods), "nodesWithVolumes", len(counts))

	return r.reconcileAll(ctx, nodes, counts)
}

// fetch lists Nodes and Pods concurrently. The first failure cancels the
// other request.
func (r *Runner) fetch(ctx context.Context) ([]corev1.Node, []corev1.Pod, error) {
	ctx, _ = flow.BeginPhase(ctx, "fetch")

	nodeList := &corev1.NodeList{}
	podList := &corev1.PodList{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.cl.List(gctx, nodeList); err != nil {
			return e.ErrCollaboratorf("listing nodes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.cl.List(gctx, podList); err != nil {
			return e.ErrCollaboratorf("listing pods: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return nodeList.Items, podList.Items, nil
}

// nodeResult is written by exactly one goroutine.
type nodeResult struct {
	before  taint.State
	outcome flow.Outcome
}

func (r *Runner) reconcileAll(ctx context.Context, nodes []corev1.Node, counts census.Census) (Summary, error) {
	ctx, _ = flow.BeginPhase(ctx, "reconcile")

	results := make([]nodeResult, len(nodes))

	// Plain Group: a failing Node must not cancel the others.
	var g errgroup.Group
	if r.maxConcurrency > 0 {
		g.SetLimit(r.maxConcurrency)
	}

	for i := range nodes {
		node := &nodes[i]
		results[i].before = taint.CurrentState(node)
		g.Go(func() error {
			results[i].outcome = r.rec.Reconcile(ctx, node, counts.Count(node.Name))
			return results[i].outcome.Error()
		})
	}
	err := g.Wait()

	return summarize(results), err
}

func summarize(results []nodeResult) Summary {
	s := Summary{Nodes: len(results)}
	for _, res := range results {
		switch {
		case res.outcome.Error() != nil:
			s.Failed++
		case !res.outcome.DidChange():
			if res.before == taint.StateMarked {
				s.RemainTainted++
			}
		case res.before == taint.StateMarked:
			s.Untainted++
		default:
			s.Tainted++
		}
	}
	return s
}
