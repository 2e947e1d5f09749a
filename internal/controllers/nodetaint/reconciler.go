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

package nodetaint

import (
	"context"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/deckhouse/sds-volume-limit/internal/attachlimit"
	e "github.com/deckhouse/sds-volume-limit/internal/ctlerrors"
	"github.com/deckhouse/sds-volume-limit/internal/reconciliation/flow"
	"github.com/deckhouse/sds-volume-limit/internal/taint"
)

// ──────────────────────────────────────────────────────────────────────────────
// Wiring / construction
//

type Reconciler struct {
	cl       client.Client
	resolver *attachlimit.Resolver
	log      logr.Logger
	dryRun   bool
}

type Option func(*Reconciler)

// WithDryRun makes the API server validate patches without persisting them.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) { r.dryRun = dryRun }
}

func WithLogger(log logr.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

func NewReconciler(cl client.Client, resolver *attachlimit.Resolver, opts ...Option) *Reconciler {
	r := &Reconciler{
		cl:       cl,
		resolver: resolver,
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconcile
//

// Reconcile pattern: Level-triggered target evaluation
//
// Resolves the attachment limit of node, compares it with volumeCount and
// brings the LimitReachedKey taint to the target state:
//   - volumeCount >= limit: the taint must be present
//   - otherwise: the taint must be absent
//
// Nothing is sent when the node is already in the target state. node is
// updated in place with the patched object.
func (r *Reconciler) Reconcile(ctx context.Context, node *corev1.Node, volumeCount int) flow.Outcome {
	limit := r.resolver.Resolve(node)
	d := taint.Decide(node, volumeCount, limit)

	log := r.log.WithValues("node", node.Name, "volumeCount", volumeCount, "limit", limit)

	if d.NoOp() {
		if d.Current == taint.StateMarked {
			log.Info("node remains tainted")
		} else {
			log.V(1).Info("node below limit")
		}
		return flow.Unchanged()
	}

	if d.Target == taint.StateMarked {
		log.Info("tainting node")
	} else {
		log.Info("untainting node")
	}

	if err := r.patchTaints(ctx, node, d); err != nil {
		log.Error(err, "updating node taints")
		return flow.Fail(err)
	}

	return flow.ChangedIf(!r.dryRun)
}

// ──────────────────────────────────────────────────────────────────────────────
// Single-call I/O helper categories
//

// patchTaints sends a strategic merge patch of spec.taints only. The taints
// field has no merge key, so the submitted list replaces the stored one.
// There is no optimistic lock: Node objects change constantly because of
// kubelet heartbeats, and we only own a single taint.
func (r *Reconciler) patchTaints(ctx context.Context, node *corev1.Node, d taint.Decision) error {
	base := node.DeepCopy()
	d.Apply(node)

	data, err := client.StrategicMergeFrom(base).Data(node)
	if err != nil {
		return e.ErrEncodingf("building taints patch for node %s: %w", node.Name, err)
	}

	var opts []client.PatchOption
	if r.dryRun {
		opts = append(opts, client.DryRunAll)
	}

	if err := r.cl.Patch(ctx, node, client.RawPatch(types.StrategicMergePatchType, data), opts...); err != nil {
		return e.ErrCollaboratorf("patching taints of node %s: %w", node.Name, err)
	}
	return nil
}
