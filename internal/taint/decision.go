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

package taint

import corev1 "k8s.io/api/core/v1"

// State of a node with respect to LimitReachedKey.
type State string

const (
	StateUnmarked State = "Unmarked"
	StateMarked   State = "Marked"
)

// CurrentState reads the state from the node taints.
func CurrentState(node *corev1.Node) State {
	if Has(node, LimitReachedKey) {
		return StateMarked
	}
	return StateUnmarked
}

// Target is level-triggered: a node is marked whenever its volume count
// reached the limit, whatever it was before.
func Target(volumeCount, limit int) State {
	if volumeCount >= limit {
		return StateMarked
	}
	return StateUnmarked
}

type Decision struct {
	Current     State
	Target      State
	VolumeCount int
	Limit       int
}

func Decide(node *corev1.Node, volumeCount, limit int) Decision {
	return Decision{
		Current:     CurrentState(node),
		Target:      Target(volumeCount, limit),
		VolumeCount: volumeCount,
		Limit:       limit,
	}
}

// NoOp reports whether the node is already in the target state.
func (d Decision) NoOp() bool {
	return d.Current == d.Target
}

// Apply brings the node taints to the target state and reports whether they
// changed.
func (d Decision) Apply(node *corev1.Node) (changed bool) {
	switch d.Target {
	case StateMarked:
		return Add(node, LimitReached())
	default:
		return Remove(node, LimitReachedKey)
	}
}
