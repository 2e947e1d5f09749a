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

import (
	"slices"

	corev1 "k8s.io/api/core/v1"
)

const (
	// LimitReachedKey marks nodes that cannot attach more network volumes.
	LimitReachedKey   = "xometry.com/ebs-limit-reached"
	LimitReachedValue = "true"
)

// LimitReached returns the taint this controller puts on full nodes.
func LimitReached() corev1.Taint {
	return corev1.Taint{
		Key:    LimitReachedKey,
		Value:  LimitReachedValue,
		Effect: corev1.TaintEffectNoSchedule,
	}
}

func Has(node *corev1.Node, key string) bool {
	return slices.ContainsFunc(node.Spec.Taints, func(t corev1.Taint) bool {
		return t.Key == key
	})
}

// Add appends t to the node taints unless a taint with the same key is
// already present. Other taints are left untouched.
func Add(node *corev1.Node, t corev1.Taint) (changed bool) {
	if Has(node, t.Key) {
		return false
	}

	node.Spec.Taints = append(node.Spec.Taints, t)
	return true
}

// Remove drops every taint with key and keeps the order of the rest. The
// slice becomes nil when nothing is left.
func Remove(node *corev1.Node, key string) (changed bool) {
	if !Has(node, key) {
		return false
	}

	taints := slices.DeleteFunc(slices.Clone(node.Spec.Taints), func(t corev1.Taint) bool {
		return t.Key == key
	})
	if len(taints) == 0 {
		taints = nil
	}
	node.Spec.Taints = taints
	return true
}
