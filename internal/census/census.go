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

package census

import (
	corev1 "k8s.io/api/core/v1"
)

// MaxCount is the ceiling of a per-node count. Counts saturate instead of
// wrapping.
const MaxCount = 255

// Census maps a node name to the number of network-backed volumes of the pods
// bound to it. Nodes without such volumes are absent.
//
// A Census is never modified after Build returns, so it can be read
// concurrently.
type Census map[string]int

// Count returns the count for nodeName, 0 when absent.
func (c Census) Count(nodeName string) int {
	return c[nodeName]
}

// Build aggregates pods into a Census. Pods not bound to a node are skipped.
func Build(pods []corev1.Pod) Census {
	c := make(Census)
	for i := range pods {
		pod := &pods[i]
		if pod.Spec.NodeName == "" {
			continue
		}
		n := VolumeCount(pod)
		if n == 0 {
			continue
		}
		c[pod.Spec.NodeName] = saturatingAdd(c[pod.Spec.NodeName], n)
	}
	return c
}

// VolumeCount returns the number of network-backed volumes of pod, at most
// MaxCount.
func VolumeCount(pod *corev1.Pod) int {
	n := 0
	for i := range pod.Spec.Volumes {
		if IsNetworkBacked(&pod.Spec.Volumes[i]) {
			n = saturatingAdd(n, 1)
		}
	}
	return n
}

// IsNetworkBacked reports whether v is backed by a persistent network block
// device. Every PersistentVolumeClaim is assumed to be one.
func IsNetworkBacked(v *corev1.Volume) bool {
	return v.PersistentVolumeClaim != nil
}

func saturatingAdd(a, b int) int {
	if a+b > MaxCount {
		return MaxCount
	}
	return a + b
}
