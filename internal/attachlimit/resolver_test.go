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

package attachlimit_test

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/deckhouse/sds-volume-limit/internal/attachlimit"
)

func newNode(labels, annotations map[string]string) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name:        "node-1",
			Labels:      labels,
			Annotations: annotations,
		},
	}
}

func instanceType(t string) map[string]string {
	return map[string]string{attachlimit.InstanceTypeLabelKey: t}
}

func TestResolve_EveryMappedSize(t *testing.T) {
	table := attachlimit.DefaultTable()
	r := attachlimit.NewResolver(table)

	for _, size := range table.Sizes() {
		node := newNode(instanceType("m5."+size), nil)
		want := 26 - table.Interfaces(size)
		if got := r.Resolve(node); got != want {
			t.Errorf("size %q: expected limit %d, got %d", size, want, got)
		}
	}
}

func TestResolve_DefaultTableValues(t *testing.T) {
	r := attachlimit.NewResolver(nil)

	tests := []struct {
		name         string
		instanceType string
		want         int
	}{
		{"nano", "t3.nano", 24},
		{"large", "m5.large", 23},
		{"xlarge", "m5.xlarge", 22},
		{"4xlarge", "c5.4xlarge", 18},
		{"24xlarge", "m5.24xlarge", 11},
		{"metal falls back to default", "m5.metal", 11},
		{"unknown size falls back to default", "m5.huge", 11},
		{"no separator uses whole label", "xlarge", 22},
		{"last separator wins", "a.b.2xlarge", 22},
		{"trailing separator is empty size", "m5.", 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(newNode(instanceType(tt.instanceType), nil)); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestResolve_NoLabel(t *testing.T) {
	r := attachlimit.NewResolver(nil)
	if got := r.Resolve(newNode(nil, nil)); got != 26-attachlimit.DefaultInterfaceCount {
		t.Fatalf("expected %d, got %d", 26-attachlimit.DefaultInterfaceCount, got)
	}
}

func TestResolve_StableLabelFallback(t *testing.T) {
	r := attachlimit.NewResolver(nil)

	node := newNode(map[string]string{attachlimit.InstanceTypeStableLabelKey: "m5.xlarge"}, nil)
	if got := r.Resolve(node); got != 22 {
		t.Fatalf("expected 22, got %d", got)
	}

	// legacy label wins when both are present
	node = newNode(map[string]string{
		attachlimit.InstanceTypeLabelKey:       "m5.4xlarge",
		attachlimit.InstanceTypeStableLabelKey: "m5.xlarge",
	}, nil)
	if got := r.Resolve(node); got != 18 {
		t.Fatalf("expected 18, got %d", got)
	}
}

func TestResolve_AnnotationOverride(t *testing.T) {
	r := attachlimit.NewResolver(nil)

	tests := []struct {
		name       string
		annotation string
		want       int
	}{
		{"positive", "5", 5},
		{"zero", "0", 0},
		{"negative is trusted", "-3", -3},
		{"above table range", "300", 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := newNode(
				instanceType("m5.xlarge"),
				map[string]string{attachlimit.LimitAnnotationKey: tt.annotation},
			)
			if got := r.Resolve(node); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestResolve_UnparseableAnnotationIsIgnored(t *testing.T) {
	r := attachlimit.NewResolver(nil)

	for _, raw := range []string{"", "five", "5.0", " 5"} {
		node := newNode(
			instanceType("m5.xlarge"),
			map[string]string{attachlimit.LimitAnnotationKey: raw},
		)
		if got := r.Resolve(node); got != 22 {
			t.Errorf("annotation %q: expected fallback 22, got %d", raw, got)
		}
		if _, ok := attachlimit.LimitFromAnnotation(node); ok {
			t.Errorf("annotation %q: expected LimitFromAnnotation to report false", raw)
		}
	}
}

// Interface counts of 26 or more produce zero or negative limits. They are
// not clamped.
func TestResolve_DegenerateTableIsNotClamped(t *testing.T) {
	table := attachlimit.NewTable(map[string]int{"huge": 26, "giant": 30}, 40)
	r := attachlimit.NewResolver(table)

	tests := map[string]int{
		"x.huge":    0,
		"x.giant":   -4,
		"x.unknown": -14,
	}
	for it, want := range tests {
		if got := r.Resolve(newNode(instanceType(it), nil)); got != want {
			t.Errorf("%s: expected %d, got %d", it, want, got)
		}
	}
}

func TestNewTable_CopiesInput(t *testing.T) {
	counts := map[string]int{"large": 3}
	table := attachlimit.NewTable(counts, 15)
	counts["large"] = 20

	if got := table.Interfaces("large"); got != 3 {
		t.Fatalf("expected table to keep 3, got %d", got)
	}
	if got := table.Default(); got != 15 {
		t.Fatalf("expected default 15, got %d", got)
	}
}

func TestDefaultTable_IsShared(t *testing.T) {
	if attachlimit.DefaultTable() != attachlimit.DefaultTable() {
		t.Fatalf("expected DefaultTable to return the same instance")
	}
}
