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

// Package attachlimit computes how many network-attached volumes a node can
// host.
//
// The limit comes from the LimitAnnotationKey annotation when it holds an
// integer. Otherwise it is derived from the instance size:
//
//	PlatformAttachmentCap - ReservedSlots - interfaces(size)
//
// Nitro instances document 28 attachments regardless of size. Network
// interfaces share that budget, and one slot each goes to the root volume and
// the local instance store. The result is not clamped: a size with 26 or more
// interfaces yields a zero or negative limit.
package attachlimit

import (
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

const (
	// LimitAnnotationKey overrides the computed limit. The value is trusted
	// as is, negative and zero values included.
	LimitAnnotationKey = "xometry.com/ebs-limit"

	// InstanceTypeLabelKey is the legacy instance type label, still set by
	// the cloud provider.
	InstanceTypeLabelKey = corev1.LabelInstanceType
	// InstanceTypeStableLabelKey is consulted when the legacy label is absent.
	InstanceTypeStableLabelKey = corev1.LabelInstanceTypeStable

	PlatformAttachmentCap = 28
	// ReservedSlots covers the root volume and the local instance store.
	ReservedSlots = 2
)

type Resolver struct {
	table *Table
}

// NewResolver returns a Resolver backed by table, or by DefaultTable when
// table is nil.
func NewResolver(table *Table) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{table: table}
}

// Resolve returns the attachment limit of node.
func (r *Resolver) Resolve(node *corev1.Node) int {
	if limit, ok := LimitFromAnnotation(node); ok {
		return limit
	}
	return r.LimitFromInstanceType(node)
}

// LimitFromInstanceType ignores the override annotation.
func (r *Resolver) LimitFromInstanceType(node *corev1.Node) int {
	return PlatformAttachmentCap - ReservedSlots - r.table.Interfaces(InstanceSize(node))
}

// LimitFromAnnotation returns the override and true when the annotation is
// present and parses as an integer.
func LimitFromAnnotation(node *corev1.Node) (int, bool) {
	raw, ok := node.Annotations[LimitAnnotationKey]
	if !ok {
		return 0, false
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return limit, true
}

// InstanceSize returns the part of the instance type after the last ".",
// e.g. "8xlarge" for "m5.8xlarge". It returns "" when the node carries no
// instance type label.
func InstanceSize(node *corev1.Node) string {
	instanceType, ok := node.Labels[InstanceTypeLabelKey]
	if !ok {
		instanceType = node.Labels[InstanceTypeStableLabelKey]
	}
	if i := strings.LastIndexByte(instanceType, '.'); i >= 0 {
		return instanceType[i+1:]
	}
	return instanceType
}
