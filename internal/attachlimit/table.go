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

package attachlimit

import (
	"maps"
	"sync"
)

// DefaultInterfaceCount is used for "metal" and every size we do not know.
// Large instance classes document up to 15 network interfaces, so this is the
// worst case of the default table.
const DefaultInterfaceCount = 15

// Network interfaces available per instance size, see
// https://docs.aws.amazon.com/AWSEC2/latest/UserGuide/using-eni.html#AvailableIpPerENI
var defaultInterfaceCounts = map[string]int{
	"nano":     2,
	"micro":    2,
	"small":    3,
	"medium":   2,
	"large":    3,
	"xlarge":   4,
	"2xlarge":  4,
	"4xlarge":  8,
	"8xlarge":  8,
	"9xlarge":  8,
	"10xlarge": 8,
	"12xlarge": 8,
	"16xlarge": 15,
	"18xlarge": 15,
	"24xlarge": 15,
}

// Table maps an instance size suffix (e.g. "large", "8xlarge") to the number
// of network interfaces an instance of that size may use. It is immutable
// after construction and safe for concurrent use.
type Table struct {
	counts           map[string]int
	defaultInterface int
}

// NewTable copies counts, so later changes to the argument are not observed.
func NewTable(counts map[string]int, defaultInterfaces int) *Table {
	return &Table{
		counts:           maps.Clone(counts),
		defaultInterface: defaultInterfaces,
	}
}

var defaultTable = sync.OnceValue(func() *Table {
	return NewTable(defaultInterfaceCounts, DefaultInterfaceCount)
})

// DefaultTable returns the process-wide table, built on first use.
func DefaultTable() *Table {
	return defaultTable()
}

// Interfaces returns the interface count for size, or the table default when
// size is not mapped.
func (t *Table) Interfaces(size string) int {
	if n, ok := t.counts[size]; ok {
		return n
	}
	return t.defaultInterface
}

func (t *Table) Default() int {
	return t.defaultInterface
}

// Sizes returns the mapped size suffixes in no particular order.
func (t *Table) Sizes() []string {
	sizes := make([]string, 0, len(t.counts))
	for size := range t.counts {
		sizes = append(sizes, size)
	}
	return sizes
}
