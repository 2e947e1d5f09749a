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

package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/deckhouse/sds-volume-limit/internal/pass"
)

func newTestRecorder(now time.Time) *Recorder {
	r := NewRecorder()
	r.now = func() time.Time { return now }
	return r
}

func TestObservePass_Success(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := newTestRecorder(now)

	r.ObservePass(pass.Summary{Nodes: 5, Tainted: 2, Untainted: 1, RemainTainted: 1}, 1500*time.Millisecond, nil)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"nodes", testutil.ToFloat64(r.nodes), 5},
		{"tainted_nodes", testutil.ToFloat64(r.taintedNodes), 3},
		{"taint transitions", testutil.ToFloat64(r.transitions.WithLabelValues("taint")), 2},
		{"untaint transitions", testutil.ToFloat64(r.transitions.WithLabelValues("untaint")), 1},
		{"failed_nodes", testutil.ToFloat64(r.failedNodes), 0},
		{"pass_duration_seconds", testutil.ToFloat64(r.passDuration), 1.5},
		{"last_pass_success", testutil.ToFloat64(r.lastPassSucceeded), 1},
		{"last_success_timestamp_seconds", testutil.ToFloat64(r.lastSuccess), float64(now.Unix())},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestObservePass_FailureKeepsLastSuccess(t *testing.T) {
	first := time.Unix(1_700_000_000, 0)
	r := newTestRecorder(first)
	r.ObservePass(pass.Summary{Nodes: 1}, time.Second, nil)

	r.now = func() time.Time { return first.Add(time.Hour) }
	r.ObservePass(pass.Summary{Nodes: 2, Failed: 1}, time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(r.lastPassSucceeded); got != 0 {
		t.Errorf("last_pass_success: got %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.lastSuccess); got != float64(first.Unix()) {
		t.Errorf("last_success_timestamp_seconds: got %v, want %v", got, float64(first.Unix()))
	}
	if got := testutil.ToFloat64(r.failedNodes); got != 1 {
		t.Errorf("failed_nodes: got %v, want 1", got)
	}
}

func TestObservePass_TransitionsAccumulate(t *testing.T) {
	r := NewRecorder()
	r.ObservePass(pass.Summary{Tainted: 2}, 0, nil)
	r.ObservePass(pass.Summary{Tainted: 1, Untainted: 3}, 0, nil)

	if got := testutil.ToFloat64(r.transitions.WithLabelValues("taint")); got != 3 {
		t.Errorf("taint transitions: got %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.transitions.WithLabelValues("untaint")); got != 3 {
		t.Errorf("untaint transitions: got %v, want 3", got)
	}
}

func TestRegistry_ExposesAllMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObservePass(pass.Summary{Nodes: 1, Tainted: 1, Untainted: 1}, time.Second, nil)

	count, err := testutil.GatherAndCount(r.Registry())
	if err != nil {
		t.Fatalf("gathering: %v", err)
	}
	// 6 gauges plus the two labelled transition counters.
	if count != 8 {
		t.Fatalf("expected 8 series, got %d", count)
	}
}

func TestPush(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		mu.Lock()
		method, path, body = req.Method, req.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.ObservePass(pass.Summary{Nodes: 3}, time.Second, nil)

	if err := r.Push(context.Background(), srv.URL); err != nil {
		t.Fatalf("push: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut {
		t.Errorf("method: got %s, want PUT", method)
	}
	if path != "/metrics/job/"+JobName {
		t.Errorf("path: got %s", path)
	}
	if !strings.Contains(body, "sds_volume_limit_nodes") {
		t.Errorf("expected pushed body to contain sds_volume_limit_nodes")
	}
}

func TestPush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewRecorder().Push(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !strings.Contains(err.Error(), srv.URL) {
		t.Errorf("expected error to name the gateway, got %q", err)
	}
}
