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

package env

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

const (
	KubeconfigEnvVar     = "KUBECONFIG"
	MaxConcurrencyEnvVar = "MAX_CONCURRENCY"
	DryRunEnvVar         = "DRY_RUN"
	PushgatewayURLEnvVar = "PUSHGATEWAY_URL"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	kubeconfig     string
	maxConcurrency int // 0 means unbounded
	dryRun         bool
	pushgatewayURL string
}

// Kubeconfig is empty when the in-cluster config should be used.
func (c *Config) Kubeconfig() string {
	return c.kubeconfig
}

func (c *Config) MaxConcurrency() int {
	return c.maxConcurrency
}

func (c *Config) DryRun() bool {
	return c.dryRun
}

// PushgatewayURL is empty when metrics are not pushed.
func (c *Config) PushgatewayURL() string {
	return c.pushgatewayURL
}

type ConfigProvider interface {
	Kubeconfig() string
	MaxConcurrency() int
	DryRun() bool
	PushgatewayURL() string
}

var _ ConfigProvider = &Config{}

// GetConfig reads the configuration from the environment. Every variable is
// optional.
func GetConfig() (*Config, error) {
	cfg := &Config{}

	cfg.kubeconfig = os.Getenv(KubeconfigEnvVar)

	if raw := strings.TrimSpace(os.Getenv(MaxConcurrencyEnvVar)); raw != "" {
		n, err := ParseMaxConcurrency(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", MaxConcurrencyEnvVar, err)
		}
		cfg.maxConcurrency = n
	}

	if raw := strings.TrimSpace(os.Getenv(DryRunEnvVar)); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a boolean, got %q", ErrInvalidConfig, DryRunEnvVar, raw)
		}
		cfg.dryRun = v
	}

	cfg.pushgatewayURL = strings.TrimSpace(os.Getenv(PushgatewayURLEnvVar))
	if err := ValidatePushgatewayURL(cfg.pushgatewayURL); err != nil {
		return nil, fmt.Errorf("%s: %w", PushgatewayURLEnvVar, err)
	}

	return cfg, nil
}

func ParseMaxConcurrency(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: max concurrency must be an integer, got %q", ErrInvalidConfig, raw)
	}
	return n, ValidateMaxConcurrency(n)
}

func ValidateMaxConcurrency(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: max concurrency must not be negative, got %d", ErrInvalidConfig, n)
	}
	return nil
}

// ValidatePushgatewayURL accepts an empty string or an absolute http(s) URL.
func ValidatePushgatewayURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: pushgateway url %q: %w", ErrInvalidConfig, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: pushgateway url %q must be an absolute http(s) URL", ErrInvalidConfig, raw)
	}
	return nil
}
