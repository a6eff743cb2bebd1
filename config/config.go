// Package config holds process-wide ScaleDown configuration and the YAML
// pipeline configuration consumed by the CLI.
//
// DESIGN: The API key is process-wide mutable state read by steps at their
// own construction or call time; the pipeline engine itself never touches
// it. Everything else is explicit configuration passed to constructors.
package config

import (
	"os"
	"sync"
)

// Environment variables consulted at process start.
const (
	EnvAPIKey = "SCALEDOWN_API_KEY"
	EnvAPIURL = "SCALEDOWN_API_URL"
)

// DefaultAPIURL is the hosted compression service endpoint.
const DefaultAPIURL = "https://api.scaledown.xyz"

var (
	mu     sync.RWMutex
	apiKey = os.Getenv(EnvAPIKey)
)

// SetAPIKey overrides the process-wide API key. Last write wins.
func SetAPIKey(key string) {
	mu.Lock()
	apiKey = key
	mu.Unlock()
}

// APIKey returns the process-wide API key, empty when unset.
func APIKey() string {
	mu.RLock()
	defer mu.RUnlock()
	return apiKey
}

// APIURL returns the compression service URL, honoring SCALEDOWN_API_URL.
func APIURL() string {
	if url := os.Getenv(EnvAPIURL); url != "" {
		return url
	}
	return DefaultAPIURL
}
