// Package feature provides read-only access to process-wide feature flags.
//
// Flags are looked up on every read and never cached, so changing a value in
// the backing store takes effect on the next call.
package feature

import (
	"maps"
	"os"
	"strings"
	"sync"
)

const (
	// KeyPrefix is prepended to every feature flag key.
	KeyPrefix = "features."

	// DisableRestartableStages turns off restartable stage support for the
	// whole process when set to "true".
	DisableRestartableStages = KeyPrefix + "DISABLE_RESTARTABLE_STAGES"

	// EnvPrefix is the environment variable prefix used by Env.
	EnvPrefix = "PIPELINE_API_FEATURES_"
)

// Store is a read-only key/value source of feature flag values.
type Store interface {
	Lookup(key string) (string, bool)
}

// RestartableStagesEnabled reports whether restartable stages are enabled.
// The feature is disabled only when the flag value equals "true" ignoring
// case; any other value, including an unset flag, leaves it enabled.
func RestartableStagesEnabled(s Store) bool {
	return !isTrue(s, DisableRestartableStages)
}

func isTrue(s Store, key string) bool {
	if s == nil {
		return false
	}
	val, ok := s.Lookup(key)
	if !ok {
		return false
	}
	return strings.EqualFold(val, "true")
}

// Env returns a Store backed by the process environment. The key
// "features.DISABLE_RESTARTABLE_STAGES" is read from the variable
// PIPELINE_API_FEATURES_DISABLE_RESTARTABLE_STAGES.
func Env() Store { return envStore{lookupFn: os.LookupEnv} }

type envStore struct {
	lookupFn func(string) (string, bool)
}

func (e envStore) Lookup(key string) (string, bool) {
	return e.lookupFn(EnvName(key))
}

// EnvName converts a feature key into its environment variable name.
func EnvName(key string) string {
	name := strings.TrimPrefix(key, KeyPrefix)
	name = strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
	return EnvPrefix + name
}

// Static is an immutable Store, mostly useful in tests.
type Static map[string]string

func (s Static) Lookup(key string) (string, bool) {
	val, ok := s[key]
	return val, ok
}

// Properties is a mutable Store that is safe for concurrent use. It is seeded
// from configuration and may be modified while the process runs.
type Properties struct {
	props map[string]string
	lock  sync.RWMutex
}

func NewProperties(initial map[string]string) *Properties {
	p := &Properties{props: make(map[string]string, len(initial))}
	maps.Copy(p.props, initial)
	return p
}

func (p *Properties) Lookup(key string) (string, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	val, ok := p.props[key]
	return val, ok
}

func (p *Properties) Set(key, value string) {
	p.lock.Lock()
	p.props[key] = value
	p.lock.Unlock()
}

func (p *Properties) Clear(key string) {
	p.lock.Lock()
	delete(p.props, key)
	p.lock.Unlock()
}

// Chain returns a Store that consults each store in order and returns the
// first value found.
func Chain(stores ...Store) Store { return chain(stores) }

type chain []Store

func (c chain) Lookup(key string) (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if val, ok := s.Lookup(key); ok {
			return val, true
		}
	}
	return "", false
}
