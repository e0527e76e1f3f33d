package resilience

import (
	"strings"
	"time"
)

// Operation prefixes the adapters use when calling Execute.
const (
	LedgerOperations  = "postgres."
	PublishOperations = "nats."
)

// Policy bounds the retries and the breaker of one class of operations.
type Policy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	TripAfter     uint32
	TripRatio     float64
	OpenTimeout   time.Duration
	HalfOpenCalls uint32
}

// LedgerPolicy suits result upserts: the write is idempotent on
// (run_id, document) and sits off the request path, so it retries longer.
func LedgerPolicy() Policy {
	return Policy{
		Attempts:       4,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     3,

		TripAfter:     5,
		TripRatio:     0.6,
		OpenTimeout:   15 * time.Second,
		HalfOpenCalls: 1,
	}
}

// PublishPolicy suits job publishing. The upload request waits on it and the
// NATS client already reconnects on its own, so it gives up within about two
// seconds and opens only after a sustained outage.
func PublishPolicy() Policy {
	return Policy{
		Attempts:       3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2,

		TripAfter:     10,
		TripRatio:     0.5,
		OpenTimeout:   30 * time.Second,
		HalfOpenCalls: 2,
	}
}

// Config selects a Policy by the longest matching operation prefix and falls
// back to Default.
type Config struct {
	BreakerEnabled bool
	Default        Policy
	Operations     map[string]Policy
}

func DefaultConfig() Config {
	return Config{
		BreakerEnabled: true,
		Default:        PublishPolicy(),
		Operations: map[string]Policy{
			LedgerOperations:  LedgerPolicy(),
			PublishOperations: PublishPolicy(),
		},
	}
}

// WithAttempts overrides the attempt budget of every policy. A value below 1
// keeps the per-operation defaults.
func (c Config) WithAttempts(attempts int) Config {
	if attempts < 1 {
		return c
	}
	out := c
	out.Default.Attempts = attempts
	out.Operations = make(map[string]Policy, len(c.Operations))
	for prefix, p := range c.Operations {
		p.Attempts = attempts
		out.Operations[prefix] = p
	}
	return out
}

func (c Config) policyFor(operation string) Policy {
	best := ""
	policy := c.Default
	for prefix, p := range c.Operations {
		if strings.HasPrefix(operation, prefix) && len(prefix) > len(best) {
			best, policy = prefix, p
		}
	}
	return policy.normalize(c.Default)
}

// normalize fills unset fields from fallback, then from PublishPolicy.
func (p Policy) normalize(fallback Policy) Policy {
	base := PublishPolicy()
	pick := func(v, f, d time.Duration) time.Duration {
		switch {
		case v > 0:
			return v
		case f > 0:
			return f
		}
		return d
	}

	out := p
	if out.Attempts <= 0 {
		out.Attempts = fallback.Attempts
	}
	if out.Attempts <= 0 {
		out.Attempts = base.Attempts
	}
	out.InitialBackoff = pick(out.InitialBackoff, fallback.InitialBackoff, base.InitialBackoff)
	out.MaxBackoff = pick(out.MaxBackoff, fallback.MaxBackoff, base.MaxBackoff)
	if out.MaxBackoff < out.InitialBackoff {
		out.MaxBackoff = out.InitialBackoff
	}
	if out.Multiplier < 1 {
		out.Multiplier = fallback.Multiplier
	}
	if out.Multiplier < 1 {
		out.Multiplier = base.Multiplier
	}

	if out.TripAfter == 0 {
		out.TripAfter = fallback.TripAfter
	}
	if out.TripAfter == 0 {
		out.TripAfter = base.TripAfter
	}
	if out.TripRatio <= 0 || out.TripRatio > 1 {
		out.TripRatio = fallback.TripRatio
	}
	if out.TripRatio <= 0 || out.TripRatio > 1 {
		out.TripRatio = base.TripRatio
	}
	out.OpenTimeout = pick(out.OpenTimeout, fallback.OpenTimeout, base.OpenTimeout)
	if out.HalfOpenCalls == 0 {
		out.HalfOpenCalls = fallback.HalfOpenCalls
	}
	if out.HalfOpenCalls == 0 {
		out.HalfOpenCalls = base.HalfOpenCalls
	}
	return out
}
