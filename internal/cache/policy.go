package cache

import "time"

// Kind identifies a cached resource kind. Together with an identity it
// forms the cache key.
type Kind string

const (
	KindUser          Kind = "user"
	KindContracts     Kind = "contracts"
	KindContract      Kind = "contract"
	KindContractUnval Kind = "contract_unval"
	KindValidation    Kind = "validation"
	KindAgent         Kind = "agent"
	KindAgents        Kind = "agents"
)

// Policy is the freshness and retry behavior of one resource kind. The
// table below is the single place these are declared; call sites never
// carry ad hoc retry parameters.
type Policy struct {
	// Freshness is the window within which a read returns the cached value
	// without a network call. Zero means always treated as possibly stale.
	Freshness time.Duration

	// Retries is the number of additional attempts after a failed fetch.
	Retries int

	// RetryDelay is the fixed backoff between attempts.
	RetryDelay time.Duration
}

// defaultPolicies is keyed by resource kind.
var defaultPolicies = map[Kind]Policy{
	KindUser:          {Freshness: 5 * time.Minute, Retries: 3, RetryDelay: time.Second},
	KindContracts:     {Freshness: 5 * time.Minute, Retries: 3, RetryDelay: time.Second},
	KindContract:      {},
	KindContractUnval: {Retries: 2, RetryDelay: time.Second},
	KindValidation:    {Retries: 2, RetryDelay: time.Second},
	KindAgent:         {Freshness: 5 * time.Minute, Retries: 3, RetryDelay: time.Second},
	KindAgents:        {Freshness: 5 * time.Minute, Retries: 3, RetryDelay: time.Second},
}
