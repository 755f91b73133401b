package refine

import "strings"

// errorClass buckets provider failures for the retry loop.
type errorClass int

const (
	// errTransient covers rate limits, quota exhaustion and temporary
	// unavailability. Retried with exponential backoff.
	errTransient errorClass = iota
	// errPermanent covers missing models/resources and anything
	// unclassified. Aborts straight to fallback; retrying cannot help.
	errPermanent
)

// classifyProviderError maps a provider failure onto the retry taxonomy.
// Signal matching is string-based because provider SDKs surface status
// through error text rather than stable types.
func classifyProviderError(err error) errorClass {
	if err == nil {
		return errPermanent
	}
	msg := strings.ToLower(err.Error())

	transientSignals := []string{
		"429",
		"resource_exhausted",
		"quota",
		"rate limit",
		"rate_limit",
		"503",
		"unavailable",
		"overloaded",
	}
	for _, signal := range transientSignals {
		if strings.Contains(msg, signal) {
			return errTransient
		}
	}

	return errPermanent
}
