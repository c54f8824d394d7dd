package resolver

import "github.com/rotisserie/eris"

// ErrProviderUnavailable marks an embedding or LLM call that failed or timed
// out. Recovered locally: the cascade degrades to the next stage and never
// surfaces this to the caller as a fatal error.
var ErrProviderUnavailable = eris.New("resolver: provider unavailable")

// ErrMalformedResponse marks an LLM tiebreak response that failed strict
// parsing. Recovered locally as a "NONE" decision.
var ErrMalformedResponse = eris.New("resolver: malformed provider response")
