package ai

import "errors"

// ErrAuthentication indicates the provider rejected the credential (HTTP 401/403).
var ErrAuthentication = errors.New("ai authentication failed")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUnavailable indicates a network or service fault talking to the provider.
var ErrUnavailable = errors.New("ai service unavailable")
