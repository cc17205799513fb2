package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a terminal provider failure. Only the gateway assigns
// kinds; everything above it treats errors as opaque outcomes.
type Kind int

const (
	// KindTransient covers network failures and 5xx responses. Retried.
	KindTransient Kind = iota
	// KindRateLimited covers 429s and rate-limit reason codes. Retried,
	// and eligible for stale-cache fallback once retries are spent.
	KindRateLimited
	// KindQuotaExceeded is a daily-quota exhaustion. Never retried.
	KindQuotaExceeded
	// KindAuthError is a credential or API-enablement problem. Never retried.
	KindAuthError
	// KindMalformed is an unexpected response shape or a non-retryable
	// client error. Retrying cannot change the outcome.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindAuthError:
		return "auth_error"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// APIError is a classified upstream failure with the provider label
// attached.
type APIError struct {
	Provider string
	Status   int
	Reason   string
	Kind     Kind
	Message  string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (%d, %s)", e.Provider, e.Message, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%d)", e.Provider, e.Message, e.Status)
}

// Malformed builds a KindMalformed error for responses that parsed as
// HTTP 200 but did not match the expected shape.
func Malformed(provider, message string) *APIError {
	return &APIError{Provider: provider, Status: 200, Kind: KindMalformed, Message: message}
}

// KindOf extracts the classification from err, or KindTransient when
// err is not an APIError (raw network failures).
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransient
}

// IsRateLimited reports whether err should trigger stale-cache
// fallback: a rate limit or an exhausted quota.
func IsRateLimited(err error) bool {
	k := KindOf(err)
	return k == KindRateLimited || k == KindQuotaExceeded
}

func retryable(err *APIError) bool {
	switch err.Kind {
	case KindRateLimited, KindTransient:
		return true
	}
	return false
}

// googleErrorPayload matches the error envelope used by Google-style
// APIs: {"error": {"code": ..., "message": ..., "errors": [{"reason": ...}]}}.
type googleErrorPayload struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

// ClassifyGoogleError inspects a non-2xx Google API response body for a
// machine-readable reason code and maps it to a Kind.
func ClassifyGoogleError(provider string, status int, body []byte) *APIError {
	var payload googleErrorPayload
	_ = json.Unmarshal(body, &payload)

	reason := ""
	message := fmt.Sprintf("request failed with status %d", status)
	if payload.Error != nil {
		if payload.Error.Message != "" {
			message = payload.Error.Message
		}
		if len(payload.Error.Errors) > 0 {
			reason = payload.Error.Errors[0].Reason
			if message == "" && payload.Error.Errors[0].Message != "" {
				message = payload.Error.Errors[0].Message
			}
		}
	}

	kind := classifyKind(status, reason)
	return &APIError{Provider: provider, Status: status, Reason: reason, Kind: kind, Message: message}
}

func classifyKind(status int, reason string) Kind {
	switch reason {
	case "quotaExceeded", "dailyLimitExceeded":
		return KindQuotaExceeded
	case "rateLimitExceeded", "userRateLimitExceeded":
		return KindRateLimited
	case "accessNotConfigured", "keyInvalid", "invalidKey", "forbidden":
		return KindAuthError
	}
	switch {
	case status == 429:
		return KindRateLimited
	case status == 401 || status == 403:
		return KindAuthError
	case status >= 500 && status < 600:
		return KindTransient
	}
	return KindMalformed
}

// ClassifyPlainError maps a non-2xx response without a structured error
// envelope (KeywordTool style) to a Kind using the status code alone.
func ClassifyPlainError(provider string, status int, body []byte) *APIError {
	message := fmt.Sprintf("request failed with status %d", status)
	if len(body) > 0 {
		excerpt := string(body)
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		message = excerpt
	}
	return &APIError{Provider: provider, Status: status, Kind: classifyKind(status, ""), Message: message}
}
