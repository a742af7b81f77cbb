// SPDX-License-Identifier: Apache-2.0

package searchstore

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mitchellh/mapstructure"

	"github.com/wikyd/sunspot/internal/json"
)

type ResponseError struct {
	Type      string      `mapstructure:"type"`
	Reason    string      `mapstructure:"reason"`
	CausedBy  *CausedBy   `mapstructure:"caused_by"`
	RootCause []RootCause `mapstructure:"root_cause"`
}

type CausedBy struct {
	Type   string `mapstructure:"type"`
	Reason string `mapstructure:"reason"`
}

type RootCause struct {
	Type   string `mapstructure:"type"`
	Reason string `mapstructure:"reason"`
}

// RetryableError wraps transport errors that are expected to succeed if the
// request is sent again.
type RetryableError struct {
	Cause error
}

func (r RetryableError) Error() string {
	return fmt.Sprintf("%v", r.Cause)
}

func (r RetryableError) Unwrap() error {
	return r.Cause
}

type ErrQueryInvalid struct {
	Cause error
}

func (e ErrQueryInvalid) Error() string {
	return e.Cause.Error()
}

func (e ErrQueryInvalid) Unwrap() error {
	return e.Cause
}

// ErrBulkFailures is returned when some of the items of a bulk request
// could not be processed by the engine.
type ErrBulkFailures struct {
	Failed []BulkItem
}

func (e ErrBulkFailures) Error() string {
	if len(e.Failed) == 0 {
		return "bulk request failed"
	}
	first := e.Failed[0]
	return fmt.Sprintf("%d bulk items failed, first: [%d] %s", len(e.Failed), first.Status, first.Error)
}

const SnapshotInProgressException = "snapshot_in_progress_exception"

var (
	ErrTooManyRequests  = errors.New("too many requests")
	ErrResourceNotFound = errors.New("search resource not found")
)

type apiResponse interface {
	GetBody() io.ReadCloser
	GetStatusCode() int
	IsError() bool
}

func IsErrResponse(res apiResponse) error {
	if res.IsError() {
		return ExtractResponseError(res.GetBody(), res.GetStatusCode())
	}

	return nil
}

// ExtractResponseError decodes the engine error body and classifies it by
// status code.
func ExtractResponseError(body io.ReadCloser, statusCode int) error {
	var e map[string]any
	if err := json.NewDecoder(body).Decode(&e); err != nil {
		if retryable, ok := getRetryableError(statusCode); ok {
			return RetryableError{Cause: retryable}
		}
		return fmt.Errorf("decoding error response: [%d]: %w", statusCode, err)
	}

	var errType, errReason any = "<unknown error type>", "<unknown error reason>"
	if eErr, ok := e["error"]; ok {
		var esError ResponseError
		switch v := eErr.(type) {
		case string:
			errReason = v
		default:
			if err := mapstructure.Decode(eErr, &esError); err == nil {
				errType = esError.Type
				errReason = esError.Reason
				if esError.CausedBy != nil && esError.CausedBy.Reason != "" {
					errReason = fmt.Sprintf("%s: %s", esError.Reason, esError.CausedBy.Reason)
				}
			}
		}
	}

	if err, ok := getRetryableError(statusCode); ok {
		return RetryableError{Cause: fmt.Errorf("%w: %s: %s", err, errType, errReason)}
	}

	if statusCode == http.StatusNotFound {
		return fmt.Errorf("%w: [%d]: %s: %s", ErrResourceNotFound, statusCode, errType, errReason)
	}

	if statusCode == http.StatusBadRequest {
		switch errType {
		case SnapshotInProgressException:
			return RetryableError{Cause: fmt.Errorf("[%d] %s: %s", statusCode, errType, errReason)}
		default:
			// Generic bad request
			return ErrQueryInvalid{
				Cause: fmt.Errorf("%s: %v", errType, errReason),
			}
		}
	}

	return fmt.Errorf("[%d] %s: %s", statusCode, errType, errReason)
}

func getRetryableError(statusCode int) (error, bool) {
	switch statusCode {
	case http.StatusRequestTimeout:
		return errors.New("request timeout"), true
	case http.StatusLocked:
		return errors.New("resource locked"), true
	case http.StatusTooEarly:
		return errors.New("too early"), true
	case http.StatusTooManyRequests:
		return ErrTooManyRequests, true
	case http.StatusBadGateway:
		return errors.New("bad gateway"), true
	case http.StatusServiceUnavailable:
		return errors.New("service unavailable"), true
	case http.StatusGatewayTimeout:
		return errors.New("gateway timeout"), true
	}

	return nil, false
}
