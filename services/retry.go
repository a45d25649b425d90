package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/smithy-go"
)

const (
	maxStoreAttempts = 3
	baseRetryDelay   = 100 * time.Millisecond
)

// transientErrorCodes are worth retrying: the table is fine, the service
// just pushed back.
var transientErrorCodes = map[string]bool{
	"ThrottlingException":                    true,
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
	"TransactionConflictException":           true,
}

// fatalErrorCodes mean the request shape disagrees with the table schema.
// Retrying cannot fix these.
var fatalErrorCodes = map[string]bool{
	"ValidationException":       true,
	"ResourceNotFoundException": true,
}

// IsFatalSchemaError reports whether err is a non-retryable schema defect.
func IsFatalSchemaError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fatalErrorCodes[apiErr.ErrorCode()]
	}
	return false
}

// IsTransientError reports whether err is worth retrying. Unclassified
// non-API errors count as transient transport failures; store misses,
// conditional-write losses, and local unmarshal failures do not.
func IsTransientError(err error) bool {
	if err == nil || errors.Is(err, ErrItemNotFound) {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return transientErrorCodes[apiErr.ErrorCode()]
	}
	if IsConditionalCheckFailed(err) {
		return false
	}
	var unmarshalTypeErr *attributevalue.UnmarshalTypeError
	var invalidUnmarshalErr *attributevalue.InvalidUnmarshalError
	if errors.As(err, &unmarshalTypeErr) || errors.As(err, &invalidUnmarshalErr) {
		return false
	}
	return true
}

// withRetries runs op under the store retry policy: transient failures are
// retried with doubling backoff until the attempt budget runs out, fatal
// schema errors surface immediately as ErrSchemaMismatch, and anything
// else (misses, conditional losses, domain sentinels) passes through.
func withRetries(ctx context.Context, label string, op func() error) error {
	delay := baseRetryDelay
	var err error
	for attempt := 1; attempt <= maxStoreAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if IsFatalSchemaError(err) {
			log.Printf("❌ %s: fatal store error: %v", label, err)
			return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		if !IsTransientError(err) {
			return err
		}
		if attempt == maxStoreAttempts {
			break
		}
		log.Printf("⚠️ %s: transient store error (attempt %d/%d): %v", label, attempt, maxStoreAttempts, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	log.Printf("❌ %s: retry budget exhausted: %v", label, err)
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, label, err)
}
