package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorIntegrityViolation       = "CASHIER_INTEGRITY_VIOLATION"
	ErrorUnknownEventType         = "CASHIER_UNKNOWN_EVENT_TYPE"
	ErrorDispatchFailed           = "CASHIER_DISPATCH_FAILED"
	ErrorCustomerResolutionFailed = "CASHIER_CUSTOMER_RESOLUTION_FAILED"
	ErrorProviderRequestFailed    = "CASHIER_PROVIDER_REQUEST_FAILED"
	ErrorBadInput                 = "CASHIER_BAD_INPUT"
	ErrorNotFound                 = "CASHIER_NOT_FOUND"
	ErrorInternal                 = "CASHIER_INTERNAL_ERROR"
)

func newError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func wrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	if source == nil {
		return newError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	// Wrapping a go-errors value clones its category; the caller's wins.
	err.Category = category
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// IntegrityViolation reports a webhook whose signature does not match the
// configured secret. It is fatal for the whole batch.
func IntegrityViolation(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryAuth, http.StatusUnauthorized, ErrorIntegrityViolation, metadata)
}

func UnknownEventType(eventType string) error {
	return newError(
		"core: there is no event for "+strings.TrimSpace(eventType),
		goerrors.CategoryNotFound,
		http.StatusNotFound,
		ErrorUnknownEventType,
		map[string]any{"event_type": eventType},
	)
}

func DispatchFailure(source error, kind string, eventID string) error {
	return wrapError(
		source,
		goerrors.CategoryOperation,
		"core: event dispatch failed",
		http.StatusBadGateway,
		ErrorDispatchFailed,
		map[string]any{"kind": kind, "event_id": eventID},
	)
}

func CustomerResolutionFailure(source error, metadata map[string]any) error {
	return wrapError(
		source,
		goerrors.CategoryExternal,
		"core: customer resolution failed",
		http.StatusBadGateway,
		ErrorCustomerResolutionFailed,
		metadata,
	)
}

func ProviderRequestFailure(source error, message string, metadata map[string]any) error {
	return wrapError(
		source,
		goerrors.CategoryExternal,
		message,
		http.StatusBadGateway,
		ErrorProviderRequestFailed,
		metadata,
	)
}

func BadInputError(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorBadInput, metadata)
}

func WrapBadInput(source error, message string, metadata map[string]any) error {
	return wrapError(source, goerrors.CategoryBadInput, message, http.StatusBadRequest, ErrorBadInput, metadata)
}

func NotFoundError(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryNotFound, http.StatusNotFound, ErrorNotFound, metadata)
}

func InternalError(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryInternal, http.StatusInternalServerError, ErrorInternal, metadata)
}

func WrapInternal(source error, message string, metadata map[string]any) error {
	return wrapError(source, goerrors.CategoryInternal, message, http.StatusInternalServerError, ErrorInternal, metadata)
}

// HasTextCode reports whether err carries the given go-errors text code.
func HasTextCode(err error, textCode string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == textCode
}

// MapError normalizes any error into a go-errors envelope with an HTTP code
// and a text code.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureErrorEnvelope(rich)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth:
		return ErrorIntegrityViolation
	case goerrors.CategoryExternal:
		return ErrorProviderRequestFailed
	case goerrors.CategoryOperation:
		return ErrorDispatchFailed
	default:
		return ErrorInternal
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
