package domain

import (
	"errors"
	"fmt"
)

// =============================================================================
// Fields
// =============================================================================

// Field identifies a sponsor input field in validation errors.
type Field string

const (
	FieldName         Field = "sponsor_name"
	FieldCoopDuration Field = "coop_duration"
	FieldImageURL     Field = "sponsor_image_url"
	FieldWebsiteURL   Field = "sponsor_website_url"
	FieldSponsorClass Field = "sponsor_class"
)

// Label returns the human-readable name used in error messages.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return "sponsor name"
	case FieldCoopDuration:
		return "coop duration"
	case FieldImageURL:
		return "sponsor image url"
	case FieldWebsiteURL:
		return "sponsor website url"
	case FieldSponsorClass:
		return "sponsor class"
	default:
		return string(f)
	}
}

// =============================================================================
// Errors
// =============================================================================

var (
	ErrMissingField     = errors.New("missing field")
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrNotFound         = errors.New("not found")
	ErrURLUnreachable   = errors.New("url unreachable")
	ErrURLFormat        = errors.New("url format error")
	ErrNoOpUpdate       = errors.New("nothing to change")
)

// ErrorKind classifies a SponsorError.
type ErrorKind int

const (
	KindMissingField ErrorKind = iota
	KindInvalidEnumValue
	KindDuplicateKey
	KindNotFound
	KindURLUnreachable
	KindURLFormat
	KindNoOpUpdate
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMissingField:
		return ErrMissingField
	case KindInvalidEnumValue:
		return ErrInvalidEnumValue
	case KindDuplicateKey:
		return ErrDuplicateKey
	case KindNotFound:
		return ErrNotFound
	case KindURLUnreachable:
		return ErrURLUnreachable
	case KindURLFormat:
		return ErrURLFormat
	default:
		return ErrNoOpUpdate
	}
}

// String returns the machine-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindMissingField:
		return "missing_field"
	case KindInvalidEnumValue:
		return "invalid_enum_value"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindNotFound:
		return "not_found"
	case KindURLUnreachable:
		return "url_unreachable"
	case KindURLFormat:
		return "url_format_error"
	case KindNoOpUpdate:
		return "no_op_update"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SponsorError is a recoverable validation failure reported to the caller.
// errors.Is matches both the kind sentinel (ErrMissingField, ...) and the cause.
type SponsorError struct {
	Kind    ErrorKind
	Field   Field
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SponsorError) Error() string {
	return e.Message
}

// Unwrap exposes the kind sentinel and, when present, the underlying cause.
func (e *SponsorError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

// NewMissingFieldError creates an error for an empty required field.
func NewMissingFieldError(field Field) *SponsorError {
	return &SponsorError{
		Kind:    KindMissingField,
		Field:   field,
		Message: fmt.Sprintf("%s cannot be empty", field.Label()),
	}
}

// NewInvalidValueError creates an error for a value outside its enumeration.
func NewInvalidValueError(field Field) *SponsorError {
	return &SponsorError{
		Kind:    KindInvalidEnumValue,
		Field:   field,
		Message: fmt.Sprintf("%s is not valid", field.Label()),
	}
}

// NewDuplicateNameError creates an error for a name that is already taken.
func NewDuplicateNameError(cause error) *SponsorError {
	return &SponsorError{
		Kind:    KindDuplicateKey,
		Field:   FieldName,
		Message: "sponsor name already exists",
		Err:     cause,
	}
}

// NewSponsorNotFoundError creates an error for an update of an unknown sponsor.
func NewSponsorNotFoundError(cause error) *SponsorError {
	return &SponsorError{
		Kind:    KindNotFound,
		Field:   FieldName,
		Message: "sponsor does not exist",
		Err:     cause,
	}
}

// NewURLUnreachableError creates an error for a probe that completed without a 200.
func NewURLUnreachableError(field Field) *SponsorError {
	return &SponsorError{
		Kind:    KindURLUnreachable,
		Field:   field,
		Message: fmt.Sprintf("%s connection failed", field.Label()),
	}
}

// NewURLFormatError creates an error for a probe that could not execute.
func NewURLFormatError(field Field, cause error) *SponsorError {
	return &SponsorError{
		Kind:    KindURLFormat,
		Field:   field,
		Message: fmt.Sprintf("%s format error", field.Label()),
		Err:     cause,
	}
}

// NewNoOpUpdateError creates an error for an update that supplies no fields.
func NewNoOpUpdateError() *SponsorError {
	return &SponsorError{
		Kind:    KindNoOpUpdate,
		Message: "nothing to be changed",
	}
}

// AsSponsorError extracts a SponsorError from an error chain.
func AsSponsorError(err error) (*SponsorError, bool) {
	var sErr *SponsorError
	if errors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}
