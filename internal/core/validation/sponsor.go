package validation

import "github.com/artpar/sponsors/internal/core/domain"

// =============================================================================
// Create Validation
// =============================================================================

// CreateFields holds the raw inputs of a create request.
type CreateFields struct {
	Name         string
	CoopDuration string
	ImageURL     string
	WebsiteURL   string
	SponsorClass string
}

// ValidateCreateSponsorFields checks that every create field is non-empty.
// Fields are checked in order and the first missing one is reported.
//
// Example:
//
//	if err := ValidateCreateSponsorFields(fields); err != nil {
//	    // Handle missing field
//	}
func ValidateCreateSponsorFields(f CreateFields) error {
	required := []struct {
		field domain.Field
		value string
	}{
		{domain.FieldName, f.Name},
		{domain.FieldCoopDuration, f.CoopDuration},
		{domain.FieldImageURL, f.ImageURL},
		{domain.FieldWebsiteURL, f.WebsiteURL},
		{domain.FieldSponsorClass, f.SponsorClass},
	}
	for _, r := range required {
		if r.value == "" {
			return domain.NewMissingFieldError(r.field)
		}
	}
	return nil
}

// ValidateName checks a lookup or update key.
func ValidateName(name string) error {
	if name == "" {
		return domain.NewMissingFieldError(domain.FieldName)
	}
	return nil
}

// =============================================================================
// Update Resolution
// =============================================================================

// UpdateFields holds the optional raw inputs of an update request.
// An empty string means the field is left unchanged.
type UpdateFields struct {
	CoopDuration string
	ImageURL     string
	WebsiteURL   string
	SponsorClass string
}

// HasUpdateFields reports whether an update supplies anything to change.
func HasUpdateFields(f UpdateFields) bool {
	return f.CoopDuration != "" || f.ImageURL != "" || f.WebsiteURL != "" || f.SponsorClass != ""
}

// ChangeState is the resolution of one optional update field.
type ChangeState int

const (
	Unchanged ChangeState = iota
	SetTo
	Invalid
)

// Change is a resolved optional field: left alone, set to a value, or rejected.
type Change[T any] struct {
	State ChangeState
	Value T
	Err   error
}

// Keep returns an Unchanged change.
func Keep[T any]() Change[T] {
	return Change[T]{State: Unchanged}
}

// Set returns a change that sets the field to v.
func Set[T any](v T) Change[T] {
	return Change[T]{State: SetTo, Value: v}
}

// Reject returns an Invalid change carrying the reason.
func Reject[T any](err error) Change[T] {
	return Change[T]{State: Invalid, Err: err}
}

// ptr returns a pointer to the value for SetTo changes and nil otherwise.
func (c Change[T]) ptr() *T {
	if c.State != SetTo {
		return nil
	}
	v := c.Value
	return &v
}

// ResolveCoopDuration resolves an optional co-op duration input.
func ResolveCoopDuration(raw string) Change[domain.CoopDuration] {
	if raw == "" {
		return Keep[domain.CoopDuration]()
	}
	d, err := domain.ParseCoopDuration(raw)
	if err != nil {
		return Reject[domain.CoopDuration](err)
	}
	return Set(d)
}

// ResolveSponsorClass resolves an optional sponsor class input.
func ResolveSponsorClass(raw string) Change[domain.SponsorClass] {
	if raw == "" {
		return Keep[domain.SponsorClass]()
	}
	c, err := domain.ParseSponsorClass(raw)
	if err != nil {
		return Reject[domain.SponsorClass](err)
	}
	return Set(c)
}

// FirstInvalid returns the error of the first Invalid change, in argument order.
func FirstInvalid(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// BuildPatch folds resolved changes into a partial update.
// The first invalid change (duration, class, image, website) is returned as the error.
func BuildPatch(
	duration Change[domain.CoopDuration],
	class Change[domain.SponsorClass],
	imageURL Change[string],
	websiteURL Change[string],
) (domain.SponsorPatch, error) {
	if err := FirstInvalid(duration.Err, class.Err, imageURL.Err, websiteURL.Err); err != nil {
		return domain.SponsorPatch{}, err
	}
	return domain.SponsorPatch{
		CoopDuration: duration.ptr(),
		ImageURL:     imageURL.ptr(),
		WebsiteURL:   websiteURL.ptr(),
		Class:        class.ptr(),
	}, nil
}
