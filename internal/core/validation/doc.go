// Package validation provides pure validation functions for the sponsor workflow.
//
// This package contains the functional core logic for checking sponsor input
// before any I/O happens. All functions are pure (no I/O, no side effects).
//
// # Functions
//
//   - ValidateCreateSponsorFields: Check that every create field is present
//   - HasUpdateFields: Check that an update supplies at least one field
//   - ResolveCoopDuration, ResolveSponsorClass: Resolve optional update fields
//   - BuildPatch: Fold resolved changes into a single partial update
//
// # Usage
//
// Update fields are resolved once into a Change, then folded:
//
//	duration := validation.ResolveCoopDuration(req.CoopDuration)
//	class := validation.ResolveSponsorClass(req.SponsorClass)
//	patch, err := validation.BuildPatch(duration, class, image, website)
//	if err != nil {
//	    // Return the first invalid field
//	}
package validation
