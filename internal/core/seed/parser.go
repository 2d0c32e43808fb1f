// Package seed parses sponsor seed files.
// This is part of the Functional Core - all functions are pure with no I/O.
package seed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/sponsors/internal/core/validation"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrEmptyInput  = errors.New("seed file is empty")
	ErrInvalidYAML = errors.New("invalid YAML syntax")
	ErrNoSponsors  = errors.New("seed file must define at least one sponsor")
	ErrDuplicate   = errors.New("sponsor listed more than once")
)

// ParseError wraps errors with the position of the offending entry.
type ParseError struct {
	Field   string // e.g., "sponsors[2]"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Types
// =============================================================================

// Entry is one sponsor in a seed file. Values are raw and still go through
// the full create workflow.
type Entry struct {
	Name         string `yaml:"name"`
	CoopDuration string `yaml:"coop_duration"`
	ImageURL     string `yaml:"image_url"`
	WebsiteURL   string `yaml:"website_url"`
	SponsorClass string `yaml:"sponsor_class"`
}

// Fields converts the entry into create inputs.
func (e Entry) Fields() validation.CreateFields {
	return validation.CreateFields{
		Name:         e.Name,
		CoopDuration: e.CoopDuration,
		ImageURL:     e.ImageURL,
		WebsiteURL:   e.WebsiteURL,
		SponsorClass: e.SponsorClass,
	}
}

type file struct {
	Sponsors []Entry `yaml:"sponsors"`
}

// =============================================================================
// Parser
// =============================================================================

// Parse parses seed YAML of the form:
//
//	sponsors:
//	  - name: Acme
//	    coop_duration: FULL_YEAR
//	    image_url: acme.example/logo.png
//	    website_url: acme.example
//	    sponsor_class: GOLD
//
// Every entry must carry all fields and names must be unique within the file.
func Parse(content []byte) ([]Entry, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, ErrEmptyInput
	}

	var f file
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, &ParseError{Message: err.Error(), Err: ErrInvalidYAML}
	}
	if len(f.Sponsors) == 0 {
		return nil, ErrNoSponsors
	}

	seen := make(map[string]bool, len(f.Sponsors))
	for i, e := range f.Sponsors {
		field := fmt.Sprintf("sponsors[%d]", i)
		if err := validation.ValidateCreateSponsorFields(e.Fields()); err != nil {
			return nil, &ParseError{Field: field, Message: err.Error(), Err: err}
		}
		if seen[e.Name] {
			return nil, &ParseError{Field: field, Message: fmt.Sprintf("%q %s", e.Name, ErrDuplicate), Err: ErrDuplicate}
		}
		seen[e.Name] = true
	}

	return f.Sponsors, nil
}
