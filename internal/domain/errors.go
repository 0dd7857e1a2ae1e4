package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTopic rejects a submission whose topic is blank.
	ErrEmptyTopic = errors.New("Please enter a topic.")

	// ErrNoTemplateSelected rejects a template-mode submission without a template.
	ErrNoTemplateSelected = errors.New("Please select a template first.")

	// ErrGenerationInProgress rejects a submission while another one runs.
	ErrGenerationInProgress = errors.New("a meme is already being generated")

	// ErrMemeNotFound is returned for unknown history ids.
	ErrMemeNotFound = errors.New("meme not found")

	// ErrTemplateNotFound is returned for unknown template ids.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrUnknownImageSource rejects a render of an image the session never offered.
	ErrUnknownImageSource = errors.New("image_url must be a data URL, a template image or a history image")

	// ErrStaleGeneration marks a result that arrived after its attempt was abandoned.
	ErrStaleGeneration = errors.New("generation attempt was abandoned")
)

// ValidationError is a submission rejected before any state change.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// ServiceError is a failed content-service step.
type ServiceError struct {
	Step string // "text" or "image"
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Step, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
