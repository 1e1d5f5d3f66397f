package composer

import "errors"

var (
	// ErrTemplateNotFound is returned when a template id is not registered.
	ErrTemplateNotFound = errors.New("composer: template not found")
	// ErrIncompatibleComponent signals a component kind that may not follow
	// the current last section.
	ErrIncompatibleComponent = errors.New("composer: incompatible component")
	// ErrLimitExceeded signals that adding a section would exceed the
	// configured maximum for its component kind.
	ErrLimitExceeded = errors.New("composer: component limit exceeded")
	// ErrRequiredSection is returned when removing a required section.
	ErrRequiredSection = errors.New("composer: section is required")
	// ErrSectionNotFound is returned when a section id does not exist.
	ErrSectionNotFound = errors.New("composer: section not found")
	// ErrInvalidSection rejects sections missing an id or component, or
	// reusing an id already present in the builder.
	ErrInvalidSection = errors.New("composer: invalid section")
)
