// Package composer assembles marketing pages from registered templates. A
// Registry holds the immutable template blueprints, Rules describe which
// component kinds may follow each other, how they are ordered and how often
// they may appear, and a Builder mutates a private copy of one template until
// it is exported for rendering.
package composer
