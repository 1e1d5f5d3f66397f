// Package template defines the text template seam used by the HTML page
// renderer. Concrete engines live in sub-packages.
package template
