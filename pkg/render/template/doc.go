// Package template defines the template engine contract used by the HTML
// panel renderer. The pongo subpackage provides the default implementation.
package template
