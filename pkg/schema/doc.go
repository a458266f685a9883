// Package schema defines the canonical parameter schema produced by the
// extract/normalize pipeline and consumed by preview stores, panels and
// validators.
package schema
