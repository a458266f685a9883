// Package script exposes the public contracts for reading generative-art
// scripts: where they come from (Source), what was read (Document) and how
// (Loader). Implementations live under internal/script.
package script
