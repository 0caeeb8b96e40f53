// Package tools provides reusable runtime helpers shared by task handlers.
//
// Ownership boundary:
// - command execution helpers
//
// - host presence checks
package tools
