// Package harvest fetches remote HTML pages and extracts structured values
// from them through a pipeline of selector strategies.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, htmlquery/, sqlite/).
package harvest
