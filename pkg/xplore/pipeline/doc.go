// Package pipeline runs the taxonomy extraction stages in order and
// returns the enriched relation table.
//
// The stages are strictly sequential; within the label and hierarchy
// stages documents are parsed concurrently and merged in a fixed order,
// so a run's output depends only on its inputs.
package pipeline
