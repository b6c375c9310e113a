// Package xplore extracts a parent → child concept table from an XBRL
// taxonomy: a schema document plus label and presentation linkbases.
//
// The extraction itself lives in package pipeline; Xplore adds run
// persistence, a cached concept lookup and metrics around it.
package xplore
