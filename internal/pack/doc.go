// Package pack assembles a directory into one document. It scans files,
// reduces each one on a bounded worker pool (structure-aware compression or
// a line budget), renders the results and writes them out.
//
// Per-file failures never abort a run; they are reported in
// Result.Skipped. Only an uninitialized language manager, cancellation, or
// a scan or write failure fails Pack as a whole.
package pack
