// Package record defines the error taxonomy for a crawl run and the Recorder
// that accumulates classified failures into the final report.
//
// The Recorder is one of the two pieces of shared mutable state in a run (the
// other is the anchor ledger pair); everything else in the pipeline is
// stateless. It exclusively owns the record collection: event handlers feed
// it, and at crawl completion it is finalized exactly once into a Report that
// carries the process exit code.
package record
