// Package document implements in-memory document state: a flat table of
// nodes mutated exclusively through operations, an observer hook notified of
// every applied operation, and a parent tracker deriving child→parent links
// from the applied operation stream.
//
// The document never mutates itself outside Apply and the typed mutators
// (Create, DeleteNode, Update, Set), all of which funnel through Apply. This
// keeps observers — including the parent tracker — a complete record of every
// state change, and keeps every mutation invertible.
package document
