// Package editing implements the editing-behavior hierarchy and the
// top-level editing orchestrator.
//
// Node-type-specific behavior is modeled as a closed set of implementations
// of the Behavior interface — default, text, container, list — selected
// through a Registry keyed on the schema's capability tag. Unknown types fall
// back to the default behavior; externally supplied behaviors can be
// registered for custom capabilities.
//
// Combining two adjacent nodes of possibly different types runs a four-step
// negotiation: the source proposes the types it can present itself as
// (MergeAsTypes), the target picks one or refuses (SelectMergeType), the
// source converts itself to the accepted type (ConvertForMerge), and the
// target absorbs the converted node (MergeNode). "No agreement" is a normal
// control-flow outcome, not an error: if the source offered removal it is
// deleted outright, otherwise nothing happens.
//
// The Editor at the top dispatches document-level operations — insert text,
// delete, break, annotate, paste, switch text type, indent — on the current
// selection's kind and the resolved node's behavior.
package editing
