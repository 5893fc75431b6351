// Package model defines the core data types of the docforge document model:
// node identifiers, property paths, coordinates, selections, and the Node
// record itself.
//
// A document is a flat table of typed nodes. Structure is expressed through
// container nodes whose content property holds an ordered sequence of child
// node ids. Positions inside the document are addressed by Coordinate values,
// which pair a Path (node id, optionally followed by a property name) with an
// integer offset. Selections are a closed set of variants over coordinates.
//
// The model package has no behavior of its own; editing semantics live in
// the editing package and mutation primitives in the operation package.
package model
