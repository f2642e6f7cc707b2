// Package xmldoc builds the product XML dialect consumed by the host's
// product importer.
//
// A Document is a stack of open groups rooted at an implicit container.
// OpenGroup pushes, CloseGroup pops and AddTag appends a leaf under the
// current top. Children and attributes keep insertion order so identical
// input always serializes to identical bytes. A Document is not safe for
// concurrent use.
package xmldoc
