// Package builder assembles a project into a distributable product: the
// product XML document, the staged upload tree and its checksum manifests.
//
// Sections are rendered in a fixed order by the processors in sections.go.
// Options, tasks and navigation synthesize phrases and shipped files as a
// side effect; those land in per-build accumulators which the phrases
// section drains last.
package builder
