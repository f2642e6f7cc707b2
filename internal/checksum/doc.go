// Package checksum computes the integrity manifests shipped with a built
// product.
//
// Two manifests are produced. The flat manifest maps every staged file's
// directory key to basename hashes and is loadable by the host's own file
// verifier. The extended manifest adds per-hook plugin hashes and
// per-template hashes. Both are written as PHP literal assignments.
//
// Hashes are MD5 hex digests. Image files are hashed raw; everything else
// has CRLF line endings normalized to LF first.
package checksum
