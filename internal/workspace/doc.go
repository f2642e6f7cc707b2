// Package workspace manages build directories, supporting both ephemeral
// (timestamped) and persistent (fixed-path) modes.
//
// Persistent mode is a product's staging directory: it holds the product
// document and the upload tree and is never removed by Cleanup.
//
// Ephemeral mode creates a timestamped directory (e.g.
// productbuilder-demo-20251214-122336) for intermediate trees such as a
// product ported from the database just to be built, and removes it on
// Cleanup.
package workspace
