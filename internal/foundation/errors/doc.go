// Package errors provides the classified error primitives used across the
// product builder.
//
// Every failure that leaves a package boundary is a ClassifiedError carrying
// a category (staging, structural, io, lookup, config, ...), a severity and
// structured context. Errors are built with the fluent ErrorBuilder:
//
//	err := errors.IOError("source file missing").
//		WithContext("path", path).
//		WithCause(statErr).
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
