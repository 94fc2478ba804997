// Package oteladapters implements the observability interfaces of package library with OpenTelemetry.
//
// The same values satisfy the shell interfaces, so one set of adapters serves the storage engines,
// the command and query wrappers and the retry loop.
package oteladapters
