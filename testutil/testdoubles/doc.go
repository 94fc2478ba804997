// Package testdoubles provides spies for the observability interfaces of the circulation service.
//
// All spies are safe for concurrent use, so they can be shared by handlers, workers and
// storage engines running in parallel goroutines of a test.
package testdoubles
