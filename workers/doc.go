// Package workers holds the periodic background jobs of the circulation service.
package workers
