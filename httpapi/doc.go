// Package httpapi exposes the circulation service as a JSON API on a net/http ServeMux.
//
// Request bodies are checked for shape with go-playground/validator, the business rules are
// left to the command handlers. Errors are mapped to status codes by their library error kind.
package httpapi
