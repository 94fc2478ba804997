// Package removebook implements the Remove Book from Catalog use case.
//
// Books are soft-deleted, so loans keep referencing them, and only once no loan is active.
package removebook
