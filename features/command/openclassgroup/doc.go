// Package openclassgroup implements the Open Class Group use case.
// Students may only be registered into class groups that were opened before.
package openclassgroup
