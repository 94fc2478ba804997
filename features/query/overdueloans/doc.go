// Package overdueloans provides the list of active loans that are past their due date or fall due soon.
//
// The overdue notifier and the circulation desk read the same view: overdue loans ordered by how late
// they are, followed by the loans that fall due within the requested window.
package overdueloans
