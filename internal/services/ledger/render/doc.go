// Package render writes human-readable timeline reports.
//
// Amounts are printed through golang.org/x/text/message so digit grouping
// and labels follow the requested language. English and French catalogs are
// registered at init.
package render
