// Package export renders a site's daily attendance sheet as CSV or XLSX and
// reads worker rosters back from the same two formats.
package export
