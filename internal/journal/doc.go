// Package journal manages journals: titled, authored documents holding an
// ordered list of dated entries.
//
// Titles are unique. EDITORs and above create journals; only the author or
// an ADMIN may change one, and only an ADMIN may delete one.
package journal
