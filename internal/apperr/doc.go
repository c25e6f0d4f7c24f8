// Package apperr defines shared error sentinels for the dnsbench application.
// It is a leaf package with no internal imports, so any package (including
// low-level infrastructure like probe and sysdns) can use the sentinels
// without creating import cycles.
package apperr
