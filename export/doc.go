// Package export renders taxonomies as documents. The YAML form is the
// primary one: category annotations ride along as "# instruction:" line
// comments on their keys and are recovered on read, independent of the
// value payload. The JSON form is annotation-free.
package export
