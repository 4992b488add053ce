// Package naming labels term groups produced by clustering or shaping.
//
// The Namer walks an ordered fallback chain. It first asks the lexical
// oracle for the group's lowest common ancestor, rejecting overly generic or
// already-claimed concepts. Failing that, it names the group after the
// medoid term's immediate hypernym, disambiguating with the medoid itself
// when needed. When the ontology knows nothing about the group, a
// corpus-relative keyword score picks a distinguishing word, and the namer
// abstains entirely if none stands out.
package naming
