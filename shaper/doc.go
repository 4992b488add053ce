// Package shaper cleans hierarchies produced by the arrangement and
// orchestration layers.
//
// Four passes run in a fixed order: orphan merging folds undersized sibling
// leaf sets into a keyword-labeled bucket, tautology pruning removes
// same-named sole-child nesting, single-child flattening collapses needless
// chains, and casing normalization renders labels in title case and terms in
// lowercase. Ordering matters; orphan merging can manufacture tautologies
// that the later passes must see. Every pass rebuilds the tree and carries
// category annotations forward.
package shaper
