// Package validate decides whether a parsed query is semantically valid
// against a schema registry.
//
// Validation runs WHERE, then TRANSFORMATIONS (if present), then OPTIONS,
// and stops at the first violation. The traversal threads one state value
// per call:
//
//   - the bound dataset, fixed by the first key that resolves and required
//     to match every key after it;
//   - the produced keys (GROUP keys and apply keys), which become the only
//     keys COLUMNS may name once a transformation is present;
//   - the projected keys (COLUMNS in order), which are the only keys ORDER
//     may name.
//
// A Validator holds nothing but its registry and logger, so it may be
// reused and called concurrently; each call gets fresh state.
package validate
