// Package value provides the canonical values carried by DSL requests.
//
// Wire JSON is decoded once into these types, with object key order
// preserved. Every other internal package depends on value; value imports
// nothing internal.
//
// Key constraints:
//   - Objects are ordered member lists, never Go maps
//   - Integers stay exact (int64); only fractional or huge numbers are Float
//   - Canonical JSON (sorted keys, NFC strings) backs fingerprints and diffs
package value
