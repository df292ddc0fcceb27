// Package harness runs conformance scenarios for the request language.
//
// A scenario is one wire request plus what should come of it: either a
// compiled command or a typed error. Update scenarios may carry a
// document, in which case the actions are also applied in memory and the
// touched fields and diff are recorded. Select and delete scenarios with a
// document record whether the final query step matches it.
//
// # Scenario Format
//
//	name: select_by_title
//	description: "Roots merge with the last query step"
//	kind: select
//	config:
//	  max_depth: 30
//	request: |
//	  {"$roots": ["u1"], "$query": [{"$eq": {"Title": "X"}}]}
//	document: |
//	  {"_id": "u1", "Title": "X"}
//	expect:
//	  error: ""
//	  matches: true
//	  fields: []
//
// Request and document are JSON text so that key order survives YAML.
//
// # Golden Files
//
// Every run produces a Snapshot. RunWithGolden compares its indented JSON
// against testdata/golden/<name>.golden; regenerate with
//
//	go test ./internal/harness -update
package harness
