// Package harness runs YAML-defined integrity scenarios against a real
// store.
//
// A scenario declares a fixture (notes, pages, blocks, relations, links),
// a sequence of engine operations (repair, merge, normalize), and checks on
// the final state. The runner executes the operations in order, asserts on
// expected failures, verifies every check, and can additionally snapshot the
// operation results against a golden file.
//
// Scenario files live in testdata/scenarios; golden files in testdata/golden.
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
