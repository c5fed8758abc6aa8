// Package harness runs narration scenarios: YAML files that pair an
// operation list and table metadata with assertions over the rendered
// documents, plus an optional golden snapshot of both documents.
//
// Each scenario is rendered by a fresh Narrator with a discarding logger,
// so results depend only on the scenario file.
package harness
