// Package render produces the saved transcript documents. The output shapes
// are a stable external contract: consumers depend on the frontmatter keys,
// the bracketed timestamp prefix on speaker lines, and the JSON field names
// speaker/text/start/end plus the top-level speakers list. Change them and
// downstream tooling breaks.
package render
