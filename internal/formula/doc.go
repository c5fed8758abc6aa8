// Package formula compiles the IR into spreadsheet formula text.
//
// Two renderings share one package:
//
//   - Compiler.Compile turns an expression tree into a row-relative formula
//     template containing the {row} placeholder; Instantiate substitutes a
//     concrete row.
//   - The dynamic-array builders (Filter, Sort, GroupBy, Take, SelectColumns,
//     DropColumns) and Aggregate render whole-operation spreadsheet-365
//     formulas.
//
// Nothing here evaluates formulas, and nothing here fails: unresolved tables
// and columns fall back to MATCH-based references, malformed expression nodes
// render as "...".
package formula
