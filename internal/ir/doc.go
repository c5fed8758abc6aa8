// Package ir provides the Operation IR consumed by the narration engine.
//
// This package contains type definitions and their JSON decoding only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Operation, Expression and Value are sealed interfaces (marker methods)
//     so type switches over them are closed and exhaustive
//   - Every operation carries Common, so Output is always present but nullable
//   - Decoding never fails on an unrecognized operation kind (Unknown) or on a
//     malformed expression node (Malformed); only structurally invalid JSON
//     is an error
//   - All JSON tags use snake_case, matching the planner's wire format
//   - The IR is immutable input: nothing downstream writes to it
package ir
