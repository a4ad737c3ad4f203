// Package todo holds the task list and the pure operations over it.
//
// A List is an ordered slice of Task records. Insertion order is the display
// order and ids are unique within a list. Every operation returns a new List
// and leaves its input untouched, so callers can keep the previous value
// around and compare.
//
// # Wire Format
//
// Lists are stored as a compact JSON array:
//
//	[
//	  {"id": 1718000000000, "text": "Buy milk", "completed": false, "createdAt": "2024-06-10T06:13:20.000Z"}
//	]
//
// Decode checks the payload against an embedded JSON Schema before
// unmarshalling, then runs List.Validate. Any failure yields an error; the
// caller decides how to recover.
//
// # Filter Modes
//
//   - "all": every task
//   - "active": tasks that are not completed
//   - "completed": tasks that are completed
//
// Filter treats an unrecognised mode as "all". ParseFilterMode rejects
// unknown strings so they never reach Filter from user input.
package todo
