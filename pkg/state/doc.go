// Package state persists frame captures across a debugging session.
//
// A Recorder captures a frame through a locals.Inspector, appends the result
// to a Store and reports which binding names appeared or disappeared since
// the previous capture of the same frame:
//
//	Inspector.CaptureFrame -> Store.Latest -> Delta -> Store.Append
//
// Stores only append and read records; they never inspect values. MemoryStore
// serves tests and short sessions, sqlitestore persists to disk.
package state
