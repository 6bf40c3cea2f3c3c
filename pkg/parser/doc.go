// Package parser provides log-line classification and field extraction
// for muninn.
//
// The parser package implements the single canonical line format used
// across the ingestion pipeline: a timestamp prefix followed by a
// free-form message. It turns qualifying lines into records and rejects
// everything else without error.
//
// # Line Format
//
// A line qualifies as a log entry when it opens with a timestamp of the
// form:
//
//	YYYY-MM-DD HH:MM:SS,mmm message...
//	YYYY-MM-DD HH:MM:SS.mmm message...
//
// The millisecond separator may be a comma or a dot; it is normalized
// to a dot before the timestamp is parsed. Two independent checks run
// per line: the quick prefix predicate (IsLogLine) and the full
// structured pattern (timestamp, whitespace, remainder). Both must
// match for a record to be produced. If the timestamp text matches the
// pattern but is not a valid date-time, the record still parses and its
// timestamp falls back to the current processing time.
//
// # Severity Classification
//
// The message remainder is scanned case-insensitively for the
// substrings "error" and "warning":
//
//   - "error" present: Level = ERROR
//   - "warning" present (and no error): Level = WARNING
//   - neither present: Level = INFO
//
// A match immediately preceded by a standalone "0 " token does not
// count. Build summaries such as
//
//	2024-01-01 10:00:00.123 Build succeeded with 0 errors and 0 warnings
//
// report zero occurrences and classify as INFO. The suppression applies
// per occurrence, so "0 errors and 2 warnings" still classifies as
// WARNING.
//
// # Record Recycling
//
// A Parser constructed with a record pool draws records from it and
// falls back to direct allocation when the pool cannot serve. Callers
// own every record the parser hands out and are responsible for
// returning it to the pool.
//
// # Failure Modes
//
// Parse never returns an error. Blank and non-matching lines produce no
// record; malformed timestamps degrade to the processing-time fallback.
//
// # Thread Safety
//
// Parser instances hold no per-line state and are safe for concurrent
// use; the compiled patterns are shared.
package parser
