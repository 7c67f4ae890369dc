// Package outputlog multiplexes the completed lines of many output streams
// into one log.
//
// # Format
//
// Each entry has this format:
//
//	stream timestamp types length: content\n
//
// # Fields
//
//   - stream: name of the output stream, for example F3N or SA11AI. "-" if empty.
//     Names containing whitespace or unprintable characters, names starting
//     with a double quote and the name "-" itself are written as a Go quoted
//     string with spaces escaped as \x20, for example "SA\x2011".
//   - timestamp: UTC timestamp in ISO 8601 format: 2006-01-02T15:04:05.000000000Z
//   - types: type metadata of the line, one letter per field. Encoded like stream.
//   - length: byte length of content.
//   - `: ` literal separator between length and content.
//   - content: exactly length bytes. Content can contain newlines.
//   - \n: separator, always added after content.
//
// # Example
//
//	F3N 2025-01-07T12:34:56.789000000Z sss 19: F3N,C00101766,ACME\n\n
//
// Content is "F3N,C00101766,ACME\n" (the completed CSV row including its
// terminator), followed by the separator.
package outputlog
