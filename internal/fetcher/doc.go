// Package fetcher retrieves product feeds over HTTP and parses them into
// XML trees.
//
// A Fetcher performs one GET per source with a browser User-Agent, a per
// request timeout and a body size limit. Any failure is reported as an
// *Error whose Kind tells transport, status and parse failures apart; a
// failed source never affects the others, the caller simply records the
// error and moves on.
//
// Feeds that declare a non-UTF-8 encoding in their XML declaration
// (ISO-8859-9 and windows-1254 are common for Turkish shops) are decoded
// with golang.org/x/text before parsing.
package fetcher
