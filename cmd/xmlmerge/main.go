// Package main provides the entry point for the xmlmerge CLI.
//
// xmlmerge fetches XML product feeds, merges their product elements into a
// single catalog and publishes it over FTP, to S3 or to a local directory.
//
// Usage:
//
//	xmlmerge run <feed-url> <feed-url>...
//	xmlmerge run --config .xmlmerge.yaml
//	xmlmerge history
//
// See --help for all available options.
package main

// main is the entry point for xmlmerge.
func main() {
	Execute()
}
