// Package publish delivers the merged catalog to its destination.
//
// Every publisher serializes the catalog the same way (indented UTF-8 XML
// with a declaration), checks the destination before touching the network,
// and reports the published location, size and SHA3-256 digest.
//
// Supported destinations:
//   - ftp: an authenticated FTP session with passive data connections
//     (github.com/jlaffaye/ftp). A failing directory change is not fatal;
//     the file is stored in the session's default directory instead.
//   - s3: a PutObject to an S3-compatible bucket (aws-sdk-go-v2).
//   - file: a write into a local directory, useful for dry runs.
//
// Router picks the publisher by destination kind.
package publish
