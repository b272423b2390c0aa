package fetcher

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// charsetReader converts input in the named encoding to UTF-8.
// encoding/xml calls it for any encoding declaration other than UTF-8.
// Labels are resolved with the WHATWG index, so "ISO-8859-9", "latin5" and
// "windows-1254" all decode the same way.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
