// Package catalog merges parsed product feeds into one catalog document and
// serializes it.
//
// The merged document always has an XML declaration and a products root.
// Every product element found below the root of an input document is moved,
// not copied, into the merged root in input order and then document order.
// After Merge the input documents no longer contain those products.
package catalog
