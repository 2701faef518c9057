// Package errd provides a tiny helper for adding context to a named error
// return via defer, without the boilerplate of an explicit if err != nil.
package errd

import "fmt"

// Wrap wraps *err with the formatted message if *err is non-nil, e.g.:
//
//	func listen(addr string) (err error) {
//		defer errd.Wrap(&err, "listen on %s", addr)
//		...
//	}
func Wrap(err *error, f string, v ...interface{}) {
	if *err != nil {
		*err = fmt.Errorf(f+": %w", append(v, *err)...)
	}
}
