//go:build !ORT

package provider

import "github.com/knights-analytics/hugot"

// newHugotSession starts a pure-Go inference session. Build with -tags ORT
// to use the onnxruntime shared library instead.
func newHugotSession() (*hugot.Session, error) {
	return hugot.NewGoSession()
}
