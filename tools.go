//go:build tools

// Package tools tracks code generators as module dependencies so
// `go generate` works on a fresh checkout.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
