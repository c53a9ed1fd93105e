// autokey.go: call-site key derivation for the key-less GetOrCompute
// overloads (spec.md §9, open question 3)
//
// Grounded on the canonical-hash keying pattern in
// jonwraymond-toolops/cache/keyer.go, adapted from (toolID, input-JSON) to
// (call-site identity, explicit discriminator).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import (
	"crypto/sha256"
	"encoding/hex"
	"runtime"
)

// callSite identifies one call to an auto-keying overload by the identity
// of its caller, not by any runtime value it passes in.
type callSite struct {
	functionName    string
	compilationUnit string
	line            int
}

// captureCallSite walks skip frames up from its own caller. skip=1 from a
// direct caller of captureCallSite yields that caller's own site; auto-key
// entry points pass skip=2 to attribute the key to the code that called
// the Cache method rather than the method itself.
func captureCallSite(skip int) callSite {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return callSite{functionName: "unknown", compilationUnit: "unknown", line: 0}
	}
	fn := runtime.FuncForPC(pc)
	name := "unknown"
	if fn != nil {
		name = fn.Name()
	}
	return callSite{functionName: name, compilationUnit: file, line: line}
}

// deriveKey canonicalizes a callSite plus an optional caller-supplied
// discriminator into a stable cache key. Two calls from the exact same
// source line with the same discriminator always derive the same key;
// calls from different lines never collide (barring a SHA-256 collision).
// Because the file path and line number are part of the key, moving the
// call site to another file or line changes its derived key.
func (c callSite) deriveKey(discriminator string) string {
	h := sha256.New()
	h.Write([]byte(c.functionName))
	h.Write([]byte{0})
	h.Write([]byte(c.compilationUnit))
	h.Write([]byte{0})
	h.Write(itoaBytes(c.line))
	h.Write([]byte{0})
	h.Write([]byte(discriminator))
	sum := h.Sum(nil)
	return "autokey:" + hex.EncodeToString(sum[:12])
}

// itoaBytes avoids pulling in strconv for a single call site; line numbers
// are small and this runs once per auto-keyed call.
func itoaBytes(n int) []byte {
	if n == 0 {
		return []byte{'0'}
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return buf[i:]
}
