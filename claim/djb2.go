// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package claim

// DJB2 reduces s to a 32-bit field element using Bernstein's classic
// string hash: h=5381; h=((h<<5)+h+c) mod 2^32 for each byte c. Kept
// verbatim, including its known collision rate, rather than silently
// swapped for a stronger hash: the circuit was built against this
// specific reduction.
func DJB2(s string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(s); i++ {
		h = (h << 5) + h + uint32(s[i])
	}
	return h
}
