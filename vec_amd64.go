//go:build amd64 && !purego

package main

import "golang.org/x/sys/cpu"

// hasSSSE3 selects the assembly kernels; PSHUFB, PMADDUBSW and PHADDW are SSSE3.
var hasSSSE3 = cpu.X86.HasSSSE3

//go:noescape
func parseIPv4SSSE3(window *[16]byte, table *shuffleTable) (ip uint32, mask uint32)

//go:noescape
func parseClockSSSE3(field *[8]byte) uint32

func parseIPv4Kernel(window *[16]byte, table *shuffleTable) (uint32, uint16) {
	if hasSSSE3 {
		ip, mask := parseIPv4SSSE3(window, table)
		return ip, uint16(mask)
	}
	return parseIPv4Lanes(window, table)
}

func parseClockKernel(field *[8]byte) uint32 {
	if hasSSSE3 {
		return parseClockSSSE3(field)
	}
	return parseClockLanes(field)
}
