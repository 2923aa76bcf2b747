//go:build !amd64 || purego

package main

const hasSSSE3 = false

func parseIPv4Kernel(window *[16]byte, table *shuffleTable) (uint32, uint16) {
	return parseIPv4Lanes(window, table)
}

func parseClockKernel(field *[8]byte) uint32 {
	return parseClockLanes(field)
}
