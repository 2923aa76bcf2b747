package main

// vec128 models an SSE register as 16 byte lanes, byte 0 least significant.
// The methods mirror the instructions the assembly kernels use so both
// paths compute the same thing step by step.
type vec128 [16]byte

// subBytes is PSUBB with a broadcast operand.
func (v vec128) subBytes(c byte) vec128 {
	for i := range v {
		v[i] -= c
	}
	return v
}

// moveMask is PMOVMSKB: bit i is the sign bit of byte i.
func (v vec128) moveMask() uint16 {
	var m uint16
	for i, b := range v {
		m |= uint16(b>>7) << uint(i)
	}
	return m
}

// shuffle is PSHUFB.
func (v vec128) shuffle(ctrl vec128) vec128 {
	var r vec128
	for i, c := range ctrl {
		if c&0x80 == 0 {
			r[i] = v[c&0x0f]
		}
	}
	return r
}

// maddubs is PMADDUBSW: unsigned bytes of u times signed bytes of s,
// adjacent products summed into saturated int16 lanes.
func maddubs(u, s vec128) [8]int16 {
	var r [8]int16
	for i := range r {
		p := int32(u[2*i])*int32(int8(s[2*i])) + int32(u[2*i+1])*int32(int8(s[2*i+1]))
		r[i] = saturate16(p)
	}
	return r
}

// haddw is PHADDW with both operands the same register.
func haddw(w [8]int16) [8]int16 {
	var r [8]int16
	for i := 0; i < 4; i++ {
		r[i] = w[2*i] + w[2*i+1]
		r[i+4] = r[i]
	}
	return r
}

// maddw is PMADDWD.
func maddw(a, b [8]int16) [4]int32 {
	var r [4]int32
	for i := range r {
		r[i] = int32(a[2*i])*int32(b[2*i]) + int32(a[2*i+1])*int32(b[2*i+1])
	}
	return r
}

func saturate16(p int32) int16 {
	switch {
	case p > 32767:
		return 32767
	case p < -32768:
		return -32768
	}
	return int16(p)
}

func words(v vec128) [8]int16 {
	var w [8]int16
	for i := range w {
		w[i] = int16(uint16(v[2*i]) | uint16(v[2*i+1])<<8)
	}
	return w
}

func fromWords(w [8]int16) vec128 {
	var v vec128
	for i, x := range w {
		v[2*i] = byte(x)
		v[2*i+1] = byte(uint16(x) >> 8)
	}
	return v
}

var (
	// place weights inside a lane: ones, tens, hundreds
	ipDigitWeights = vec128{1, 10, 100, 0, 1, 10, 100, 0, 1, 10, 100, 0, 1, 10, 100, 0}
	// low byte of each of the four lane sums, fourth octet first
	ipOctetPack = vec128{0, 2, 4, 6, zeroLane, zeroLane, zeroLane, zeroLane,
		zeroLane, zeroLane, zeroLane, zeroLane, zeroLane, zeroLane, zeroLane, zeroLane}

	// "HH:MM:SS": H digits to bytes 6-7, M to 12-13, S to 14-15
	clockShuffle = vec128{zeroLane, zeroLane, zeroLane, zeroLane, zeroLane, zeroLane, 0, 1,
		zeroLane, zeroLane, zeroLane, zeroLane, 3, 4, 6, 7}
	clockDigitWeights = vec128{0, 0, 0, 0, 0, 0, 10, 1, 0, 0, 10, 1, 10, 1, 10, 1}
	clockUnitWeights  = [8]int16{0, 0, 0, 3600, 0, 0, 60, 1}
)

// parseIPv4Lanes runs the IPv4 kernel on the lane model. It returns the
// address and the digit mask used for the table lookup.
func parseIPv4Lanes(window *[16]byte, table *shuffleTable) (uint32, uint16) {
	in := vec128(*window).subBytes('0')
	mask := in.moveMask()
	digits := in.shuffle(table[mask])
	sums := haddw(maddubs(ipDigitWeights, digits))
	packed := fromWords(sums).shuffle(ipOctetPack)
	return uint32(packed[0]) | uint32(packed[1])<<8 | uint32(packed[2])<<16 | uint32(packed[3])<<24, mask
}

// parseClockLanes turns "HH:MM:SS" into seconds since midnight.
func parseClockLanes(field *[8]byte) uint32 {
	var in vec128
	copy(in[:], field[:])
	in = in.subBytes('0').shuffle(clockShuffle)
	prod := maddw(maddubs(clockDigitWeights, in), clockUnitWeights)
	return uint32(prod[1] + prod[3])
}
