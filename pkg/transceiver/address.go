package transceiver

// A UniversalAddress is a 32 byte, left padded emitter identity as used on the
// cross chain transport.
type UniversalAddress [32]byte

// UniversalFromEth left pads a 20 byte execution layer address into a universal
// address. This mirrors bytes32(uint256(uint160(address))).
func UniversalFromEth(address [20]byte) UniversalAddress {
	var universal UniversalAddress
	copy(universal[12:], address[:])
	return universal
}

// EthFromUniversal extracts the trailing 20 bytes of a universal address.
func EthFromUniversal(universal UniversalAddress) [20]byte {
	var address [20]byte
	copy(address[:], universal[12:])
	return address
}

func (u UniversalAddress) IsZero() bool {
	return u == UniversalAddress{}
}
