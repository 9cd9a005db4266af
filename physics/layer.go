package physics

// AllLayers matches every collision layer.
const AllLayers uint32 = 0xFFFFFFFF

// LayerCount is the number of addressable bits in a layer or mask field.
const LayerCount = 32

// CheckCollisionLayers reports whether two shapes may generate contact. A pair
// passes when either side's mask selects the other side's layer.
func CheckCollisionLayers(layerA, maskA, layerB, maskB uint32) bool {
	return layerA&maskB != 0 || layerB&maskA != 0
}

// GetBit reports whether bit n of field is set. Out of range bits read as false.
func GetBit(field uint32, n int) bool {
	if n < 0 || n >= LayerCount {
		return false
	}
	return field&(1<<uint(n)) != 0
}

// SetBit returns field with bit n set or cleared. Out of range bits leave field
// unchanged.
func SetBit(field uint32, n int, value bool) uint32 {
	if n < 0 || n >= LayerCount {
		return field
	}
	if value {
		return field | 1<<uint(n)
	}
	return field &^ (1 << uint(n))
}
