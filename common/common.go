package common

// Logical screen size of the sandbox. Scenes are authored in these units
// with y pointing up from the bottom edge.
const (
	BaseWidth  = 1280
	BaseHeight = 720
)
