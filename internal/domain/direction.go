package domain

// DirectionLabel derives a compass/vertical name from a connection's
// (dx, dy, dz) sign pattern. Only the signs matter: +x east, -x west,
// +y north, -y south, +z up, -z down. A pure vertical edge yields "up" or
// "down"; a mixed edge appends the vertical part ("northeast-up"). The zero
// vector yields "here".
func DirectionLabel(dx, dy, dz int) string {
	horizontal := ""
	switch {
	case dy > 0:
		horizontal = "north"
	case dy < 0:
		horizontal = "south"
	}
	switch {
	case dx > 0:
		horizontal += "east"
	case dx < 0:
		horizontal += "west"
	}

	vertical := ""
	switch {
	case dz > 0:
		vertical = "up"
	case dz < 0:
		vertical = "down"
	}

	switch {
	case horizontal == "" && vertical == "":
		return "here"
	case horizontal == "":
		return vertical
	case vertical == "":
		return horizontal
	default:
		return horizontal + "-" + vertical
	}
}
