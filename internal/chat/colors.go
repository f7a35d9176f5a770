package chat

const colorReset = "\033[0m"

var colorPalette = []string{
	"\033[31m", // Red
	"\033[32m", // Green
	"\033[33m", // Yellow
	"\033[34m", // Blue
	"\033[35m", // Magenta
	"\033[36m", // Cyan
}

// colorCache assigns each participant a stable display color for the lifetime
// of the renderer that owns it. The same identity always hashes to the same
// palette slot.
type colorCache struct {
	assigned map[string]string
	palette  []string
}

func newColorCache() *colorCache {
	return &colorCache{
		assigned: make(map[string]string),
		palette:  colorPalette,
	}
}

func (c *colorCache) colorFor(user string) string {
	if color, ok := c.assigned[user]; ok {
		return color
	}
	var hash uint32
	for _, r := range user {
		hash = uint32(r) + (hash << 5) - hash
	}
	color := c.palette[hash%uint32(len(c.palette))]
	c.assigned[user] = color
	return color
}
