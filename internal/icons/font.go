package icons

// digits is a 4x9 bitmap font. Each row is GlyphWidth wide; '#' is a lit pixel.
var digits = [10][GlyphHeight]string{
	{
		"####",
		"#..#",
		"#..#",
		"#..#",
		"#..#",
		"#..#",
		"#..#",
		"#..#",
		"####",
	},
	{
		"...#",
		"...#",
		"...#",
		"...#",
		"...#",
		"...#",
		"...#",
		"...#",
		"...#",
	},
	{
		"####",
		"...#",
		"...#",
		"...#",
		"####",
		"#...",
		"#...",
		"#...",
		"####",
	},
	{
		"####",
		"...#",
		"...#",
		"...#",
		"####",
		"...#",
		"...#",
		"...#",
		"####",
	},
	{
		"#..#",
		"#..#",
		"#..#",
		"#..#",
		"####",
		"...#",
		"...#",
		"...#",
		"...#",
	},
	{
		"####",
		"#...",
		"#...",
		"#...",
		"####",
		"...#",
		"...#",
		"...#",
		"####",
	},
	{
		"#...",
		"#...",
		"#...",
		"#...",
		"####",
		"#..#",
		"#..#",
		"#..#",
		"####",
	},
	{
		"####",
		"...#",
		"...#",
		"...#",
		"...#",
		"...#",
		"...#",
		"...#",
		"...#",
	},
	{
		"####",
		"#..#",
		"#..#",
		"#..#",
		"####",
		"#..#",
		"#..#",
		"#..#",
		"####",
	},
	{
		"####",
		"#..#",
		"#..#",
		"#..#",
		"####",
		"...#",
		"...#",
		"...#",
		"...#",
	},
}

// speaker is the muted glyph: a speaker cone with a cross to its right.
var speaker = [...]string{
	"....#.........",
	"...##.........",
	"#####..#...#..",
	"#####...#.#...",
	"#####....#....",
	"#####...#.#...",
	"#####..#...#..",
	"...##.........",
	"....#.........",
}

// speakerOrigin is where the speaker glyph's top-left pixel lands.
const (
	speakerX = 1
	speakerY = 3
)
