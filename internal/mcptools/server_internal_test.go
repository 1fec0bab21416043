package mcptools

// White-box testing required: roundTwo is an unexported formatting helper
// not reachable through the public NewServer API.

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRoundTwo_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"exact value unchanged", 1.25, 1.25},
		{"rounds down", 1.234, 1.23},
		{"rounds up", 1.235, 1.24},
		{"zero", 0.0, 0.0},
		{"negative value", -1.235, -1.24},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(roundTwo(tc.in), qt.Equals, tc.want)
		})
	}
}
