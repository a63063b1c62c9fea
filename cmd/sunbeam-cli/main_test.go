package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		line    string
		actions int
		loop    uint
		err     string
	}{
		{"", 0, 1, ""},
		{"help", 1, 1, ""},
		{"connect sync instant", 3, 1, ""},
		{"  sync   s100  instant  loop=3", 3, 3, ""},
		{"history=day history=month", 2, 1, ""},
		{"p ff034041000000000000", 0, 0, "shorter than header"},
		{"pff0340410000000000000b", 1, 1, ""},
		{"pff03", 0, 0, "shorter than header"},
		{"history=year", 0, 0, "history kind=year not valid"},
		{"loop=2 loop=3", 0, 0, "multiple loop commands"},
		{"sX", 0, 0, "word=sX"},
		{"bogus", 0, 0, "invalid command: 'bogus'"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.line, func(t *testing.T) {
			as, loopn, err := parseLine(c.line)
			if c.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, as, c.actions)
			assert.Equal(t, c.loop, loopn)
		})
	}
}
