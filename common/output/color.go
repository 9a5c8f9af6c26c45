package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ANSI attributes.
const (
	reset = "\033[0m"

	FgRed    = 31
	FgGreen  = 32
	FgYellow = 33
	FgCyan   = 36
	FgWhite  = 37

	Bold = 1
)

// NoColor disables escape sequences, e.g. when output is piped.
var NoColor = false

// Color is a set of ANSI attributes.
type Color struct {
	params []int
}

// NewColor creates a Color with the given attributes.
func NewColor(attrs ...int) *Color {
	return &Color{params: attrs}
}

func (c *Color) wrap(s string) string {
	if NoColor || len(c.params) == 0 {
		return s
	}
	codes := make([]string, len(c.params))
	for i, p := range c.params {
		codes[i] = strconv.Itoa(p)
	}
	return "\033[" + strings.Join(codes, ";") + "m" + s + reset
}

// Fprintf writes formatted colored output to w.
func (c *Color) Fprintf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprint(w, c.wrap(fmt.Sprintf(format, a...)))
}

// Sprint returns a colored string.
func (c *Color) Sprint(a ...interface{}) string {
	return c.wrap(fmt.Sprint(a...))
}
