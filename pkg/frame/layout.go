package frame

import (
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
)

// timeParser returns a parser for format. Formats containing a '%' follow
// strptime and accept unpadded fields ("1/5/2021" for "%m/%d/%Y"); anything
// else is a Go reference layout.
func timeParser(format string) func(string) (time.Time, error) {
	if strings.Contains(format, "%") {
		return func(s string) (time.Time, error) { return timefmt.Parse(s, format) }
	}
	return func(s string) (time.Time, error) { return time.Parse(format, s) }
}
