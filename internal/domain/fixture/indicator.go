package fixture

import (
	"strconv"
	"strings"
)

// Indicator is a tri-state "is live" signal: definitely live, definitely not
// live, or unknown.
type Indicator struct {
	known bool
	value bool
}

var Unknown = Indicator{}

func Definite(live bool) Indicator {
	return Indicator{known: true, value: live}
}

func (i Indicator) Known() bool {
	return i.known
}

// Value returns the asserted value and whether one was asserted.
func (i Indicator) Value() (bool, bool) {
	return i.value, i.known
}

func (i Indicator) IsTrue() bool {
	return i.known && i.value
}

func (i Indicator) IsFalse() bool {
	return i.known && !i.value
}

func (i Indicator) String() string {
	switch {
	case !i.known:
		return "unknown"
	case i.value:
		return "live"
	default:
		return "not_live"
	}
}

// ParseIndicator accepts the loose encodings seen in feeds: booleans, 0/1
// numbers and their string forms. Anything else is Unknown.
func ParseIndicator(raw any) Indicator {
	switch v := raw.(type) {
	case nil:
		return Unknown
	case bool:
		return Definite(v)
	case float64:
		return indicatorFromNumber(int64(v))
	case int:
		return indicatorFromNumber(int64(v))
	case int64:
		return indicatorFromNumber(v)
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch s {
		case "true", "yes", "y", "live":
			return Definite(true)
		case "false", "no", "n":
			return Definite(false)
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return indicatorFromNumber(n)
		}
	}
	return Unknown
}

func indicatorFromNumber(n int64) Indicator {
	switch n {
	case 1:
		return Definite(true)
	case 0:
		return Definite(false)
	default:
		return Unknown
	}
}
