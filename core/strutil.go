package core

// utoa converts an unsigned integer to a string without using fmt.
// Keeps strconv and fmt out of MCU builds.
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// Utoa is utoa for packages that share the core's no-fmt constraint.
func Utoa(n uint32) string {
	return utoa(n)
}

// Atou parses a decimal unsigned integer. ok is false for empty input,
// non-digits or overflow.
func Atou(s string) (n uint32, ok bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint32(c - '0')
		if n > (^uint32(0)-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}
