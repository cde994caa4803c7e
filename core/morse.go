package core

// MorseSymbol is one letter's pulse train. Code is emitted least
// significant bit first, one bit per tick: a dot is a single 1, a dash is
// 111, elements are separated by a 0 and every letter ends with 000.
type MorseSymbol struct {
	Letter byte
	Code   uint16
	Bits   uint8
}

// MorseGap is played for any byte that is not 'A'..'Z'. It keeps the
// indicator dark for four ticks, which reads as a word space.
var MorseGap = MorseSymbol{Letter: ' ', Code: 0, Bits: 4}

var morseLetters = [26]MorseSymbol{
	{'A', 0b00011101, 8},          // .-
	{'B', 0b000101010111, 12},     // -...
	{'C', 0b00010111010111, 14},   // -.-.
	{'D', 0b0001010111, 10},       // -..
	{'E', 0b0001, 4},              // .
	{'F', 0b000101110101, 12},     // ..-.
	{'G', 0b000101110111, 12},     // --.
	{'H', 0b0001010101, 10},       // ....
	{'I', 0b000101, 6},            // ..
	{'J', 0b0001110111011101, 16}, // .---
	{'K', 0b000111010111, 12},     // -.-
	{'L', 0b000101011101, 12},     // .-..
	{'M', 0b0001110111, 10},       // --
	{'N', 0b00010111, 8},          // -.
	{'O', 0b00011101110111, 14},   // ---
	{'P', 0b00010111011101, 14},   // .--.
	{'Q', 0b0001110101110111, 16}, // --.-
	{'R', 0b0001011101, 10},       // .-.
	{'S', 0b00010101, 8},          // ...
	{'T', 0b000111, 6},            // -
	{'U', 0b0001110101, 10},       // ..-
	{'V', 0b000111010101, 12},     // ...-
	{'W', 0b000111011101, 12},     // .--
	{'X', 0b00011101010111, 14},   // -..-
	{'Y', 0b0001110111010111, 16}, // -.--
	{'Z', 0b00010101110111, 14},   // --..
}

// LookupMorse returns the symbol for c. Only upper-case ASCII letters are
// encoded; everything else, lower case included, is a gap.
func LookupMorse(c byte) MorseSymbol {
	if c >= 'A' && c <= 'Z' {
		return morseLetters[c-'A']
	}
	return MorseGap
}

// MorseAlphabet returns a copy of the letter table.
func MorseAlphabet() []MorseSymbol {
	out := make([]MorseSymbol, len(morseLetters))
	copy(out, morseLetters[:])
	return out
}

// Elements decodes the pulse train back into dots and dashes.
// A gap symbol decodes to the empty string.
func (s MorseSymbol) Elements() string {
	var out []byte
	run := 0
	code := s.Code
	for i := uint8(0); i < s.Bits; i++ {
		if code&1 == 1 {
			run++
		} else if run > 0 {
			out = append(out, element(run))
			run = 0
		}
		code >>= 1
	}
	if run > 0 {
		out = append(out, element(run))
	}
	return string(out)
}

func element(run int) byte {
	if run >= 3 {
		return '-'
	}
	return '.'
}
