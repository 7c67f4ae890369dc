// Package encoding turns raw filing lines of unknown encoding into valid UTF-8.
//
// Filings come from many vendors and many years. Most lines are ASCII, newer
// ones are UTF-8, and older ones are usually Latin-1. A line is checked with a
// small UTF-8 state machine; if it is not valid UTF-8 it is re-encoded byte by
// byte as Latin-1, which always succeeds. Decoding never fails.
package encoding

// Separator is the ASCII "file separator" control byte some filings use
// instead of comma/quote delimiting.
const Separator byte = 28

const (
	stateAccept = 0
	stateReject = 1
	numClasses  = 12
)

// classOf maps every byte value to its UTF-8 equivalence class
//
//	0: 00..7F   1: 80..8F   2: C2..DF   3: E1..EC, EE..EF
//	4: ED       5: F4       6: F1..F3   7: A0..BF
//	8: C0..C1, F5..FF       9: 90..9F   10: E0   11: F0
var classOf = [256]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 00..0F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 10..1F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 20..2F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 30..3F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 40..4F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 50..5F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 60..6F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 70..7F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 80..8F
	9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, // 90..9F
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, // A0..AF
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, // B0..BF
	8, 8, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // C0..CF
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // D0..DF
	10, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 4, 3, 3, // E0..EF
	11, 6, 6, 6, 5, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, // F0..FF
}

// transitions is indexed by state*numClasses + class.
//
// States: 0 accept, 1 reject, 2 one continuation byte left, 3 two left,
// 4 after E0, 5 after ED, 6 after F0, 7 after F1..F3, 8 after F4.
var transitions = [9 * numClasses]uint8{
	0, 1, 2, 3, 5, 8, 7, 1, 1, 1, 4, 6, // 0
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 1
	1, 0, 1, 1, 1, 1, 1, 0, 1, 0, 1, 1, // 2
	1, 2, 1, 1, 1, 1, 1, 2, 1, 2, 1, 1, // 3
	1, 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, // 4
	1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1, 1, // 5
	1, 1, 1, 1, 1, 1, 1, 3, 1, 3, 1, 1, // 6
	1, 3, 1, 1, 1, 1, 1, 3, 1, 3, 1, 1, // 7
	1, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 8
}

// LineInfo describes one raw input line
type LineInfo struct {
	HasSeparator bool // the line contains Separator
	ASCIIOnly    bool // every byte is < 0x80
	ValidUTF8    bool // the line is well-formed UTF-8 as-is
	Length       int  // number of input bytes
}

// Inspect scans data once and classifies it. The scan always runs to the
// end, even after the UTF-8 check has failed.
func Inspect(data []byte) LineInfo {
	info := LineInfo{ASCIIOnly: true, Length: len(data)}
	state := uint8(stateAccept)

	for _, b := range data {
		if b == Separator {
			info.HasSeparator = true
		}
		if b >= 0x80 {
			info.ASCIIOnly = false
		}
		// Reject maps to itself for every class, so it is sticky.
		state = transitions[int(state)*numClasses+int(classOf[b])]
	}

	// A sequence cut short at the end of the line never reaches reject but
	// is still not UTF-8.
	info.ValidUTF8 = state == stateAccept
	return info
}

// Decode returns data as valid UTF-8 text and whether it contained Separator.
func Decode(data []byte) (string, bool) {
	text, info := DecodeLine(data)
	return text, info.HasSeparator
}

// DecodeLine is Decode with the full line classification.
func DecodeLine(data []byte) (string, LineInfo) {
	info := Inspect(data)
	if info.ValidUTF8 {
		return string(data), info
	}
	return string(latin1ToUTF8(data)), info
}

// latin1ToUTF8 re-encodes ISO-8859-1 bytes. The result is valid UTF-8 for any
// input.
func latin1ToUTF8(data []byte) []byte {
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		if b < 0x80 {
			out = append(out, b)
			continue
		}
		lead := byte(0xC2)
		if b > 0xBF {
			lead++
		}
		out = append(out, lead, b&0x3F|0x80)
	}
	return out
}
