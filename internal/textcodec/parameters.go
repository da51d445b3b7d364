package textcodec

// Parameters describe how a line feed is laid out on disk for a codec.
//
// LineFeedWidth is the number of bytes an encoded '\n' occupies.
// BeforeCrOffset is the index of the 0x0A byte inside that sequence: a
// byte-wise scan finds 0x0A, and subtracting BeforeCrOffset yields the
// first byte of the line terminator. UTF-16LE stores '\n' as 0A 00 so
// the scan already lands on the first byte; UTF-16BE stores 00 0A and
// the scan lands one byte late.
type Parameters struct {
	LineFeedWidth  int
	BeforeCrOffset int
}

// ParametersFor returns the line-feed layout for a codec. Unknown and
// 8-bit codecs use single-byte line feeds.
func ParametersFor(c Codec) Parameters {
	switch c.name {
	case UTF16LE.name:
		return Parameters{LineFeedWidth: 2, BeforeCrOffset: 0}
	case UTF16BE.name:
		return Parameters{LineFeedWidth: 2, BeforeCrOffset: 1}
	case UTF32LE.name:
		return Parameters{LineFeedWidth: 4, BeforeCrOffset: 0}
	case UTF32BE.name:
		return Parameters{LineFeedWidth: 4, BeforeCrOffset: 3}
	default:
		return Parameters{LineFeedWidth: 1, BeforeCrOffset: 0}
	}
}
