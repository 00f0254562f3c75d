package elm

import "strings"

// Kind tags the structural shape of a framed reply.
type Kind int

const (
	// KindAT is an interpreter acknowledgement (AT command response).
	KindAT Kind = iota
	// KindOBD is ECU data; the interpreter echoes the request line ahead
	// of the data line.
	KindOBD
	// KindUnknown is anything else. It produces no client payload.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindAT:
		return "AT"
	case KindOBD:
		return "OBD"
	default:
		return "unknown"
	}
}

// Classify reduces a framed reply to the payload the client should see.
//
// AT responses are one logical line: delimiters become spaces and the reply
// passes through otherwise intact. OBD data replies carry the echoed
// request as the first delimited token, so the payload is the second token.
// Client software depends on receiving only the ECU payload, never the
// echoed request, so the tie-break on the leading byte is exact.
func Classify(reply []byte) (Kind, string) {
	if len(reply) == 0 {
		return KindUnknown, ""
	}
	body := strings.TrimSuffix(string(reply), string(ReadySentinel))
	switch reply[0] {
	case 'A':
		out := strings.ReplaceAll(body, string(LineDelimiter), " ")
		return KindAT, strings.TrimSpace(out)
	case '0':
		var tokens []string
		for _, tok := range strings.Split(body, string(LineDelimiter)) {
			if tok != "" {
				tokens = append(tokens, tok)
			}
		}
		if len(tokens) < 2 {
			return KindUnknown, ""
		}
		return KindOBD, tokens[1]
	default:
		return KindUnknown, ""
	}
}
