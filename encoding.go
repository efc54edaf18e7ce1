package communityid

import (
	"encoding/base64"
	"encoding/hex"
)

// Encoding renders the raw digest into the identifier body that follows
// the version prefix.
type Encoding interface {
	EncodeToString(data []byte) string
}

var (
	// Base64Encoding renders the digest in standard base64 with padding.
	// This is the default of the standard and what interoperating tools
	// emit unless told otherwise.
	Base64Encoding Encoding = base64.StdEncoding

	// HexEncoding renders the digest as lowercase hexadecimal, for
	// pipelines that cannot carry '+', '/' or '='.
	HexEncoding Encoding = hexEncoding{}
)

type hexEncoding struct{}

func (hexEncoding) EncodeToString(data []byte) string {
	return hex.EncodeToString(data)
}
