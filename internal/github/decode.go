// SPDX-License-Identifier: AGPL-3.0-only
package github

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
)

// DecodeText decodes file bytes as UTF-8, falling back to EUC-KR (CP949)
// and finally Latin-1, which accepts any input.
func DecodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if out, err := korean.EUCKR.NewDecoder().Bytes(raw); err == nil && !strings.ContainsRune(string(out), utf8.RuneError) {
		return string(out)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
