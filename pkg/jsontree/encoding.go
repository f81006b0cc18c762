// Copyright 2026 Richard Sanger, Wand Network Research Group
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jsontree

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// DecodeDetect sniffs the text encoding of raw, transcodes to UTF-8 and
// decodes the document. UTF-8, UTF-16 and UTF-32 are recognized, with or
// without a byte order mark. The returned source holds the UTF-8 text
// that node offsets refer to; it is returned even when decoding fails, so
// callers can still render the document.
func DecodeDetect(raw []byte) (*Node, []byte, error) {
	src, err := toUTF8(raw)
	if err != nil {
		return nil, nil, err
	}
	node, err := Decode(src)
	if err != nil {
		return nil, src, err
	}
	return node, src, nil
}

func toUTF8(raw []byte) ([]byte, error) {
	src, err := sniff(raw).NewDecoder().Bytes(raw)
	if err != nil {
		return nil, serrors.Wrap("transcoding document", err)
	}
	return src, nil
}

// sniff picks the text encoding. A byte order mark wins; without one the
// zero byte pattern over the first four bytes decides, relying on a JSON
// document starting with an ASCII character.
func sniff(raw []byte) encoding.Encoding {
	switch {
	case bytes.HasPrefix(raw, []byte{0x00, 0x00, 0xfe, 0xff}):
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM)
	case bytes.HasPrefix(raw, []byte{0xff, 0xfe, 0x00, 0x00}):
		return utf32.UTF32(utf32.LittleEndian, utf32.UseBOM)
	case bytes.HasPrefix(raw, []byte{0xfe, 0xff}):
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case bytes.HasPrefix(raw, []byte{0xff, 0xfe}):
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case bytes.HasPrefix(raw, []byte{0xef, 0xbb, 0xbf}):
		return unicode.UTF8BOM
	}
	if len(raw) >= 4 {
		switch {
		case raw[0] == 0 && raw[1] == 0 && raw[2] == 0 && raw[3] != 0:
			return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)
		case raw[0] != 0 && raw[1] == 0 && raw[2] == 0 && raw[3] == 0:
			return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)
		case raw[0] == 0 && raw[1] != 0:
			return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		case raw[0] != 0 && raw[1] == 0:
			return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
		}
	}
	return unicode.UTF8
}
