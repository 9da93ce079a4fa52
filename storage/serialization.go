// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// archivedPageMUS serializes ArchivedPage values. Field order:
// document id, page number, content, token count, batch index, vector,
// fingerprint, archived-at (unix micros, UTC).
var archivedPageMUS = archivedPageSer{}

type archivedPageSer struct{}

func (archivedPageSer) Size(v ArchivedPage) (size int) {
	size = ord.String.Size(v.Page.DocumentID)
	size += varint.Int.Size(v.Page.PageNumber)
	size += ord.String.Size(v.Page.MarkdownContent)
	size += varint.Int.Size(v.Page.TokenCount)
	size += varint.Int.Size(v.Page.BatchIndex)
	size += varint.Int.Size(len(v.Page.Vector))
	for _, f := range v.Page.Vector {
		size += raw.Float32.Size(f)
	}
	size += ord.String.Size(v.Fingerprint)
	size += varint.Int64.Size(v.ArchivedAt.UnixMicro())
	return
}

func (archivedPageSer) Marshal(v ArchivedPage, bs []byte) (n int) {
	n = ord.String.Marshal(v.Page.DocumentID, bs)
	n += varint.Int.Marshal(v.Page.PageNumber, bs[n:])
	n += ord.String.Marshal(v.Page.MarkdownContent, bs[n:])
	n += varint.Int.Marshal(v.Page.TokenCount, bs[n:])
	n += varint.Int.Marshal(v.Page.BatchIndex, bs[n:])
	n += varint.Int.Marshal(len(v.Page.Vector), bs[n:])
	for _, f := range v.Page.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	n += ord.String.Marshal(v.Fingerprint, bs[n:])
	n += varint.Int64.Marshal(v.ArchivedAt.UnixMicro(), bs[n:])
	return
}

func (archivedPageSer) Unmarshal(bs []byte) (v ArchivedPage, n int, err error) {
	var n1 int
	if v.Page.DocumentID, n1, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	n += n1
	if v.Page.PageNumber, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Page.MarkdownContent, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Page.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Page.BatchIndex, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1

	var length int
	if length, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if length < 0 || length*4 > len(bs)-n {
		err = ErrTruncatedData
		return
	}
	if length > 0 {
		v.Page.Vector = make([]float32, length)
		for i := range v.Page.Vector {
			if v.Page.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += n1
		}
	}

	if v.Fingerprint, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.ArchivedAt = time.UnixMicro(micros).UTC()
	return
}

// MarshalArchivedPage serializes an ArchivedPage to bytes.
func MarshalArchivedPage(page *ArchivedPage) []byte {
	buf := make([]byte, archivedPageMUS.Size(*page))
	archivedPageMUS.Marshal(*page, buf)
	return buf
}

// UnmarshalArchivedPage deserializes an ArchivedPage from bytes.
func UnmarshalArchivedPage(data []byte) (*ArchivedPage, error) {
	page, _, err := archivedPageMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &page, nil
}
