package graphite

import "encoding/binary"

// nameTable is the thin name-table decoder spec.md §1 names as an
// external collaborator ("a thin function whose inputs and outputs are
// specified here but whose internals are not"), grounded on
// original_source/inc/NameTable.h's platform/encoding/language triplet
// lookup. Kept minimal: only what FeatureMap UI-name resolution needs.
type nameTable struct {
	buf     []byte
	records []nameRecord
}

type nameRecord struct {
	platformID, encodingID, languageID, nameID uint16
	offset, length                             uint16
}

func parseNameTable(buf []byte) (*nameTable, error) {
	const table = "name"
	r := newByteReader(table, buf)
	if _, err := r.u16(); err != nil { // format
		return nil, err
	}
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	stringOffset, err := r.u16()
	if err != nil {
		return nil, err
	}

	nt := &nameTable{buf: buf}
	nt.records = make([]nameRecord, count)
	for i := range nt.records {
		platformID, err := r.u16()
		if err != nil {
			return nil, err
		}
		encodingID, err := r.u16()
		if err != nil {
			return nil, err
		}
		languageID, err := r.u16()
		if err != nil {
			return nil, err
		}
		nameID, err := r.u16()
		if err != nil {
			return nil, err
		}
		length, err := r.u16()
		if err != nil {
			return nil, err
		}
		offset, err := r.u16()
		if err != nil {
			return nil, err
		}
		nt.records[i] = nameRecord{
			platformID: platformID, encodingID: encodingID, languageID: languageID,
			nameID: nameID, offset: stringOffset + offset, length: length,
		}
	}
	return nt, nil
}

// Lookup returns the decoded string for (nameID, platformID, encodingID,
// languageID), or false if no matching record exists. Platforms 3
// (Windows) and 0 (Unicode) are decoded as UTF-16BE; other platforms,
// platform 1 (Macintosh) included, return the raw bytes as a best effort.
func (nt *nameTable) Lookup(nameID, platformID, encodingID, languageID uint16) (string, bool) {
	if nt == nil {
		return "", false
	}
	for _, rec := range nt.records {
		if rec.nameID != nameID || rec.platformID != platformID ||
			rec.encodingID != encodingID || rec.languageID != languageID {
			continue
		}
		if int(rec.offset)+int(rec.length) > len(nt.buf) {
			return "", false
		}
		raw := nt.buf[rec.offset : rec.offset+rec.length]
		if platformID == 3 || platformID == 0 {
			return decodeUTF16BE(raw), true
		}
		return string(raw), true
	}
	return "", false
}

func decodeUTF16BE(raw []byte) string {
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(raw[2*i:])
	}
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) {
			u2 := units[i+1]
			if u2 >= 0xDC00 && u2 <= 0xDFFF {
				r := (rune(u-0xD800) << 10) + rune(u2-0xDC00) + 0x10000
				runes = append(runes, r)
				i++
				continue
			}
		}
		runes = append(runes, rune(u))
	}
	return string(runes)
}
