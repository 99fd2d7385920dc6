// Package model defines the records that flow from ingestion through geocoding.
package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Dataset field keys. They are the column headings of the published directory
// and are consumed verbatim by the map front-end.
const (
	KeyName      = "幼儿园名称"
	KeyNature    = "办园性质"
	KeyInclusive = "是否普惠"
	KeyScale     = "规模（班）"
	KeyAddress   = "幼儿园地址"
	KeyFee       = "保教费收费标准（元/月/生）"
	KeyPhone     = "幼儿园联系电话"
)

// Inclusiveness flag values.
const (
	InclusiveYes = "是"
	InclusiveNo  = "否"
)

// SourceRecord holds the raw fields of one directory row as an ingestor
// extracted them. It is consumed immediately by Expand.
type SourceRecord struct {
	Name         string
	Nature       string
	InclusiveRaw string
	Scale        string
	Address      string
	Fee          string
	Phone        string
}

// Kindergarten is one normalized dataset entry. A source row that lists
// several classes becomes several Kindergartens whose names carry the class.
type Kindergarten struct {
	Name      string
	Nature    string
	Inclusive string
	Scale     string
	Address   string
	Fee       string
	Phone     string
}

// fields returns the key/value pairs in dataset column order.
func (k Kindergarten) fields() [][2]string {
	return [][2]string{
		{KeyName, k.Name},
		{KeyNature, k.Nature},
		{KeyInclusive, k.Inclusive},
		{KeyScale, k.Scale},
		{KeyAddress, k.Address},
		{KeyFee, k.Fee},
		{KeyPhone, k.Phone},
	}
}

// MarshalJSON writes the dataset keys in column order. The keys contain
// full-width parentheses, which encoding/json rejects in struct tags.
func (k Kindergarten) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, kv := range k.fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		for j, s := range kv {
			if err := enc.Encode(s); err != nil {
				return nil, eris.Wrapf(err, "model: encode %s", kv[0])
			}
			// Encoder terminates each value with a newline.
			buf.Truncate(buf.Len() - 1)
			if j == 0 {
				buf.WriteByte(':')
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the dataset keys. Non-string values (hand-edited
// numbers) are kept as their literal JSON text.
func (k *Kindergarten) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode kindergarten")
	}

	get := func(key string) string {
		v, ok := raw[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
		lit := strings.TrimSpace(string(v))
		if lit == "null" {
			return ""
		}
		return lit
	}

	*k = Kindergarten{
		Name:      get(KeyName),
		Nature:    get(KeyNature),
		Inclusive: get(KeyInclusive),
		Scale:     get(KeyScale),
		Address:   get(KeyAddress),
		Fee:       get(KeyFee),
		Phone:     get(KeyPhone),
	}
	return nil
}
