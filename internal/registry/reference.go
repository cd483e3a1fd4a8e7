package registry

import (
	"bytes"
	"encoding/json"
	"strconv"

	"reliefledger/internal/ledger"
)

// Reference points at a record in another registry. It holds whatever JSON
// value the caller sent (a number, a string, even a negative or null) and
// renders it back unchanged.
type Reference json.RawMessage

// RefID builds a numeric reference to a ledger id.
func RefID(id ledger.ID) Reference {
	return Reference(strconv.FormatUint(uint64(id), 10))
}

// RefString builds a string reference such as "EQ-7".
func RefString(s string) Reference {
	raw, _ := json.Marshal(s)
	return Reference(raw)
}

func (r Reference) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *Reference) UnmarshalJSON(data []byte) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*r = Reference(buf.Bytes())
	return nil
}
