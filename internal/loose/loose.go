// Package loose decodes JSON values whose type varies between producers.
package loose

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// String decodes any JSON scalar into its text form. Numbers keep their
// literal spelling, null and composite values decode to "".
type String string

func (s *String) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = String(v)
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = String(strconv.FormatBool(v))
	case 'n', '{', '[':
		*s = ""
	default:
		var v json.Number
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = String(v.String())
	}
	return nil
}
