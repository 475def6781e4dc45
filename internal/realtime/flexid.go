package realtime

import (
	"bytes"
	"fmt"
	"strconv"
)

// flexID tolerates order identities arriving as JSON numbers or numeric
// strings; the gateway has served both. Resolved once at the boundary.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("order id %q is not numeric", data)
	}
	*f = flexID(n)
	return nil
}

func (f flexID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(f), 10)), nil
}
