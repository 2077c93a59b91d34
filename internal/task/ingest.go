package task

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FindMissingKeys returns the required keys absent from payload, sorted.
func FindMissingKeys(payload map[string]any, required []string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// CastBools casts the named keys in payload to bool in place and returns the
// keys whose values could not be cast. Keys absent from payload are ignored
// so that optional fields can be listed freely.
func CastBools(payload map[string]any, keys []string) []string {
	var invalid []string
	for _, key := range keys {
		v, ok := payload[key]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case bool:
		case string:
			switch strings.ToLower(x) {
			case "yes", "true":
				payload[key] = true
			case "no", "false":
				payload[key] = false
			default:
				invalid = append(invalid, key)
			}
		case float64:
			if x == 0 || x == 1 {
				payload[key] = x == 1
			} else {
				invalid = append(invalid, key)
			}
		case int:
			if x == 0 || x == 1 {
				payload[key] = x == 1
			} else {
				invalid = append(invalid, key)
			}
		default:
			invalid = append(invalid, key)
		}
	}
	sort.Strings(invalid)
	return invalid
}

// CastInts casts the named keys in payload to int in place, with the same
// missing-key and invalid-key semantics as CastBools.
func CastInts(payload map[string]any, keys []string) []string {
	var invalid []string
	for _, key := range keys {
		v, ok := payload[key]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case int:
		case float64:
			if x == float64(int(x)) {
				payload[key] = int(x)
			} else {
				invalid = append(invalid, key)
			}
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(x))
			if err != nil {
				invalid = append(invalid, key)
			} else {
				payload[key] = n
			}
		case bool:
			invalid = append(invalid, key)
		default:
			invalid = append(invalid, key)
		}
	}
	sort.Strings(invalid)
	return invalid
}

// CastFloats casts the named keys in payload to float64 in place, with the
// same missing-key and invalid-key semantics as CastBools.
func CastFloats(payload map[string]any, keys []string) []string {
	var invalid []string
	for _, key := range keys {
		v, ok := payload[key]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case float64:
		case int:
			payload[key] = float64(x)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				invalid = append(invalid, key)
			} else {
				payload[key] = f
			}
		case bool:
			invalid = append(invalid, key)
		default:
			invalid = append(invalid, key)
		}
	}
	sort.Strings(invalid)
	return invalid
}

// CollectRows reassembles indexed row groups submitted as flat form keys of
// the shape <group>-<index>-<field>. Rows are returned in index order; rows
// whose listed fields are all absent or empty strings are dropped. An indexed
// key with a malformed index or an unlisted field name is reported as an
// error so that typos in the front end cannot silently discard data.
func CollectRows(payload map[string]any, group string, fields []string) ([]map[string]any, error) {
	wanted := make(map[string]bool, len(fields))
	for _, f := range fields {
		wanted[f] = true
	}
	rows := make(map[int]map[string]any)
	prefix := group + "-"
	for key, value := range payload {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		sep := strings.IndexByte(rest, '-')
		if sep < 0 {
			return nil, fmt.Errorf("non-indexed key %q in row group %q", key, group)
		}
		index, err := strconv.Atoi(rest[:sep])
		if err != nil {
			return nil, fmt.Errorf("non-integer index in key %q of row group %q", key, group)
		}
		field := rest[sep+1:]
		if !wanted[field] {
			return nil, fmt.Errorf("unexpected field %q in row group %q", field, group)
		}
		if rows[index] == nil {
			rows[index] = make(map[string]any)
		}
		rows[index][field] = value
	}
	indices := make([]int, 0, len(rows))
	for i := range rows {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	out := make([]map[string]any, 0, len(rows))
	for _, i := range indices {
		if rowEmpty(rows[i]) {
			continue
		}
		out = append(out, rows[i])
	}
	return out, nil
}

func rowEmpty(row map[string]any) bool {
	for _, v := range row {
		if s, ok := v.(string); ok {
			if strings.TrimSpace(s) != "" {
				return false
			}
			continue
		}
		if v != nil {
			return false
		}
	}
	return true
}

// CastUUID casts a response id supplied over the wire to a uuid.UUID. It
// accepts uuid.UUID values and strings in canonical, unseparated hex, braced,
// URN and 39-digit integer forms.
func CastUUID(taskName string, value any) (uuid.UUID, error) {
	switch x := value.(type) {
	case uuid.UUID:
		return x, nil
	case string:
		if len(x) == 39 && isDigits(x) {
			n, ok := new(big.Int).SetString(x, 10)
			if ok {
				id, err := uuid.FromBytes(n.FillBytes(make([]byte, 16)))
				if err == nil {
					return id, nil
				}
			}
		}
		id, err := uuid.Parse(x)
		if err == nil {
			return id, nil
		}
	}
	return uuid.Nil, &InvalidUUIDError{Task: taskName, Value: value}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
