package csvutil

import (
	"io"
	"log/slog"
)

// Duplicate keys: IndexRows and IndexValues keep the last row seen for a key
// and silently drop earlier ones. This is deliberate so a later correction
// row wins; the number of overwritten keys is logged at debug level. Use
// IndexGroups to keep every value.

// IndexRows maps each value of keyField to its full row.
func IndexRows(path, keyField string, opts ReadOptions) (map[string]*Record, error) {
	out := make(map[string]*Record)
	overwrites := 0
	err := scan(path, opts, func(rec *Record) error {
		key, err := rec.Lookup(keyField)
		if err != nil {
			return err
		}
		k := key.String()
		if _, ok := out[k]; ok {
			overwrites++
		}
		out[k] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	logOverwrites(path, keyField, overwrites)
	return out, nil
}

// IndexValues maps each value of keyField to the row's valueField.
func IndexValues(path, keyField, valueField string, opts ReadOptions) (map[string]string, error) {
	out := make(map[string]string)
	overwrites := 0
	err := scan(path, opts, func(rec *Record) error {
		k, v, err := keyValue(rec, keyField, valueField)
		if err != nil {
			return err
		}
		if _, ok := out[k]; ok {
			overwrites++
		}
		out[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	logOverwrites(path, keyField, overwrites)
	return out, nil
}

// IndexGroups maps each value of keyField to every valueField seen for it,
// in file order.
func IndexGroups(path, keyField, valueField string, opts ReadOptions) (map[string][]string, error) {
	out := make(map[string][]string)
	err := scan(path, opts, func(rec *Record) error {
		k, v, err := keyValue(rec, keyField, valueField)
		if err != nil {
			return err
		}
		out[k] = append(out[k], v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func keyValue(rec *Record, keyField, valueField string) (string, string, error) {
	key, err := rec.Lookup(keyField)
	if err != nil {
		return "", "", err
	}
	val, err := rec.Lookup(valueField)
	if err != nil {
		return "", "", err
	}
	return key.String(), val.String(), nil
}

func scan(path string, opts ReadOptions, fn func(*Record) error) error {
	rows, err := Read(path, opts)
	if err != nil {
		return err
	}
	defer rows.Close()
	for {
		rec, err := rows.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func logOverwrites(path, keyField string, n int) {
	if n == 0 {
		return
	}
	slog.Debug("duplicate index keys overwritten", "path", path, "key", keyField, "overwrites", n)
}
