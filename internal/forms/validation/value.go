package validation

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	dErrors "sapid/pkg/domain-errors"
)

// Value is a field value: free text, or the selected entries of a multi-select.
// On the wire it is a JSON string or a JSON array of strings.
type Value struct {
	text  string
	list  []string
	multi bool
}

// Text builds a single-valued field value.
func Text(s string) Value {
	return Value{text: s}
}

// List builds a multi-select value. A nil list is an empty selection.
func List(items ...string) Value {
	return Value{list: slices.Clone(items), multi: true}
}

func (v Value) IsMulti() bool { return v.multi }

// String returns the text, or the selection joined by ", ".
func (v Value) String() string {
	if v.multi {
		return strings.Join(v.list, ", ")
	}
	return v.text
}

// Items returns a copy of the selection. Single values yield nil.
func (v Value) Items() []string {
	if !v.multi {
		return nil
	}
	return slices.Clone(v.list)
}

// Blank reports whether the value is empty after trimming, or an empty selection.
func (v Value) Blank() bool {
	if v.multi {
		return len(v.list) == 0
	}
	return strings.TrimSpace(v.text) == ""
}

// Toggle adds option to the selection, or removes it when already selected.
func (v Value) Toggle(option string) Value {
	if i := slices.Index(v.list, option); i >= 0 {
		return List(slices.Delete(slices.Clone(v.list), i, i+1)...)
	}
	return List(append(slices.Clone(v.list), option)...)
}

func (v Value) Equal(o Value) bool {
	if v.multi != o.multi {
		return false
	}
	if v.multi {
		return slices.Equal(v.list, o.list)
	}
	return v.text == o.text
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.multi {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "value must be a string or a list of strings")
		}
		*v = List(items...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "value must be a string or a list of strings")
	}
	*v = Text(s)
	return nil
}
