package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList 以 JSON 文本形式存储有序字符串列表。
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return marshalJSONText(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	return scanJSONText(value, l)
}

// ContentSection 是文章正文中的一个段落块。
type ContentSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// ContentSections 以 JSON 文本形式存储有序段落列表。
type ContentSections []ContentSection

// Value implements driver.Valuer.
func (s ContentSections) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return marshalJSONText(s)
}

// Scan implements sql.Scanner.
func (s *ContentSections) Scan(value interface{}) error {
	return scanJSONText(value, s)
}

func marshalJSONText(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func scanJSONText(value interface{}, dst interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
