package validate

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"doctrans/pkg/contract"
)

// ParseJSON 严格解析：数字保留为 json.Number，拖尾内容视为失败。
func ParseJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	// Decode 只消费一个值；其后出现任何非空白内容都是畸形文档
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		return nil, errors.New("trailing content after top-level value")
	}
	return v, nil
}

// JSON 语法校验；失败时携带底层解析错误消息。
func JSON(text string) contract.ValidationResult {
	if _, err := ParseJSON(text); err != nil {
		return contract.ValidationResult{Valid: false, Errors: []string{"json: " + err.Error()}}
	}
	return contract.ValidationResult{Valid: true}
}
