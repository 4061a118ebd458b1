package layout

import "fmt"

// InvalidConfigError 表示调用方传入了契约之外的布局配置。
// 这是引擎唯一会返回的错误类别；溢出等内容性状况通过 Result 报告。
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("布局配置无效: %s %s", e.Field, e.Reason)
}

func invalidConfig(field, reason string) error {
	return &InvalidConfigError{Field: field, Reason: reason}
}
