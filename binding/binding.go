package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to[0].value} 占位符替换为 data 中的值。
// 支持 ${path|fallback} 形式：路径缺失时使用竖线后的字面量。
// data 为空或路径不存在且无 fallback 时，原样保留占位符，
// 这样作者在预览里能直接看到哪个绑定还没接上数据。
func Interpolate(text string, data any) string {
	if !strings.Contains(text, "${") {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		expr := strings.TrimSpace(groups[1])
		path, fallback, hasFallback := splitFallback(expr)
		if path == "" {
			return match
		}
		if data != nil {
			if val, ok := lookup(data, path); ok {
				return fmt.Sprint(val)
			}
		}
		if hasFallback {
			return fallback
		}
		return match
	})
}

// splitFallback 拆出竖线 fallback；路径与 fallback 都只去首尾空白。
func splitFallback(expr string) (path, fallback string, ok bool) {
	if i := strings.IndexByte(expr, '|'); i != -1 {
		return strings.TrimSpace(expr[:i]), strings.TrimSpace(expr[i+1:]), true
	}
	return expr, "", false
}

// lookup 沿点号路径在解码后的 JSON 结构里下钻，段内可带任意个 [n] 下标。
func lookup(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes, valid := parseSegment(segment)
		if !valid {
			return nil, false
		}
		if name != "" {
			var ok bool
			current, ok = fieldOf(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			var ok bool
			current, ok = elementAt(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []int, bool) {
	name := segment
	var indexes []int
	if i := strings.IndexByte(segment, '['); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for strings.HasPrefix(rest, "[") {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return "", nil, false
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return "", nil, false
			}
			indexes = append(indexes, idx)
			rest = rest[end+1:]
		}
		if rest != "" {
			return "", nil, false
		}
	}
	return name, indexes, true
}

func fieldOf(current any, key string) (any, bool) {
	m, ok := current.(map[string]interface{})
	if !ok {
		return nil, false
	}
	val, ok := m[key]
	return val, ok
}

func elementAt(current any, idx int) (any, bool) {
	arr, ok := current.([]interface{})
	if !ok || idx < 0 || idx >= len(arr) {
		return nil, false
	}
	return arr[idx], true
}
