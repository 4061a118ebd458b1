package book

import (
	"strings"
	"unicode"
)

// Flatten 把存储态的富文本标记拍平为纯文本：剥掉标签、还原常见实体、
// 折叠连续空白。布局引擎只接受纯文本，所有问答内容在进入引擎前
// 必须经过这里，两个渲染端因此喂给引擎的字节完全一致。
func Flatten(rich string) string {
	var b strings.Builder
	b.Grow(len(rich))
	inTag := false
	for i := 0; i < len(rich); i++ {
		c := rich[i]
		switch {
		case c == '<':
			inTag = true
			// 块级标签断开处补一个空格，避免相邻词粘连。
			b.WriteByte(' ')
		case c == '>':
			inTag = false
		case inTag:
			// 跳过标签内部
		case c == '&':
			entity, skip := decodeEntity(rich[i:])
			if skip > 0 {
				b.WriteString(entity)
				i += skip - 1
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return collapseSpace(b.String())
}

// decodeEntity 识别存储态会出现的少数几个实体，返回替换文本与消耗的字节数。
func decodeEntity(s string) (string, int) {
	for _, e := range []struct {
		name string
		text string
	}{
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
		{"&#39;", "'"},
		{"&nbsp;", " "},
	} {
		if strings.HasPrefix(s, e.name) {
			return e.text, len(e.name)
		}
	}
	return "", 0
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
