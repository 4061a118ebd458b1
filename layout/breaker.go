package layout

import "strings"

// 防御性上限：度量提供方返回不前进的宽度时，贪心循环仍能在有限步内结束。
// 正常输入远小于这些值。
const (
	// maxWordsPerField 限制整个字段参与折行的词数。
	maxWordsPerField = 1 << 17
	// maxIterationsPerLn 限制单行内处理的词数。
	maxIterationsPerLn = 1 << 17
)

// brokenLine 是折行结果中的一行：词序列与累计宽度（词宽 + 词间距）。
type brokenLine struct {
	words []string
	width float64
}

func (l brokenLine) text() string { return strings.Join(l.words, " ") }

// breakLines 对单一样式的词流做贪心折行。
// 规则：当前行非空且 currentWidth+spaceWidth+wordWidth 超出 avail 时换行；
// 单词自身宽于 avail 时独占一行（词是原子的，不做词内断字）；
// 空输入恰好产出一行空行，保证只含空白的字段仍占据一行垂直空间。
func breakLines(text string, style TextStyle, avail float64, m Metrics) []brokenLine {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []brokenLine{{}}
	}
	if len(words) > maxWordsPerField {
		words = words[:maxWordsPerField]
	}

	spaceW := measureWord(m, " ", style)

	var lines []brokenLine
	cur := brokenLine{}
	iter := 0 // 当前行已处理的词数，换行时归零
	for _, word := range words {
		if iter++; iter > maxIterationsPerLn {
			break
		}
		w := measureWord(m, word, style)
		if len(cur.words) > 0 && cur.width+spaceW+w > avail {
			lines = append(lines, cur)
			cur = brokenLine{}
			iter = 1
		}
		if len(cur.words) == 0 {
			// 行首的词无条件放入：宽于 avail 的词独占此行。
			cur.words = append(cur.words, word)
			cur.width = w
			if w > avail {
				lines = append(lines, cur)
				cur = brokenLine{}
				iter = 0
			}
			continue
		}
		cur.words = append(cur.words, word)
		cur.width += spaceW + w
	}
	if len(cur.words) > 0 {
		lines = append(lines, cur)
	}
	if len(lines) == 0 {
		lines = []brokenLine{{}}
	}
	return lines
}
