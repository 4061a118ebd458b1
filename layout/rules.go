package layout

// 装饰横线：每个视觉行一条，锚定在基线略下方，横跨内容区域。
// rough 主题仅在这里决定种子；抖动的具体形状由绘制层实现，
// 引擎只保证横线的数量与大致位置可复现。

// ruleDropFactor 决定横线锚点在基线下方的距离（相对该行最大字号）。
const ruleDropFactor = 0.22

// ruleRow 是一条可以画横线的基线行。
type ruleRow struct {
	baseline float64
	fontSize float64
}

// ruleSeed 返回第 index 行的确定性抖动种子（Knuth 乘法散列）。
// 相同输入重排版得到相同种子，保证手绘效果可复现。
func ruleSeed(index int) uint32 {
	return (uint32(index) + 1) * 2654435761
}

// buildRules 为每一行生成一条横线，横跨 [padding, boxWidth-padding]。
// 关闭时返回空切片而非 nil，保证序列化形态稳定为 "rules":[]。
func buildRules(rows []ruleRow, cfg Config) []RuleLine {
	if !cfg.Rules.Enabled {
		return []RuleLine{}
	}
	rules := make([]RuleLine, 0, len(rows))
	for i, row := range rows {
		rl := RuleLine{
			X1: cfg.Padding,
			X2: cfg.BoxWidth - cfg.Padding,
			Y:  row.baseline + row.fontSize*ruleDropFactor,
		}
		if cfg.Rules.Theme == RuleThemeRough {
			rl.Seed = ruleSeed(i)
		}
		rules = append(rules, rl)
	}
	return rules
}
