package narrate

import (
	"fmt"
	"strings"

	"github.com/roach88/xlnarrate/internal/catalog"
	"github.com/roach88/xlnarrate/internal/ir"
)

// provenance maps a created sheet name to the 1-based step that created it.
// It lives for a single narration pass.
type provenance map[string]int

// record notes the sheet op creates, if any. A later step creating the same
// name wins.
func (p provenance) record(op ir.Operation, step int) {
	if name, ok := ir.CreatedSheet(op); ok {
		p[name] = step
	}
}

// Strategy renders the strategy document: one box-drawn block per step and a
// final outcome summary. An empty operation list renders as empty text.
func (n *Narrator) Strategy(ops []ir.Operation) Document {
	doc := Document{Steps: len(ops), Digest: n.digest(ops)}
	if len(ops) == 0 {
		return doc
	}

	lines := []string{
		"📋 处理思路",
		"",
		fmt.Sprintf("本次处理共 %d 步：", len(ops)),
		"",
	}

	created := provenance{}
	for i, op := range ops {
		step := i + 1
		lines = append(lines, n.strategyBlock(op, step, created)...)
		lines = append(lines, "")
		created.record(op, step)
	}

	lines = append(lines, "→ 最终结果："+summary(ops))
	doc.Text = strings.Join(lines, "\n")
	return doc
}

func (n *Narrator) strategyBlock(op ir.Operation, step int, created provenance) []string {
	text := textFor(op)

	lines := []string{
		fmt.Sprintf("步骤 %d：%s", step, description(op)),
		"├─ 操作：" + catalog.Label(op.Kind()),
	}
	if target, ok := n.target(op, step, created); ok {
		lines = append(lines, "├─ 目标："+target)
	}
	for _, d := range text.details(op) {
		lines = append(lines, "├─ "+d)
	}
	lines = append(lines, "└─ 方法："+text.method(op))
	return lines
}

// target renders "filename / table", citing the creating step when the table
// was created earlier in the pass. Only operations carrying a file id have a
// target line.
func (n *Narrator) target(op ir.Operation, step int, created provenance) (string, bool) {
	fileID := op.Meta().FileID
	if fileID == "" {
		return "", false
	}
	table := ir.TargetTable(op)
	target := n.filename(step, fileID, fileID) + " / " + table
	if from, ok := created[table]; ok {
		target += fmt.Sprintf("（步骤 %d 创建）", from)
	}
	return target, true
}

// summary lists created sheets and added columns, or reports plain completion.
func summary(ops []ir.Operation) string {
	var sheets, columns []string
	for _, op := range ops {
		if name, ok := ir.CreatedSheet(op); ok {
			sheets = append(sheets, name)
		}
		if add, ok := op.(ir.AddColumn); ok {
			columns = append(columns, "「"+add.Name+"」")
		}
	}

	var parts []string
	if len(sheets) > 0 {
		parts = append(parts, "新建工作表 "+strings.Join(sheets, ", "))
	}
	if len(columns) > 0 {
		parts = append(parts, "新增列 "+strings.Join(columns, ", "))
	}
	if len(parts) == 0 {
		return "处理完成"
	}
	return strings.Join(parts, "；")
}
