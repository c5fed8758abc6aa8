package narrate

import (
	"fmt"
	"strings"

	"github.com/roach88/xlnarrate/internal/catalog"
	"github.com/roach88/xlnarrate/internal/formula"
	"github.com/roach88/xlnarrate/internal/ir"
)

// Fallback names used by the manual scripts.
const (
	defaultFilename    = "Excel 文件"
	defaultFilterSheet = "筛选结果"
	defaultGroupSheet  = "分组统计"
	defaultResultSheet = "结果"
)

// ManualSteps renders the manual-steps document: a numbered GUI script per
// step and, when any step has a spreadsheet-365 equivalent, a trailing
// appendix of those formulas.
func (n *Narrator) ManualSteps(ops []ir.Operation) ManualDocument {
	doc := ManualDocument{Document: Document{Steps: len(ops), Digest: n.digest(ops)}}
	if len(ops) == 0 {
		return doc
	}

	lines := []string{"🔧 手动操作步骤", ""}
	for i, op := range ops {
		step := i + 1
		desc := description(op)
		lines = append(lines, fmt.Sprintf("步骤 %d：%s", step, desc))
		lines = append(lines, n.manualScript(op, step)...)
		lines = append(lines, "")

		if catalog.IsAdvanced(op.Kind()) {
			if f, ok := n.compiler.Equivalent(op); ok {
				doc.Formulas = append(doc.Formulas, FormulaEntry{
					Step:        step,
					Description: desc,
					Formula:     f,
					References:  formula.References(f),
					Functions:   formula.Functions(f),
				})
			}
		}
	}

	if len(doc.Formulas) > 0 {
		lines = append(lines,
			"---",
			"💡 Excel 365 用户提示",
			"如果你使用 Excel 365，可以用以下公式替代部分操作：",
			"",
		)
		for _, f := range doc.Formulas {
			lines = append(lines,
				fmt.Sprintf("步骤 %d（%s）：", f.Step, f.Description),
				"   "+f.Formula,
				"",
			)
		}
	}

	doc.Text = strings.Join(lines, "\n")
	return doc
}

// manualScript dispatches to the per-kind GUI script.
func (n *Narrator) manualScript(op ir.Operation, step int) []string {
	s := &script{}
	switch o := op.(type) {
	case ir.Filter:
		n.filterScript(s, o, step)
	case ir.Sort:
		n.sortScript(s, o, step)
	case ir.GroupBy:
		n.groupByScript(s, o, step)
	case ir.Take:
		n.takeScript(s, o, step)
	case ir.SelectColumns:
		n.selectScript(s, o, step)
	case ir.DropColumns:
		n.dropScript(s, o, step)
	case ir.AddColumn:
		n.addColumnScript(s, o, step)
	case ir.UpdateColumn:
		n.updateColumnScript(s, o, step)
	case ir.Aggregate:
		n.aggregateScript(s, o, step)
	case ir.CreateSheet:
		createSheetScript(s, o)
	case ir.Compute:
		computeScript(s, o)
	default:
		s.raw("   （此操作类型暂不支持手动复现）")
	}
	return s.lines
}

// script accumulates numbered instruction lines.
type script struct {
	lines []string
	next  int
}

// step appends "   k. text" with the next number.
func (s *script) step(format string, args ...any) {
	s.next++
	s.lines = append(s.lines, fmt.Sprintf("   %d. ", s.next)+fmt.Sprintf(format, args...))
}

// sub appends an unnumbered line nested under the current step.
func (s *script) sub(format string, args ...any) {
	s.lines = append(s.lines, "      "+fmt.Sprintf(format, args...))
}

func (s *script) raw(line string) {
	s.lines = append(s.lines, line)
}

// open is the first instruction of most scripts.
func (n *Narrator) open(s *script, op ir.Operation, step int) {
	filename := n.filename(step, op.Meta().FileID, defaultFilename)
	s.step("打开 %s，切换到「%s」工作表", filename, op.Meta().Table)
}

// pasteToNewSheet finishes a script that copied its result: the clipboard
// goes to A1 of a new sheet called name.
func pasteToNewSheet(s *script, name string) {
	s.step("新建工作表，命名为「%s」", name)
	s.step("在 A1 单元格按 Ctrl+V 粘贴")
}

func quotedList(cols []string, sep string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = "「" + c + "」"
	}
	return strings.Join(parts, sep)
}

func (n *Narrator) filterScript(s *script, o ir.Filter, step int) {
	n.open(s, o, step)
	s.step("选中数据区域（包含表头）")
	s.step("点击「数据」→「筛选」")
	for _, c := range o.Conditions {
		value := ir.ValueText(c.Value)
		switch c.Operator() {
		case "=":
			s.step("在「%s」列下拉菜单中，只勾选 \"%s\"", c.Column, value)
		case "contains":
			s.step("在「%s」列中筛选包含 \"%s\" 的数据", c.Column, value)
		default:
			s.step("在「%s」列中设置条件：%s %s", c.Column, c.Operator(), value)
		}
	}
	s.step("选中筛选后的所有数据（包含表头），按 Ctrl+C 复制")
	pasteToNewSheet(s, o.Output.NameOr(defaultFilterSheet))
	s.step("返回「%s」工作表，点击「数据」→「清除」取消筛选", o.Table)
}

func (n *Narrator) sortScript(s *script, o ir.Sort, step int) {
	n.open(s, o, step)
	s.step("选中所有数据（包含表头）")
	s.step("点击「数据」→「排序」")
	for i, k := range o.By {
		order := "升序（A→Z）"
		if k.Descending() {
			order = "降序（Z→A）"
		}
		level := "主要"
		if i > 0 {
			level = fmt.Sprintf("次要%d", i)
		}
		s.step("%s关键字选择 「%s」列，次序选择「%s」", level, k.Column, order)
	}
	s.step("点击「确定」")
	if o.Output.IsNewSheet() {
		s.step("选中排序后的所有数据（包含表头），按 Ctrl+C 复制")
		pasteToNewSheet(s, o.Output.NameOr(defaultResultSheet))
	}
}

func (n *Narrator) groupByScript(s *script, o ir.GroupBy, step int) {
	n.open(s, o, step)
	s.step("选中所有数据（包含表头）")
	s.step("点击「插入」→「数据透视表」")
	s.step("选择「新工作表」，点击「确定」")
	s.step("在右侧「数据透视表字段」面板中：")
	s.sub("- 将 %s 拖到「行」区域", quotedList(o.GroupColumns, ", "))
	for _, a := range o.Aggregations {
		s.sub("- 将「%s」拖到「值」区域，右键选择「值汇总方式」→「%s」", a.Column, a.Function)
	}
	s.step("将工作表重命名为「%s」", o.Output.NameOr(defaultGroupSheet))
}

func (n *Narrator) takeScript(s *script, o ir.Take, step int) {
	n.open(s, o, step)
	if o.Output.IsNewSheet() {
		if o.FromStart() {
			s.step("选中第 1 行到第 %d 行（表头和前 %d 行数据），按 Ctrl+C 复制", o.Count()+1, o.Count())
		} else {
			s.step("选中表头行，按住 Ctrl 再选中最后 %d 行数据，按 Ctrl+C 复制", o.Count())
		}
		pasteToNewSheet(s, o.Output.NameOr(defaultResultSheet))
		return
	}
	if o.FromStart() {
		// Header plus Count data rows stay; deletion starts right after.
		s.step("点击第 %d 行的行号", o.Count()+2)
		s.step("按 Ctrl+Shift+End 选中到最后一行")
		s.step("右键 →「删除」")
		return
	}
	s.step("找到最后一行数据的行号（假设为 N）")
	s.step("点击第 2 行的行号")
	s.step("按住 Shift，点击第 N-%d 行的行号（选中要删除的行）", o.Count())
	s.step("右键 →「删除」")
}

func (n *Narrator) selectScript(s *script, o ir.SelectColumns, step int) {
	n.noteTable(step, o)
	n.open(s, o, step)
	s.step("按住 Ctrl（或 Cmd）依次点击列标题，选中 %s", quotedList(o.Columns, "、"))
	if o.Output.IsNewSheet() {
		s.step("按 Ctrl+C 复制选中列")
		pasteToNewSheet(s, o.Output.NameOr(defaultResultSheet))
		return
	}
	s.step("右键选中列 →「复制」")
	s.step("新建工作表，将 A1 作为粘贴起点粘贴")
	s.step("删除原工作表，重命名新工作表为「%s」", o.Table)
}

func (n *Narrator) dropScript(s *script, o ir.DropColumns, step int) {
	n.noteTable(step, o)
	n.open(s, o, step)
	cols := quotedList(o.Columns, "、")
	if o.Output.IsNewSheet() {
		s.step("选中除 %s 外的所有列（可按住 Ctrl 逐列选择）", cols)
		s.step("按 Ctrl+C 复制选中列")
		pasteToNewSheet(s, o.Output.NameOr(defaultResultSheet))
		return
	}
	s.step("按住 Ctrl（或 Cmd）依次点击列标题，选中要删除的列：%s", cols)
	s.step("右键 →「删除」")
}

func (n *Narrator) addColumnScript(s *script, o ir.AddColumn, step int) {
	n.open(s, o, step)
	s.step("在最后一列的右边空白列的表头单元格输入「%s」", o.Name)
	if o.Formula == nil {
		s.step("根据业务逻辑在该列输入相应的公式或数据")
		return
	}
	n.noteTable(step, o)
	s.step("在该列的第一个数据单元格（第 %d 行）输入公式：", n.compiler.Options().SampleRow)
	s.sub("%s", n.compiler.Cell(o.Formula, formula.RefOf(o)))
	s.step("选中该单元格，双击右下角的填充柄（或按 Ctrl+D）向下填充到所有数据行")
}

func (n *Narrator) updateColumnScript(s *script, o ir.UpdateColumn, step int) {
	n.open(s, o, step)
	s.step("在「%s」列旁边插入一个临时列", o.Column)
	if o.Formula == nil {
		s.step("在临时列的第一个数据单元格输入相应公式")
	} else {
		n.noteTable(step, o)
		s.step("在临时列的第一个数据单元格（第 %d 行）输入公式：", n.compiler.Options().SampleRow)
		s.sub("%s", n.compiler.Cell(o.Formula, formula.RefOf(o)))
	}
	s.step("向下填充公式到所有数据行")
	s.step("选中临时列的所有数据，按 Ctrl+C 复制")
	s.step("选中「%s」列的数据区域，右键 →「选择性粘贴」→「值」", o.Column)
	s.step("删除临时列")
}

func (n *Narrator) aggregateScript(s *script, o ir.Aggregate, step int) {
	n.noteTable(step, o)
	n.open(s, o, step)
	s.step("在空白单元格输入公式：")
	s.sub("%s", n.compiler.Aggregate(o))
	s.step("结果即为「%s」列的%s", o.Column, catalog.AggregateName(o.Function))
	if o.AsVar != "" {
		s.step("此结果将用于后续计算（记录为 %s）", o.AsVar)
	}
}

func createSheetScript(s *script, o ir.CreateSheet) {
	if o.SourceType() == ir.SourceCopy {
		source := ""
		if o.Source != nil {
			source = o.Source.Table
		}
		s.step("右键点击「%s」工作表标签", source)
		s.step("选择「移动或复制」")
		s.step("勾选「建立副本」，点击「确定」")
		s.step("将新工作表重命名为「%s」", o.Name)
		return
	}
	s.step("右键点击任意工作表标签")
	s.step("选择「插入」→「工作表」")
	s.step("将新工作表重命名为「%s」", o.Name)
}

func computeScript(s *script, o ir.Compute) {
	s.step("此步骤基于前面聚合结果进行计算")
	if o.Expression != nil {
		s.step("计算公式：%s", formula.Describe(o.Expression))
	}
	s.step("结果记录为变量 %s，供后续步骤使用", o.AsVar)
}
