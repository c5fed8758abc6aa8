package narrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualSteps_Empty(t *testing.T) {
	doc := New(testFiles()).ManualSteps(nil)
	assert.Equal(t, "", doc.Text)
	assert.Empty(t, doc.Formulas)
}

func TestManualSteps_Filter(t *testing.T) {
	ops := decodeOps(t, `[{"type": "filter", "file_id": "f1", "table": "orders",
		"conditions": [{"column": "金额", "op": "=", "value": 1000}]}]`)

	want := strings.Join([]string{
		"🔧 手动操作步骤",
		"",
		"步骤 1：筛选 orders 表中符合条件的数据",
		"   1. 打开 销售.xlsx，切换到「orders」工作表",
		"   2. 选中数据区域（包含表头）",
		"   3. 点击「数据」→「筛选」",
		`   4. 在「金额」列下拉菜单中，只勾选 "1000"`,
		"   5. 选中筛选后的所有数据（包含表头），按 Ctrl+C 复制",
		"   6. 新建工作表，命名为「筛选结果」",
		"   7. 在 A1 单元格按 Ctrl+V 粘贴",
		"   8. 返回「orders」工作表，点击「数据」→「清除」取消筛选",
		"",
		"---",
		"💡 Excel 365 用户提示",
		"如果你使用 Excel 365，可以用以下公式替代部分操作：",
		"",
		"步骤 1（筛选 orders 表中符合条件的数据）：",
		"   =FILTER(orders!A:Z, (orders![金额]=1000))",
		"",
	}, "\n")

	doc := New(testFiles()).ManualSteps(ops)
	assert.Equal(t, want, doc.Text)
	require.Len(t, doc.Formulas, 1)
	assert.Equal(t, 1, doc.Formulas[0].Step)
	assert.Equal(t, "=FILTER(orders!A:Z, (orders![金额]=1000))", doc.Formulas[0].Formula)
}

func TestManualSteps_FilterConditionForms(t *testing.T) {
	ops := decodeOps(t, `[{"type": "filter", "table": "orders", "output": {"type": "new_sheet", "name": "大单"},
		"conditions": [
			{"column": "地区", "op": "contains", "value": "华"},
			{"column": "金额", "op": ">=", "value": 500}
		]}]`)
	text := New(nil).ManualSteps(ops).Text

	assert.Contains(t, text, `   4. 在「地区」列中筛选包含 "华" 的数据`)
	assert.Contains(t, text, "   5. 在「金额」列中设置条件：>= 500")
	assert.Contains(t, text, "   7. 新建工作表，命名为「大单」")
	assert.Contains(t, text, "   9. 返回「orders」工作表")
}

func TestManualSteps_Sort(t *testing.T) {
	one := decodeOps(t, `[{"type": "sort", "table": "t", "by": [{"column": "A"}]}]`)
	text := New(nil).ManualSteps(one).Text
	assert.Contains(t, text, "   4. 主要关键字选择 「A」列，次序选择「升序（A→Z）」\n   5. 点击「确定」")

	two := decodeOps(t, `[{"type": "sort", "table": "t", "by": [{"column": "A", "order": "desc"}, {"column": "B"}]}]`)
	text = New(nil).ManualSteps(two).Text
	assert.Contains(t, text, "   4. 主要关键字选择 「A」列，次序选择「降序（Z→A）」")
	assert.Contains(t, text, "   5. 次要1关键字选择 「B」列，次序选择「升序（A→Z）」")
	assert.Contains(t, text, "   6. 点击「确定」")
	assert.Contains(t, text, "   =SORT(t!A:Z, MATCH(\"A\", t!1:1, 0), -1)")
}

func TestManualSteps_SortToNewSheet(t *testing.T) {
	ops := decodeOps(t, `[
		{"type": "sort", "file_id": "f1", "table": "orders", "by": [{"column": "金额", "order": "desc"}],
			"output": {"type": "new_sheet", "name": "S2"}},
		{"type": "take", "file_id": "f1", "table": "S2", "rows": 5}
	]`)
	text := New(testFiles()).ManualSteps(ops).Text

	assert.Contains(t, text, "   5. 点击「确定」\n"+
		"   6. 选中排序后的所有数据（包含表头），按 Ctrl+C 复制\n"+
		"   7. 新建工作表，命名为「S2」\n"+
		"   8. 在 A1 单元格按 Ctrl+V 粘贴\n")
	assert.Less(t, strings.Index(text, "新建工作表，命名为「S2」"), strings.Index(text, "切换到「S2」工作表"),
		"the sheet is created before a later step opens it")

	inPlace := New(nil).ManualSteps(decodeOps(t, `[{"type": "sort", "table": "t", "by": [{"column": "A"}]}]`)).Text
	assert.NotContains(t, inPlace, "新建工作表")
}

func TestManualSteps_GroupBy(t *testing.T) {
	ops := decodeOps(t, `[{"type": "group_by", "table": "orders", "group_columns": ["地区", "日期"],
		"aggregations": [{"column": "金额", "function": "sum"}]}]`)
	text := New(nil).ManualSteps(ops).Text

	assert.Contains(t, text, "   5. 在右侧「数据透视表字段」面板中：\n      - 将 「地区」, 「日期」 拖到「行」区域")
	assert.Contains(t, text, "      - 将「金额」拖到「值」区域，右键选择「值汇总方式」→「sum」")
	assert.Contains(t, text, "   6. 将工作表重命名为「分组统计」")
	assert.Contains(t, text, "   =GROUPBY(orders![地区], orders![金额], SUM)")
}

func TestManualSteps_Take(t *testing.T) {
	head := New(nil).ManualSteps(decodeOps(t, `[{"type": "take", "table": "t", "rows": 10}]`)).Text
	assert.Contains(t, head, "   2. 点击第 12 行的行号")
	assert.Contains(t, head, "   4. 右键 →「删除」")
	assert.Contains(t, head, "   =TAKE(t!A:Z, 10)")

	tail := New(nil).ManualSteps(decodeOps(t, `[{"type": "take", "table": "t", "rows": -5}]`)).Text
	assert.Contains(t, tail, "   2. 找到最后一行数据的行号（假设为 N）")
	assert.Contains(t, tail, "   4. 按住 Shift，点击第 N-5 行的行号（选中要删除的行）")
	assert.Contains(t, tail, "   5. 右键 →「删除」")
	assert.Contains(t, tail, "   =TAKE(t!A:Z, -5)")
}

func TestManualSteps_TakeToNewSheet(t *testing.T) {
	head := New(nil).ManualSteps(decodeOps(t,
		`[{"type": "take", "table": "t", "rows": 3, "output": {"type": "new_sheet", "name": "前三"}}]`)).Text
	assert.Contains(t, head, "   2. 选中第 1 行到第 4 行（表头和前 3 行数据），按 Ctrl+C 复制\n"+
		"   3. 新建工作表，命名为「前三」\n"+
		"   4. 在 A1 单元格按 Ctrl+V 粘贴\n")
	assert.NotContains(t, head, "删除")

	tail := New(nil).ManualSteps(decodeOps(t,
		`[{"type": "take", "table": "t", "rows": -2, "output": {"type": "new_sheet"}}]`)).Text
	assert.Contains(t, tail, "   2. 选中表头行，按住 Ctrl 再选中最后 2 行数据，按 Ctrl+C 复制")
	assert.Contains(t, tail, "   3. 新建工作表，命名为「结果」")
}

func TestManualSteps_SelectColumns(t *testing.T) {
	ops := decodeOps(t, `[
		{"type": "select_columns", "file_id": "f1", "table": "orders", "columns": ["金额", "日期"],
			"output": {"type": "new_sheet"}},
		{"type": "select_columns", "file_id": "f1", "table": "orders", "columns": ["地区"]}
	]`)
	doc := New(testFiles()).ManualSteps(ops)

	assert.Contains(t, doc.Text, "   2. 按住 Ctrl（或 Cmd）依次点击列标题，选中 「金额」、「日期」")
	assert.Contains(t, doc.Text, "   4. 新建工作表，命名为「结果」")
	assert.Contains(t, doc.Text, "   5. 删除原工作表，重命名新工作表为「orders」")
	require.Len(t, doc.Formulas, 2)
	assert.Equal(t, "=CHOOSECOLS(orders!A:Z, 3, 1)", doc.Formulas[0].Formula)
	assert.Equal(t, "=CHOOSECOLS(orders!A:Z, 2)", doc.Formulas[1].Formula)
}

func TestManualSteps_DropColumns(t *testing.T) {
	ops := decodeOps(t, `[{"type": "drop_columns", "file_id": "f1", "table": "orders", "columns": ["地区"]}]`)
	doc := New(testFiles()).ManualSteps(ops)

	assert.Contains(t, doc.Text, "   2. 按住 Ctrl（或 Cmd）依次点击列标题，选中要删除的列：「地区」\n   3. 右键 →「删除」")
	require.Len(t, doc.Formulas, 1)
	assert.Equal(t, "=CHOOSECOLS(orders!A:Z, 1, 3)", doc.Formulas[0].Formula)

	unknown := decodeOps(t, `[{"type": "drop_columns", "table": "x", "columns": ["B", "C"],
		"output": {"type": "new_sheet", "name": "精简"}}]`)
	doc = New(testFiles()).ManualSteps(unknown)
	assert.Contains(t, doc.Text, "   2. 选中除 「B」、「C」 外的所有列（可按住 Ctrl 逐列选择）")
	assert.Contains(t, doc.Text, "   4. 新建工作表，命名为「精简」")
	assert.Contains(t, doc.Text, `ISNA(MATCH(x!1:1, {"B", "C"}, 0))`)
}

func TestManualSteps_AddAndUpdateColumn(t *testing.T) {
	ops := decodeOps(t, `[
		{"type": "add_column", "file_id": "f1", "table": "orders", "name": "含税",
			"formula": {"func": "ROUND", "args": [{"op": "*", "left": {"col": "金额"}, "right": 1.13}, 2]}},
		{"type": "add_column", "table": "orders", "name": "备注"},
		{"type": "update_column", "file_id": "f1", "table": "orders", "column": "地区",
			"formula": {"func": "TRIM", "args": [{"col": "地区"}]}}
	]`)
	doc := New(testFiles()).ManualSteps(ops)

	assert.Contains(t, doc.Text, "   2. 在最后一列的右边空白列的表头单元格输入「含税」")
	assert.Contains(t, doc.Text, "   3. 在该列的第一个数据单元格（第 2 行）输入公式：\n      =ROUND((C2 * 1.13), 2)")
	assert.Contains(t, doc.Text, "   3. 根据业务逻辑在该列输入相应的公式或数据")
	assert.Contains(t, doc.Text, "   3. 在临时列的第一个数据单元格（第 2 行）输入公式：\n      =TRIM(B2)")
	assert.Contains(t, doc.Text, "   6. 选中「地区」列的数据区域，右键 →「选择性粘贴」→「值」\n   7. 删除临时列")
	assert.Empty(t, doc.Formulas)
	assert.NotContains(t, doc.Text, "💡")
}

func TestManualSteps_AggregateAndCompute(t *testing.T) {
	ops := decodeOps(t, `[
		{"type": "aggregate", "file_id": "f1", "table": "orders", "function": "SUM", "column": "金额", "as_var": "total"},
		{"type": "aggregate", "file_id": "f1", "table": "orders", "function": "COUNTIF", "column": "金额",
			"condition_column": "地区", "condition": "华东"},
		{"type": "compute", "expression": {"op": "/", "left": {"var": "total"}, "right": 12}, "as_var": "monthly"}
	]`)
	text := New(testFiles()).ManualSteps(ops).Text

	assert.Contains(t, text, "   2. 在空白单元格输入公式：\n      =SUM(orders!C:C)\n   3. 结果即为「金额」列的求和")
	assert.Contains(t, text, "   4. 此结果将用于后续计算（记录为 total）")
	assert.Contains(t, text, `      =COUNTIF(orders!B:B, "华东", orders!C:C)`)
	assert.Contains(t, text, "   3. 结果即为「金额」列的条件计数\n\n")
	assert.Contains(t, text, "步骤 3：计算得到 monthly\n   1. 此步骤基于前面聚合结果进行计算")
	assert.Contains(t, text, "   3. 结果记录为变量 monthly，供后续步骤使用")
}

func TestManualSteps_CreateSheet(t *testing.T) {
	ops := decodeOps(t, `[
		{"type": "create_sheet", "name": "备份", "source": {"type": "copy", "table": "orders"}},
		{"type": "create_sheet", "name": "空表"}
	]`)
	text := New(nil).ManualSteps(ops).Text

	assert.Contains(t, text, "步骤 1：创建新工作表「备份」\n   1. 右键点击「orders」工作表标签")
	assert.Contains(t, text, "   4. 将新工作表重命名为「备份」")
	assert.Contains(t, text, "步骤 2：创建新工作表「空表」\n   1. 右键点击任意工作表标签")
	assert.Contains(t, text, "   3. 将新工作表重命名为「空表」")
}

func TestManualSteps_UnknownKind(t *testing.T) {
	ops := decodeOps(t, `[{"type": "pivot", "table": "orders"}]`)
	doc := New(testFiles()).ManualSteps(ops)

	assert.Equal(t, "🔧 手动操作步骤\n\n步骤 1：执行操作\n   （此操作类型暂不支持手动复现）\n", doc.Text)
	assert.Empty(t, doc.Formulas)
}

func TestManualSteps_FormulaReferences(t *testing.T) {
	ops := decodeOps(t, `[{"type": "take", "file_id": "f1", "table": "orders", "rows": 3}]`)
	doc := New(testFiles()).ManualSteps(ops)

	require.Len(t, doc.Formulas, 1)
	assert.Contains(t, doc.Formulas[0].References, "orders!A:Z")
	assert.Equal(t, []string{"TAKE"}, doc.Formulas[0].Functions)
}
