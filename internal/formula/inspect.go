package formula

import (
	"strings"

	"github.com/xuri/efp"
)

// References returns the range operands a formula touches, in order of first
// appearance, e.g. ["orders!A:Z", "orders![金额]"]. Text, number and logical
// operands are skipped.
func References(formula string) []string {
	if !strings.HasPrefix(formula, "=") {
		formula = "=" + formula
	}
	ps := efp.ExcelParser()
	tokens := ps.Parse(formula)

	var refs []string
	seen := make(map[string]bool)
	for _, token := range tokens {
		if token.TType != efp.TokenTypeOperand || token.TSubType != efp.TokenSubTypeRange {
			continue
		}
		ref := strings.TrimSpace(token.TValue)
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}

// Functions returns the function names a formula calls, in order of first
// appearance.
func Functions(formula string) []string {
	if !strings.HasPrefix(formula, "=") {
		formula = "=" + formula
	}
	ps := efp.ExcelParser()
	tokens := ps.Parse(formula)

	var names []string
	seen := make(map[string]bool)
	for _, token := range tokens {
		if token.TType != efp.TokenTypeFunction || token.TSubType != efp.TokenSubTypeStart {
			continue
		}
		name := strings.ToUpper(token.TValue)
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
