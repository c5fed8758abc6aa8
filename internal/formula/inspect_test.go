package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferences(t *testing.T) {
	assert.Equal(t,
		[]string{"t!A:Z", "t!1:1"},
		References(`=SORT(t!A:Z, MATCH("amount", t!1:1, 0), -1)`))

	assert.Equal(t,
		[]string{"orders!A:Z", "orders![amount]"},
		References(`=FILTER(orders!A:Z, (orders![amount]=1000))`))

	assert.Equal(t,
		[]string{"t!C:C"},
		References(`SUM(t!C:C)+SUM(t!C:C)`), "missing = is tolerated and duplicates collapse")

	assert.Empty(t, References(`=1+2`))
}

func TestFunctions(t *testing.T) {
	assert.Equal(t, []string{"SORT", "MATCH"}, Functions(`=SORT(t!A:Z, MATCH("amount", t!1:1, 0), -1)`))
	assert.Equal(t, []string{"ROUND", "SUM"}, Functions(`=ROUND(SUM(A2:A9), 2) + sum(B2:B9)`))
	assert.Empty(t, Functions(`=A2*2`))
}
