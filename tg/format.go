package tg

import (
	"errors"
	"fmt"
	"okxbalance/types"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNoData = errors.New("no balance data found")

type Formatter struct {
	Total types.TotalMode
}

// Format renders one "<ccy>: <availEq>" line per detail in received order,
// then the total equity line. In TotalLast mode the total is the totalEq of
// the last balance entry, whatever the other entries report.
func (f Formatter) Format(s *types.BalanceSnapshot) (string, error) {
	if s == nil || len(s.Data) == 0 {
		return "", ErrNoData
	}

	var b strings.Builder
	b.WriteString("Account Balance:\n")

	var last types.BalanceEntry
	for _, entry := range s.Data {
		for _, d := range entry.Details {
			fmt.Fprintf(&b, "%s: %s\n", d.Ccy(), d.AvailEq())
		}
		last = entry
	}

	total := last.TotalEq()
	if f.Total == types.TotalSum {
		sum, err := sumTotalEq(s.Data)
		if err != nil {
			return "", err
		}
		total = sum
	}

	fmt.Fprintf(&b, "\n账户余额 = %s USDT", total)
	return b.String(), nil
}

func sumTotalEq(entries []types.BalanceEntry) (string, error) {
	sum := decimal.Zero
	for i, entry := range entries {
		v, err := decimal.NewFromString(entry.TotalEq())
		if err != nil {
			return "", fmt.Errorf("parse totalEq of entry %d: %w", i, err)
		}
		sum = sum.Add(v)
	}
	return sum.String(), nil
}
