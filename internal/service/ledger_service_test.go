package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransferFee(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		ratio    string
		minFee   string
		expected string
	}{
		{"百分之一费率整额", "100", "0.01", "0.01", "1.00"},
		{"小额转账按最低手续费", "0.4", "0.01", "0.01", "0.01"},
		{"临界额恰好等于最低手续费", "1", "0.01", "0.01", "0.01"},
		{"大额转账", "12345", "0.01", "0.01", "123.45"},
		{"四舍五入到最低手续费的精度", "123.456", "0.01", "0.01", "1.23"},
		{"更高的最低手续费", "100", "0.01", "5", "5"},
		{"整数精度最低手续费", "250", "0.02", "1", "5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee := TransferFee(d(tc.amount), d(tc.ratio), d(tc.minFee))
			assert.Truef(t, fee.Equal(d(tc.expected)),
				"fee = %s, want %s", fee.String(), tc.expected)
		})
	}
}

func TestTransferFeeNeverBelowMinimum(t *testing.T) {
	minFee := d("0.01")
	ratio := d("0.01")
	for _, amount := range []string{"0.01", "0.1", "0.99", "1", "3.7", "50", "9999.99"} {
		fee := TransferFee(d(amount), ratio, minFee)
		assert.Truef(t, fee.GreaterThanOrEqual(minFee),
			"amount %s: fee %s 低于最低手续费", amount, fee.String())
	}
}

// 净到账 = 转账额 - 手续费，两者相加严格等于转出额
func TestTransferNetPlusFeeEqualsAmount(t *testing.T) {
	ratio, minFee := d("0.01"), d("0.01")
	for _, amount := range []string{"100", "0.5", "3.33", "1000000"} {
		a := d(amount)
		fee := TransferFee(a, ratio, minFee)
		net := a.Sub(fee)
		assert.True(t, fee.Add(net).Equal(a))
	}
}

func TestTransferScenario(t *testing.T) {
	// 转 100，费率 0.01，最低手续费 0.01：fee = max(0.01, 1.00) = 1.00，net = 99.00
	amount := d("100")
	fee := TransferFee(amount, d("0.01"), d("0.01"))
	net := amount.Sub(fee)

	assert.True(t, fee.Equal(d("1.00")))
	assert.True(t, net.Equal(d("99.00")))
}

// 能量守恒：任意转账序列后，总量恰好减少累计手续费（手续费销毁，不转移）
func TestConservationUnderTransfers(t *testing.T) {
	ratio, minFee := d("0.01"), d("0.01")

	balances := map[string]decimal.Decimal{
		"a": d("500"),
		"b": d("300"),
		"c": d("200"),
	}
	sum := func() decimal.Decimal {
		total := decimal.Zero
		for _, v := range balances {
			total = total.Add(v)
		}
		return total
	}
	initial := sum()

	transfers := []struct {
		from, to string
		amount   string
	}{
		{"a", "b", "100"},
		{"b", "c", "50.5"},
		{"c", "a", "0.4"},
		{"a", "c", "33.33"},
	}

	totalFees := decimal.Zero
	for _, tr := range transfers {
		amount := d(tr.amount)
		fee := TransferFee(amount, ratio, minFee)
		net := amount.Sub(fee)

		require.True(t, balances[tr.from].GreaterThan(minFee))
		balances[tr.from] = balances[tr.from].Sub(amount)
		balances[tr.to] = balances[tr.to].Add(net)
		totalFees = totalFees.Add(fee)
	}

	assert.True(t, sum().Equal(initial.Sub(totalFees)),
		"总量 %s != 初始 %s - 累计手续费 %s", sum(), initial, totalFees)
}
