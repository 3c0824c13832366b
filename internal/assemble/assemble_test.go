package assemble

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookgrep-dev/bookgrep/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sp(id, commodity, value string) model.SplitRecord {
	return model.SplitRecord{
		SplitID:   id,
		TxID:      "tx1",
		Commodity: commodity,
		Value:     dec(value),
		Date:      time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func tx(splits ...model.SplitRecord) model.TransactionRecord {
	return model.TransactionRecord{
		TxID:        "tx1",
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Description: "test",
		Splits:      splits,
	}
}

func ids(splits []model.SplitRecord) []string {
	out := make([]string, len(splits))
	for i, s := range splits {
		out[i] = s.SplitID
	}
	return out
}

func TestExpand_FullTakesEverySplit(t *testing.T) {
	block, warn := Expand(tx(sp("a", "USD", "100"), sp("b", "USD", "-60"), sp("c", "USD", "-40")),
		map[string]bool{"a": true}, Full)
	assert.Nil(t, warn)
	assert.Equal(t, []string{"a", "b", "c"}, ids(block.Splits))
}

func TestExpand_FullDedupesRepeatedSplits(t *testing.T) {
	block, _ := Expand(tx(sp("a", "USD", "100"), sp("a", "USD", "100"), sp("b", "USD", "-100")),
		map[string]bool{"a": true}, Full)
	assert.Equal(t, []string{"a", "b"}, ids(block.Splits))
}

func TestExpand_BalancedGreedyOrder(t *testing.T) {
	// {+100, -60, -40}, only +100 matches: the balanced context adds -60
	// then -40 (magnitude descending) and the USD sum is exactly zero.
	block, warn := Expand(tx(sp("a", "USD", "100"), sp("b", "USD", "-60"), sp("c", "USD", "-40")),
		map[string]bool{"a": true}, Balanced)
	require.Nil(t, warn)
	assert.Equal(t, []string{"a", "b", "c"}, ids(block.Splits))

	sum := decimal.Zero
	for _, s := range block.Splits {
		sum = sum.Add(s.Value)
	}
	assert.True(t, sum.IsZero())
}

func TestExpand_BalancedTieBreakBySplitID(t *testing.T) {
	// Equal magnitudes: ascending split ID decides consumption order.
	block, warn := Expand(tx(sp("m", "USD", "100"), sp("z", "USD", "-50"), sp("b", "USD", "-50"), sp("k", "USD", "-50")),
		map[string]bool{"m": true}, Balanced)
	require.Nil(t, warn)
	assert.Equal(t, []string{"m", "b", "k"}, ids(block.Splits))
}

func TestExpand_BalancedSkipsBalancedCommodity(t *testing.T) {
	// The EUR pair already balances within the match; only USD needs context.
	block, warn := Expand(tx(
		sp("a", "USD", "100"),
		sp("b", "EUR", "80"),
		sp("c", "EUR", "-80"),
		sp("d", "USD", "-100"),
		sp("e", "EUR", "5"),
		sp("f", "EUR", "-5"),
	), map[string]bool{"a": true, "b": true, "c": true}, Balanced)
	require.Nil(t, warn)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, ids(block.Splits))
}

func TestExpand_BalancedMultiCommodityIndependent(t *testing.T) {
	// Each commodity balances independently, never merged.
	block, warn := Expand(tx(
		sp("a", "USD", "100"),
		sp("b", "EUR", "90"),
		sp("c", "USD", "-100"),
		sp("d", "EUR", "-90"),
	), map[string]bool{"a": true, "b": true}, Balanced)
	require.Nil(t, warn)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, ids(block.Splits))
}

func TestExpand_BalancedOvershootRecovers(t *testing.T) {
	// Greedy may pass zero and come back: -120 then +20.
	block, warn := Expand(tx(sp("a", "USD", "100"), sp("b", "USD", "-120"), sp("c", "USD", "20")),
		map[string]bool{"a": true}, Balanced)
	require.Nil(t, warn)
	assert.Equal(t, []string{"a", "b", "c"}, ids(block.Splits))
}

func TestExpand_UnbalanceableFallsBackToFull(t *testing.T) {
	block, warn := Expand(tx(sp("a", "USD", "100"), sp("b", "USD", "-70")),
		map[string]bool{"a": true}, Balanced)
	require.NotNil(t, warn)
	assert.Equal(t, model.WarnUnbalanceable, warn.Code)
	assert.Contains(t, warn.Message, "tx1")
	assert.Equal(t, []string{"a", "b"}, ids(block.Splits), "fallback shows the full context")
}

func TestExpand_AllSplitsMatchedAlreadyBalanced(t *testing.T) {
	block, warn := Expand(tx(sp("a", "USD", "100"), sp("b", "USD", "-100")),
		map[string]bool{"a": true, "b": true}, Balanced)
	require.Nil(t, warn)
	assert.Equal(t, []string{"a", "b"}, ids(block.Splits))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("balanced")
	require.NoError(t, err)
	assert.Equal(t, Balanced, m)

	m, err = ParseMode("full")
	require.NoError(t, err)
	assert.Equal(t, Full, m)

	_, err = ParseMode("partial")
	assert.Error(t, err)
}
