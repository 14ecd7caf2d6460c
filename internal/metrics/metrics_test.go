package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/blinds/internal/quote"
)

type noRules struct{}

func (noRules) FabricTypeSequence() []string { return []string{"B1"} }

func (noRules) HDWinderThresholdArea() (int, bool) { return 0, false }

type blankItems struct{}

func (blankItems) NewItem(string) (quote.Item, error) { return quote.Item{ItemID: "x"}, nil }

func TestMetrics_RecorderAndStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ActionApplied("quote/updateItemValue")
	m.ActionApplied("quote/updateItemValue")
	m.ActionApplied("ui/setSumOutdated")
	m.PricingError()
	m.CalculationDuration(3 * time.Millisecond)

	require.InDelta(t, 2, testutil.ToFloat64(m.actions.WithLabelValues("quote/updateItemValue")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(m.pricingErrors), 1e-9)
	require.Equal(t, 1, testutil.CollectAndCount(m.calculation))

	store := quote.NewStore(quote.NewReducer(noRules{}, blankItems{}, nil), nil, nil)
	stop := m.ObserveStore(store)

	store.Dispatch(quote.SetSumOutdated{Outdated: true})
	store.Dispatch(quote.SetSumOutdated{Outdated: true})
	require.InDelta(t, 1, testutil.ToFloat64(m.commits), 1e-9, "no-op dispatch is not a commit")

	stop()
	store.Dispatch(quote.SetSumOutdated{Outdated: false})
	require.InDelta(t, 1, testutil.ToFloat64(m.commits), 1e-9)
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}
