package pricing

import (
	"math"
	"testing"

	"github.com/Simplici0/blinds/internal/priceconfig"
	"github.com/Simplici0/blinds/internal/product"
	"github.com/Simplici0/blinds/internal/quote"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func intp(n int) *int           { return &n }
func floatp(f float64) *float64 { return &f }

type matrices map[string]*priceconfig.Matrix

func (m matrices) PriceMatrix(fabricType string) *priceconfig.Matrix { return m[fabricType] }

func b2Matrix() *priceconfig.Matrix {
	return &priceconfig.Matrix{
		Name:   "Light Filter",
		Widths: []int{600, 1000, 1500},
		Drops:  []int{1000, 1500},
		Prices: [][]float64{
			{90, 120, 145},
			{105, 150, 170},
		},
	}
}

func quoteWith(items ...quote.Item) *quote.QuoteData {
	return &quote.QuoteData{
		CurrentProduct: quote.ProductRollerBlind,
		Products: map[string]quote.ProductQuote{
			quote.ProductRollerBlind: {
				Items:   items,
				Summary: quote.Summary{Accessories: map[string]float64{"winderCostSum": 30}},
			},
		},
	}
}

func row(w, h int, fabricType string) quote.Item {
	return quote.Item{Width: intp(w), Height: intp(h), FabricType: fabricType}
}

func TestCalculateAndSum_SingleItem(t *testing.T) {
	eng := NewEngine(matrices{"B2": b2Matrix()}, nil)
	q := quoteWith(row(1000, 1200, "B2"), quote.Item{LinePrice: floatp(99)})

	out, first := eng.CalculateAndSum(q, product.NewRollerBlind(nil, nil))
	if first != nil {
		t.Fatalf("unexpected error: %+v", first)
	}

	items := out.Items()
	if items[0].LinePrice == nil {
		t.Fatalf("first row should be priced")
	}
	nearlyEqual(t, "linePrice", *items[0].LinePrice, 150)
	if items[1].LinePrice != nil {
		t.Fatalf("empty row linePrice = %v, want nil", *items[1].LinePrice)
	}
	nearlyEqual(t, "totalSum", out.Current().Summary.TotalSum, 150)
	nearlyEqual(t, "accessories kept", out.Current().Summary.Accessories["winderCostSum"], 30)
}

func TestCalculateAndSum_FirstErrorByRowOrder(t *testing.T) {
	eng := NewEngine(matrices{"B2": b2Matrix()}, nil)
	q := quoteWith(
		row(600, 1000, "B2"),
		row(700, 1000, "B2"),
		row(9000, 1000, "B2"),
		row(1000, 1000, "B2"),
		row(600, 1000, "B2"),
		row(600, 9000, "B2"),
		quote.Item{},
	)

	out, first := eng.CalculateAndSum(q, product.NewRollerBlind(nil, nil))
	if first == nil {
		t.Fatalf("expected an error")
	}
	if first.RowIndex != 2 || first.Column != quote.ColWidth {
		t.Fatalf("first error = %+v, want row 2 width", first)
	}

	// Pricing continues past the failing rows.
	items := out.Items()
	if items[3].LinePrice == nil || items[4].LinePrice == nil {
		t.Fatalf("rows after the error should still be priced")
	}
	if items[2].LinePrice != nil || items[5].LinePrice != nil {
		t.Fatalf("failing rows should have no price")
	}
	nearlyEqual(t, "totalSum", out.Current().Summary.TotalSum, 90+120+120+90)
}

func TestCalculateAndSum_DoesNotModifyInput(t *testing.T) {
	eng := NewEngine(matrices{"B2": b2Matrix()}, nil)
	q := quoteWith(row(1000, 1200, "B2"))

	out, _ := eng.CalculateAndSum(q, product.NewRollerBlind(nil, nil))
	if q.Items()[0].LinePrice != nil {
		t.Fatalf("input item was priced in place")
	}
	if q.Current().Summary.TotalSum != 0 {
		t.Fatalf("input summary changed")
	}
	out.Current().Summary.Accessories["winderCostSum"] = 1
	if q.Current().Summary.Accessories["winderCostSum"] != 30 {
		t.Fatalf("accessories map is shared with the input")
	}
}

func TestCalculateAndSum_MissingMatrixAndStrategy(t *testing.T) {
	eng := NewEngine(matrices{}, nil)
	q := quoteWith(row(1000, 1200, "B9"))

	_, first := eng.CalculateAndSum(q, product.NewRollerBlind(nil, nil))
	if first == nil || first.RowIndex != 0 || first.Column != quote.ColFabricType {
		t.Fatalf("first error = %+v, want row 0 fabricType", first)
	}

	out, first := eng.CalculateAndSum(q, nil)
	if out != q {
		t.Fatalf("nil strategy should return the input unchanged")
	}
	if first == nil || first.RowIndex != -1 {
		t.Fatalf("nil strategy error = %+v", first)
	}
}

type staticPrices struct {
	prices map[string]float64
	keys   map[string]string
}

func (s staticPrices) AccessoryPrice(key string) (float64, bool) {
	p, ok := s.prices[key]
	return p, ok
}

func (s staticPrices) AccessoryPriceKeys() map[string]string { return s.keys }

func testPrices() staticPrices {
	return staticPrices{
		prices: map[string]float64{
			"winderHD": 30, "motorStandard": 250, "remote1ch": 90, "remote16ch": 120,
			"chargerStandard": 50, "cord3m": 20, "dualBracket": 40, "comboBracket": 45,
			"slimBracket": 35, "winderHDCost": 12,
		},
		keys: map[string]string{
			"winder": "winderHD", "motor": "motorStandard", "remote": "remoteStandard",
			"remote-1ch": "remote1ch", "remote-16ch": "remote16ch", "charger": "chargerStandard",
			"cord": "cord3m", "dual": "dualBracket", "dual-combo": "comboBracket", "slim": "slimBracket",
		},
	}
}

func TestAccessorySaleAndCost(t *testing.T) {
	calc := NewCalculator(testPrices(), nil)
	rb := product.NewRollerBlind(nil, nil)
	items := []quote.Item{
		{Winder: quote.WinderHD, Dual: quote.DualBracket},
		{Winder: quote.WinderHD, Dual: quote.DualBracket},
		{Motor: quote.MotorOn},
	}

	nearlyEqual(t, "winder sale", calc.AccessorySalePrice(rb, product.AccWinder, product.AccessoryInput{Items: items}), 60)
	nearlyEqual(t, "dual sale", calc.AccessorySalePrice(rb, product.AccDual, product.AccessoryInput{Items: items}), 40)
	nearlyEqual(t, "winder cost", calc.AccessoryCost(rb, product.AccWinder, "winderHDCost", product.AccessoryInput{Items: items}), 24)
	// remoteStandard has no unit price in this table.
	nearlyEqual(t, "remote sale", calc.AccessorySalePrice(rb, product.AccRemote, product.AccessoryInput{Count: 2}), 0)
	nearlyEqual(t, "no cost key", calc.AccessoryCost(rb, product.AccWinder, "", product.AccessoryInput{Items: items}), 0)
	nearlyEqual(t, "nil strategy", calc.AccessorySalePrice(nil, product.AccWinder, product.AccessoryInput{Count: 1}), 0)
}

func TestF1_DiscountRoundTrip(t *testing.T) {
	calc := NewCalculator(testPrices(), nil)
	res := calc.F1(product.NewRollerBlind(nil, nil), F1Input{RetailTotal: 1000, DiscountPercentage: 10})

	nearlyEqual(t, "componentTotal", res.Totals.ComponentTotal, 0)
	nearlyEqual(t, "rbPrice", res.Totals.DiscountedRetail, 900)
	nearlyEqual(t, "subtotal", res.Totals.Subtotal, 900)
	nearlyEqual(t, "gst", res.Totals.GST, 90)
	nearlyEqual(t, "final", res.Totals.FinalTotal, 990)
	if res.StaleDistribution {
		t.Fatalf("no distribution was set")
	}
}

func TestF1_DerivedDistributions(t *testing.T) {
	calc := NewCalculator(testPrices(), nil)
	items := []quote.Item{
		{Winder: quote.WinderHD, Dual: quote.DualBracket},
		{Motor: quote.MotorOn, Dual: quote.DualBracket},
		{Motor: quote.MotorOn},
	}

	res := calc.F1(product.NewRollerBlind(nil, nil), F1Input{
		Items:        items,
		RemoteCount:  3,
		ChargerCount: 1,
		CordCount:    2,
		Remote1chQty: intp(1),
	})

	want := map[product.Accessory]struct {
		qty   int
		price float64
	}{
		product.AccWinder:     {1, 30},
		product.AccMotor:      {2, 500},
		product.AccRemote1ch:  {1, 90},
		product.AccRemote16ch: {2, 240},
		product.AccCharger:    {1, 50},
		product.AccCord:       {2, 40},
		product.AccDualCombo:  {1, 45},
		product.AccSlim:       {0, 0},
	}
	for _, l := range res.Breakdown {
		w, ok := want[l.Accessory]
		if !ok {
			t.Fatalf("unexpected breakdown line %s", l.Accessory)
		}
		if l.Qty != w.qty {
			t.Fatalf("%s qty = %d, want %d", l.Accessory, l.Qty, w.qty)
		}
		nearlyEqual(t, string(l.Accessory), l.Price, w.price)
	}
	nearlyEqual(t, "componentTotal", res.Totals.ComponentTotal, 30+500+90+240+50+40+45)
}

func TestF1_StaleExplicitDistribution(t *testing.T) {
	calc := NewCalculator(testPrices(), nil)
	res := calc.F1(product.NewRollerBlind(nil, nil), F1Input{
		RemoteCount:   4,
		Remote1chQty:  intp(1),
		Remote16chQty: intp(1),
	})
	if !res.StaleDistribution {
		t.Fatalf("explicit split of 2 against a total of 4 should be stale")
	}
	for _, l := range res.Breakdown {
		if l.Accessory == product.AccRemote16ch && l.Qty != 1 {
			t.Fatalf("explicit remote16ch qty should be kept, got %d", l.Qty)
		}
	}
}

func TestF2_Formulas(t *testing.T) {
	items := []quote.Item{
		{LinePrice: floatp(400)},
		{LinePrice: floatp(600)},
		{},
	}
	f1 := F1Result{Totals: F1Totals{DiscountedRetail: 900, FinalTotal: 990}}
	rates := F2Rates{Wifi: 100, Delivery: 50, Install: 20, Removal: 10}

	res := F2(F2Input{
		Items:       items,
		RetailTotal: 1000,
		State: quote.F2State{
			WifiQty: 1, DeliveryQty: 1, InstallQty: 3, RemovalQty: 2,
			Discount: 100, InstallFeeExcluded: true,
		},
	}, rates, f1)

	nearlyEqual(t, "wifiSum", res.WifiSum, 100)
	nearlyEqual(t, "installFee", res.InstallFee, 60)
	nearlyEqual(t, "surchargeFee", res.SurchargeFee, 100+50+20)
	nearlyEqual(t, "disRbPrice", res.DisRbPrice, 900)
	nearlyEqual(t, "sumPrice", res.SumPrice, 1070)
	nearlyEqual(t, "rbProfit", res.RbProfit, 0)
	nearlyEqual(t, "singleprofit", res.SingleProfit, 0)
	nearlyEqual(t, "firstRbPrice", res.FirstRbPrice, 400)
	nearlyEqual(t, "sumProfit", res.SumProfit, 80)
	nearlyEqual(t, "gst", res.GST, 107)
	nearlyEqual(t, "netProfit", res.NetProfit, -27)
}

func TestF2_MulTimesAndNoPricedItems(t *testing.T) {
	f1 := F1Result{Totals: F1Totals{DiscountedRetail: 500}}
	res := F2(F2Input{RetailTotal: 1000, State: quote.F2State{MulTimes: 0}}, F2Rates{}, f1)

	nearlyEqual(t, "disRbPrice", res.DisRbPrice, 1000)
	nearlyEqual(t, "rbProfit", res.RbProfit, 500)
	nearlyEqual(t, "singleprofit", res.SingleProfit, 0)

	res = F2(F2Input{RetailTotal: 1000, State: quote.F2State{MulTimes: 1.5}}, F2Rates{}, f1)
	nearlyEqual(t, "disRbPrice x1.5", res.DisRbPrice, 1500)
}

func TestSummaries_FromState(t *testing.T) {
	calc := NewCalculator(testPrices(), nil)
	q := quoteWith(quote.Item{Width: intp(1000), Height: intp(1200), FabricType: "B2", LinePrice: floatp(1000)})
	q = q.WithSummary(quote.Summary{TotalSum: 1000})
	ui := quote.DefaultUIState()
	ui.F1.DiscountPercentage = 10

	f1, f2 := calc.Summaries(product.NewRollerBlind(nil, nil), q, ui, F2Rates{})
	nearlyEqual(t, "f1 final", f1.Totals.FinalTotal, 990)
	nearlyEqual(t, "f2 rbProfit", f2.RbProfit, 100)
	nearlyEqual(t, "f2 singleprofit", f2.SingleProfit, 100)
}
