package pricing

import (
	"log/slog"

	"github.com/Simplici0/blinds/internal/logger"
	"github.com/Simplici0/blinds/internal/product"
	"github.com/Simplici0/blinds/internal/quote"
)

// GSTRate is applied to both the F1 subtotal and the F2 sale price.
const GSTRate = 0.10

// PriceSource supplies accessory unit prices and the accessory price keys.
type PriceSource interface {
	AccessoryPrice(key string) (float64, bool)
	AccessoryPriceKeys() map[string]string
}

// Calculator prices accessories and builds the F1 and F2 summaries.
type Calculator struct {
	prices PriceSource
	log    *slog.Logger
}

// NewCalculator returns a calculator reading unit prices from prices.
func NewCalculator(prices PriceSource, log *slog.Logger) *Calculator {
	if log == nil {
		log = logger.Discard()
	}
	return &Calculator{prices: prices, log: log}
}

// AccessorySalePrice prices an accessory at its sale unit price. A missing
// strategy, price key or unit price yields 0.
func (c *Calculator) AccessorySalePrice(s product.Strategy, a product.Accessory, in product.AccessoryInput) float64 {
	if s == nil {
		c.log.Error("accessory sale price without a product strategy", "accessory", a)
		return 0
	}
	key, ok := c.prices.AccessoryPriceKeys()[string(a)]
	if !ok || key == "" {
		c.log.Warn("no sale price key for accessory", "accessory", a)
		return 0
	}
	return c.priceWith(s, a, key, in)
}

// AccessoryCost prices an accessory at the unit price stored under costKey.
func (c *Calculator) AccessoryCost(s product.Strategy, a product.Accessory, costKey string, in product.AccessoryInput) float64 {
	if costKey == "" {
		c.log.Warn("accessory cost requested without a cost key", "accessory", a)
		return 0
	}
	if s == nil {
		c.log.Error("accessory cost without a product strategy", "accessory", a)
		return 0
	}
	return c.priceWith(s, a, costKey, in)
}

func (c *Calculator) priceWith(s product.Strategy, a product.Accessory, key string, in product.AccessoryInput) float64 {
	fn := s.AccessoryFuncs()[a]
	if fn == nil {
		c.log.Error("no price function for accessory", "product", s.Key(), "accessory", a)
		return 0
	}
	unit, _ := c.prices.AccessoryPrice(key)
	return fn(in, unit)
}

// F1Input is everything the cost summary depends on.
type F1Input struct {
	Items              []quote.Item
	RetailTotal        float64
	DiscountPercentage float64
	RemoteCount        int
	ChargerCount       int
	CordCount          int
	Remote1chQty       *int
	Remote16chQty      *int
	DualComboQty       *int
	DualSlimQty        *int
}

// F1InputFromState collects the F1 inputs from a snapshot.
func F1InputFromState(q *quote.QuoteData, ui *quote.UIState) F1Input {
	return F1Input{
		Items:              q.Items(),
		RetailTotal:        q.Current().Summary.TotalSum,
		DiscountPercentage: ui.F1.DiscountPercentage,
		RemoteCount:        ui.DriveRemoteCount,
		ChargerCount:       ui.DriveChargerCount,
		CordCount:          ui.DriveCordCount,
		Remote1chQty:       ui.F1.Remote1chQty,
		Remote16chQty:      ui.F1.Remote16chQty,
		DualComboQty:       ui.F1.DualComboQty,
		DualSlimQty:        ui.F1.DualSlimQty,
	}
}

// Line is one accessory row of the F1 breakdown.
type Line struct {
	Accessory product.Accessory `json:"accessory"`
	Qty       int               `json:"qty"`
	Price     float64           `json:"price"`
}

// F1Totals are the roll-up values of the cost summary.
type F1Totals struct {
	ComponentTotal     float64 `json:"componentTotal"`
	RetailTotal        float64 `json:"retailTotal"`
	DiscountPercentage float64 `json:"discountPercentage"`
	DiscountedRetail   float64 `json:"rbPrice"`
	Subtotal           float64 `json:"subTotal"`
	GST                float64 `json:"gst"`
	FinalTotal         float64 `json:"finalTotal"`
}

// F1Result groups the accessory breakdown and the totals. StaleDistribution is
// set when an explicit remote or dual split no longer adds up to its total.
type F1Result struct {
	Breakdown         []Line   `json:"breakdown"`
	Totals            F1Totals `json:"totals"`
	StaleDistribution bool     `json:"staleDistribution"`
}

// F1 computes the cost summary.
func (c *Calculator) F1(s product.Strategy, in F1Input) F1Result {
	winders := product.CountWhere(in.Items, product.HasHDWinder)
	motors := product.CountWhere(in.Items, product.HasMotor)
	pairs := product.DualPairs(in.Items)

	remote1ch := derefOr(in.Remote1chQty, 0)
	remote16ch := derefOr(in.Remote16chQty, in.RemoteCount-remote1ch)
	if remote16ch < 0 {
		remote16ch = 0
	}
	combo := derefOr(in.DualComboQty, pairs)
	slim := derefOr(in.DualSlimQty, 0)

	stale := false
	if (in.Remote1chQty != nil || in.Remote16chQty != nil) && remote1ch+remote16ch != in.RemoteCount {
		stale = true
	}
	if (in.DualComboQty != nil || in.DualSlimQty != nil) && combo+slim != pairs {
		stale = true
	}
	if stale {
		c.log.Warn("stored distribution no longer matches its total",
			"remote_total", in.RemoteCount, "remote_1ch", remote1ch, "remote_16ch", remote16ch,
			"dual_pairs", pairs, "dual_combo", combo, "dual_slim", slim)
	}

	quantities := []struct {
		acc product.Accessory
		qty int
	}{
		{product.AccWinder, winders},
		{product.AccMotor, motors},
		{product.AccRemote1ch, remote1ch},
		{product.AccRemote16ch, remote16ch},
		{product.AccCharger, in.ChargerCount},
		{product.AccCord, in.CordCount},
		{product.AccDualCombo, combo},
		{product.AccSlim, slim},
	}

	lines := make([]Line, 0, len(quantities))
	componentTotal := 0.0
	for _, q := range quantities {
		price := c.AccessorySalePrice(s, q.acc, product.AccessoryInput{Count: q.qty})
		lines = append(lines, Line{Accessory: q.acc, Qty: q.qty, Price: price})
		componentTotal += price
	}

	discounted := in.RetailTotal * (1 - in.DiscountPercentage/100.0)
	subtotal := componentTotal + discounted
	gst := subtotal * GSTRate

	return F1Result{
		Breakdown: lines,
		Totals: F1Totals{
			ComponentTotal:     componentTotal,
			RetailTotal:        in.RetailTotal,
			DiscountPercentage: in.DiscountPercentage,
			DiscountedRetail:   discounted,
			Subtotal:           subtotal,
			GST:                gst,
			FinalTotal:         subtotal + gst,
		},
		StaleDistribution: stale,
	}
}

// F2Rates are the surcharge unit prices.
type F2Rates struct {
	Wifi     float64 `json:"wifi"`
	Delivery float64 `json:"delivery"`
	Install  float64 `json:"install"`
	Removal  float64 `json:"removal"`
}

// F2Input is everything the profit summary depends on besides F1.
type F2Input struct {
	Items       []quote.Item
	RetailTotal float64
	State       quote.F2State
}

// F2Result is the profit summary.
type F2Result struct {
	TotalSumForRbTime float64 `json:"totalSumForRbTime"`
	WifiSum           float64 `json:"wifiSum"`
	DeliveryFee       float64 `json:"deliveryFee"`
	InstallFee        float64 `json:"installFee"`
	RemovalFee        float64 `json:"removalFee"`
	SurchargeFee      float64 `json:"surchargeFee"`
	DisRbPrice        float64 `json:"disRbPrice"`
	SumPrice          float64 `json:"sumPrice"`
	SingleProfit      float64 `json:"singleprofit"`
	FirstRbPrice      float64 `json:"firstRbPrice"`
	RbProfit          float64 `json:"rbProfit"`
	SumProfit         float64 `json:"sumProfit"`
	GST               float64 `json:"gst"`
	NetProfit         float64 `json:"netProfit"`
}

// F2 computes the profit summary against an F1 result built from the same
// retail total. The F1 and F2 discounts are applied independently.
func F2(in F2Input, rates F2Rates, f1 F1Result) F2Result {
	st := in.State
	wifi := st.WifiQty * rates.Wifi
	delivery := st.DeliveryQty * rates.Delivery
	install := st.InstallQty * rates.Install
	removal := st.RemovalQty * rates.Removal

	surcharge := wifi
	if !st.DeliveryFeeExcluded {
		surcharge += delivery
	}
	if !st.InstallFeeExcluded {
		surcharge += install
	}
	if !st.RemovalFeeExcluded {
		surcharge += removal
	}

	mul := st.MulTimes
	if mul == 0 {
		mul = 1
	}
	disRbPrice := in.RetailTotal*mul - st.Discount
	sumPrice := disRbPrice + surcharge

	firstRbPrice := 0.0
	priced := 0
	for _, it := range in.Items {
		if !it.HasPositivePrice() {
			continue
		}
		if priced == 0 {
			firstRbPrice = *it.LinePrice
		}
		priced++
	}

	rbProfit := disRbPrice - f1.Totals.DiscountedRetail
	single := 0.0
	if priced > 0 {
		single = rbProfit / float64(priced)
	}
	sumProfit := sumPrice - f1.Totals.FinalTotal
	gst := sumPrice * GSTRate

	return F2Result{
		TotalSumForRbTime: in.RetailTotal,
		WifiSum:           wifi,
		DeliveryFee:       delivery,
		InstallFee:        install,
		RemovalFee:        removal,
		SurchargeFee:      surcharge,
		DisRbPrice:        disRbPrice,
		SumPrice:          sumPrice,
		SingleProfit:      single,
		FirstRbPrice:      firstRbPrice,
		RbProfit:          rbProfit,
		SumProfit:         sumProfit,
		GST:               gst,
		NetProfit:         sumProfit - gst,
	}
}

// Summaries computes F1 and F2 from one snapshot.
func (c *Calculator) Summaries(s product.Strategy, q *quote.QuoteData, ui *quote.UIState, rates F2Rates) (F1Result, F2Result) {
	f1 := c.F1(s, F1InputFromState(q, ui))
	f2 := F2(F2Input{Items: q.Items(), RetailTotal: q.Current().Summary.TotalSum, State: ui.F2}, rates, f1)
	return f1, f2
}

func derefOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}
