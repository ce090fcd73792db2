package pricing

// Quote is the checkout price breakdown. All values are unrounded;
// presentation code formats them for display.
type Quote struct {
	PriceUSD       float64 `json:"price_usd"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalPriceUSD  float64 `json:"final_price_usd"`
	FinalPriceTL   float64 `json:"final_price_tl"`
	RateUsed       float64 `json:"rate_used"`
}

// Compute prices an order line: unit price times quantity, minus an optional
// percent discount, converted at the given USD to TL rate. It is a pure
// function and never fails for legal inputs; a zero rate yields a zero
// local price.
func Compute(unitPriceUSD float64, quantity int, discountPercent int, rate float64) Quote {
	priceUSD := unitPriceUSD * float64(quantity)
	discountAmount := priceUSD * float64(discountPercent) / 100
	finalUSD := priceUSD - discountAmount

	return Quote{
		PriceUSD:       priceUSD,
		DiscountAmount: discountAmount,
		FinalPriceUSD:  finalUSD,
		FinalPriceTL:   finalUSD * rate,
		RateUsed:       rate,
	}
}
