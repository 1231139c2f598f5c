package services

import (
	"time"

	"github.com/vkoritsas/go-paygate-bot/internal/config"
	"github.com/vkoritsas/go-paygate-bot/internal/domain"
)

// IST is the gateway's home timezone; ledger timestamps carry this explicit
// offset rather than being naive or silently UTC.
var IST = time.FixedZone("IST", 5*3600+30*60)

// defaultPrices is the compiled-in price table. The persisted config overlay
// takes precedence per plan once an admin has changed a price.
var defaultPrices = map[domain.Plan]domain.PlanPrices{
	domain.PlanVIP:  {UPIINR: 499, CryptoUSD: 6, RemitINR: 499},
	domain.PlanDark: {UPIINR: 1999, CryptoUSD: 24, RemitINR: 1999},
	domain.PlanBoth: {UPIINR: 1749, CryptoUSD: 21, RemitINR: 1749},
}

// PlanLabel returns the human-facing name of a plan.
func PlanLabel(p domain.Plan) string {
	switch p {
	case domain.PlanVIP:
		return "VIP Channel"
	case domain.PlanDark:
		return "Dark Channel"
	case domain.PlanBoth:
		return "VIP + Dark (Combo 30% OFF)"
	}
	return string(p)
}

// PriceFor resolves the amount and currency a plan costs via a method,
// preferring the overlay's price table over the compiled-in defaults.
// Unknown plan/method combinations yield (0, "").
func PriceFor(overlay domain.ConfigOverlay, plan domain.Plan, method domain.Method) (float64, string) {
	prices, ok := overlay.Prices[plan]
	if !ok {
		prices, ok = defaultPrices[plan]
		if !ok {
			return 0, ""
		}
	}
	switch method {
	case domain.MethodUPI:
		return prices.UPIINR, "INR"
	case domain.MethodCrypto:
		return prices.CryptoUSD, "USD"
	case domain.MethodRemitly:
		return prices.RemitINR, "INR"
	}
	return 0, ""
}

// pricesFor returns the effective price table entry for a plan, falling back
// to the defaults when no override exists.
func pricesFor(overlay domain.ConfigOverlay, plan domain.Plan) domain.PlanPrices {
	if p, ok := overlay.Prices[plan]; ok {
		return p
	}
	return defaultPrices[plan]
}

// ChannelID resolves a channel tag to its numeric chat identifier: the
// overlay wins, the compiled-in config is the fallback, zero means the
// channel is not configured.
func ChannelID(cfg config.Config, overlay domain.ConfigOverlay, tag domain.ChannelTag) int64 {
	if id, ok := overlay.Channels[tag]; ok && id != 0 {
		return id
	}
	switch tag {
	case domain.TagVIP:
		return cfg.Telegram.VIPChannelID
	case domain.TagDark:
		return cfg.Telegram.DarkChannelID
	}
	return 0
}

// Display resolves the effective payment display strings (overlay over
// compiled-in defaults), used when rendering payment instructions.
func Display(cfg config.Config, overlay domain.ConfigOverlay) domain.PaymentDisplay {
	d := domain.PaymentDisplay{
		UPIID:         cfg.Payment.UPIID,
		UPIQRURL:      cfg.Payment.UPIQRURL,
		CryptoAddress: cfg.Payment.CryptoAddress,
		CryptoNetwork: cfg.Payment.CryptoNetwork,
		RemitlyInfo:   cfg.Payment.RemitlyInfo,
	}
	if v := overlay.Payment.UPIID; v != "" {
		d.UPIID = v
	}
	if v := overlay.Payment.UPIQRURL; v != "" {
		d.UPIQRURL = v
	}
	if v := overlay.Payment.CryptoAddress; v != "" {
		d.CryptoAddress = v
	}
	if v := overlay.Payment.CryptoNetwork; v != "" {
		d.CryptoNetwork = v
	}
	if v := overlay.Payment.RemitlyInfo; v != "" {
		d.RemitlyInfo = v
	}
	return d
}
