package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vkoritsas/go-paygate-bot/internal/domain"
	"github.com/vkoritsas/go-paygate-bot/internal/services"
)

// printer formats money amounts with locale-aware digit grouping for the
// income report.
var printer = message.NewPrinter(language.English)

const startText = "Welcome to Payment Bot 👋\n\n" +
	"Choose what you want to unlock:\n" +
	"• 💎 VIP Channel – premium content\n" +
	"• 🕶 Dark Channel – ultra premium\n" +
	"• 🔥 Both – combo offer with 30% OFF\n\n" +
	"After you choose a plan, I'll show payment options."

const proofReceivedText = "✅ Payment proof received. We'll verify and send access after approval."

const textProofWarning = "⚠️ Please send a screenshot/photo or document of your payment only. " +
	"Plain text messages cannot be verified."

const choosePlanFirstText = "First choose a plan with /start before selecting payment method."

// deadlineLayout renders the payment window end the way users see it,
// e.g. "02 Mar 2026, 05:30 PM IST".
const deadlineLayout = "02 Jan 2006, 03:04 PM IST"

func startKeyboard(overlay domain.ConfigOverlay) tgbotapi.InlineKeyboardMarkup {
	vip, _ := services.PriceFor(overlay, domain.PlanVIP, domain.MethodUPI)
	dark, _ := services.PriceFor(overlay, domain.PlanDark, domain.MethodUPI)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("💎 VIP Channel (₹%.0f)", vip), "plan_vip"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🕶 Dark Channel (₹%.0f)", dark), "plan_dark"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔥 Both (30% OFF)", "plan_both"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🆘 Help", "plan_help"),
		),
	)
}

func methodKeyboard(overlay domain.ConfigOverlay, plan domain.Plan) tgbotapi.InlineKeyboardMarkup {
	upi, _ := services.PriceFor(overlay, plan, domain.MethodUPI)
	crypto, _ := services.PriceFor(overlay, plan, domain.MethodCrypto)
	remit, _ := services.PriceFor(overlay, plan, domain.MethodRemitly)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("💳 UPI (₹%.0f)", upi), "pay_upi"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🪙 Crypto ($%.0f)", crypto), "pay_crypto"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🌍 Remitly (₹%.0f)", remit), "pay_remitly"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅ Back", "back_start"),
		),
	)
}

func reviewKeyboard(paymentID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "approve:"+paymentID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Decline", "decline:"+paymentID),
		),
	)
}

func deliveryKeyboard(paymentID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Send access link to user", "sendlink:"+paymentID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Decline", "decline:"+paymentID),
		),
	)
}

func helpText(contact string) string {
	// Escape underscores so Markdown does not italicize bot usernames.
	safe := strings.ReplaceAll(contact, "_", "\\_")
	return "🆘 *Help & Support*\n\nFor assistance, contact: " + safe + "\n\nType /start anytime to restart."
}

func paymentInstructions(plan domain.Plan, method domain.Method, amount float64, disp domain.PaymentDisplay, deadline time.Time) string {
	label := services.PlanLabel(plan)
	due := deadline.Format(deadlineLayout)

	switch method {
	case domain.MethodUPI:
		return fmt.Sprintf(
			"🧾 *UPI Payment Instructions*\n\n"+
				"Plan: *%s*\n"+
				"Amount: *₹%.0f*\n\n"+
				"UPI ID: `%s`\n\n"+
				"1️⃣ Open any UPI app (GPay, PhonePe, Paytm, etc.)\n"+
				"2️⃣ Choose *Scan & Pay* or *Pay UPI ID*\n"+
				"3️⃣ Either scan the QR image below or pay directly to the UPI ID above.\n"+
				"4️⃣ Enter the amount shown above and confirm.\n\n"+
				"⏳ Time limit: until *%s*\n\n"+
				"After payment send screenshot/photo here plus optional UTR.",
			label, amount, disp.UPIID, due)
	case domain.MethodCrypto:
		return fmt.Sprintf(
			"🪙 *Crypto Payment Instructions*\n\n"+
				"Plan: *%s*\n"+
				"Amount: *$%.0f*\n\n"+
				"Network: `%s`\n"+
				"Address: `%s`\n\n"+
				"⏳ Time limit: until *%s*\n\n"+
				"After payment send screenshot/photo + TXID here.",
			label, amount, disp.CryptoNetwork, disp.CryptoAddress, due)
	default:
		return fmt.Sprintf(
			"🌍 *Remitly Payment Instructions*\n\n"+
				"Plan: *%s*\n"+
				"Amount: *₹%.0f*\n\n"+
				"Extra info: %s\n\n"+
				"⏳ Time limit: until *%s*\n\n"+
				"After payment send screenshot/photo here.",
			label, amount, disp.RemitlyInfo, due)
	}
}

func reviewText(p *domain.PendingPayment) string {
	username := p.Username
	if username == "" {
		username = "NoUsername"
	}
	return fmt.Sprintf(
		"💰 New payment request\nFrom: @%s (ID: %d)\nPlan: %s\nMethod: %s\nAmount: %.2f %s\nPayment ID: %s\n\nCheck forwarded message and choose:",
		username, p.UserID, services.PlanLabel(p.Plan), strings.ToUpper(string(p.Method)), p.Amount, p.Currency, p.ID)
}

func pendingText(list []domain.PendingPayment) string {
	if len(list) == 0 {
		return "No pending payment requests."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🕒 *Pending payment requests: %d*\n", len(list))
	for _, p := range list {
		username := p.Username
		if username == "" {
			username = "NoUsername"
		}
		fmt.Fprintf(&b, "\n• @%s (ID: %d)\n  %s via %s, %.2f %s\n  Payment ID: `%s`",
			username, p.UserID, services.PlanLabel(p.Plan), strings.ToUpper(string(p.Method)),
			p.Amount, p.Currency, p.ID)
	}
	return b.String()
}

// auditTimeLayout renders delivery times in the webhook report, IST.
const auditTimeLayout = "02 Jan 15:04"

func webhookAuditText(stats services.WebhookStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📜 *Webhook deliveries*\nTotal: %d (captured: %d)\n", stats.Total, stats.Captured)
	if len(stats.Recent) == 0 {
		b.WriteString("\nNo deliveries recorded yet.")
		return b.String()
	}
	b.WriteString("\nMost recent:")
	for _, ev := range stats.Recent {
		event := ev.Event
		if event == "" {
			event = "(unparsed)"
		}
		fmt.Fprintf(&b, "\n• %s — %s", ev.ReceivedAt.In(services.IST).Format(auditTimeLayout), event)
		if ev.UserID != 0 {
			fmt.Fprintf(&b, " (user %d)", ev.UserID)
		}
	}
	return b.String()
}

func incomeText(rep services.IncomeReport) string {
	return printer.Sprintf(
		"📊 *Income Insights – %s*\n\n"+
			"Total orders: *%d*\n"+
			"INR collected: *₹%.2f*\n"+
			"USD collected (crypto): *$%.2f*\n\n"+
			"_Note: stats persist between restarts._",
		rep.Label, rep.Orders, rep.TotalINR, rep.TotalUSD)
}
