package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "ledger.phase.title", "Phase %d (%s)")
	message.SetString(lang, "ledger.phase.period", "%s to %s, %.1f months")
	message.SetString(lang, "ledger.phase.period_open", "since %s, open")
	message.SetString(lang, "ledger.column.participant", "Participant")
	message.SetString(lang, "ledger.column.monthly", "Monthly")
	message.SetString(lang, "ledger.column.invested", "Total invested")
	message.SetString(lang, "ledger.column.received", "Total received")
	message.SetString(lang, "ledger.column.net", "Net position")
	message.SetString(lang, "ledger.copro.title", "Copropriété %s")
	message.SetString(lang, "ledger.copro.cash_reserve", "Cash reserve")
	message.SetString(lang, "ledger.copro.obligations", "Monthly obligations")
	message.SetString(lang, "ledger.copro.hidden_lots", "Hidden lots")
	message.SetString(lang, "ledger.available.title", "Available lots")
	message.SetString(lang, "ledger.available.none", "No lot is available.")
	message.SetString(lang, "ledger.column.lot", "Lot")
	message.SetString(lang, "ledger.column.source", "Source")
	message.SetString(lang, "ledger.column.seller", "Seller")
	message.SetString(lang, "ledger.column.surface", "Surface")
	message.SetString(lang, "ledger.column.price", "Price")
	message.SetString(lang, "ledger.surface.free", "%.0f m² (free)")
	message.SetString(lang, "ledger.surface.imposed", "%.0f m²")
}
