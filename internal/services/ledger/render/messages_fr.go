package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.French

	message.SetString(lang, "ledger.phase.title", "Phase %d (%s)")
	message.SetString(lang, "ledger.phase.period", "du %s au %s, %.1f mois")
	message.SetString(lang, "ledger.phase.period_open", "depuis le %s, en cours")
	message.SetString(lang, "ledger.column.participant", "Participant")
	message.SetString(lang, "ledger.column.monthly", "Mensualité")
	message.SetString(lang, "ledger.column.invested", "Total investi")
	message.SetString(lang, "ledger.column.received", "Total reçu")
	message.SetString(lang, "ledger.column.net", "Position nette")
	message.SetString(lang, "ledger.copro.title", "Copropriété %s")
	message.SetString(lang, "ledger.copro.cash_reserve", "Trésorerie")
	message.SetString(lang, "ledger.copro.obligations", "Charges mensuelles")
	message.SetString(lang, "ledger.copro.hidden_lots", "Lots cachés")
	message.SetString(lang, "ledger.available.title", "Lots disponibles")
	message.SetString(lang, "ledger.available.none", "Aucun lot disponible.")
	message.SetString(lang, "ledger.column.lot", "Lot")
	message.SetString(lang, "ledger.column.source", "Origine")
	message.SetString(lang, "ledger.column.seller", "Vendeur")
	message.SetString(lang, "ledger.column.surface", "Surface")
	message.SetString(lang, "ledger.column.price", "Prix")
	message.SetString(lang, "ledger.surface.free", "%.0f m² (libre)")
	message.SetString(lang, "ledger.surface.imposed", "%.0f m²")
}
