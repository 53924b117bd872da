// Package timeline loads Lua scripts that describe a co-ownership timeline
// and turns them into ledger events.
//
// A script builds a Timeline and returns it:
//
//	local t = Timeline.new("castor", { indexation_rate = 2 })
//	t:purchase{ date = "2026-02-01", copro = "Castor", participants = { ... } }
//	t:newcomer{ date = "2027-01-20", from = "Buyer A", lot = 3, buyer = { ... } }
//	t:reveal{ date = "2027-06-01", lot = 10, price = 120000, buyer = { ... } }
//	t:settle{ date = "2028-01-01", seller = "Buyer A", buyer = "Emma", lot = 3 }
//	t:loan{ date = "2028-02-01", amount = 50000, interest_rate = 4, duration_years = 10 }
//	t:exit{ date = "2029-01-01", participant = "Buyer B", lot = 2, price = 200000 }
//	return t
//
// Step tables use the JSON field names of the ledger model. Dates are
// written as YYYY-MM-DD. Prices a step leaves out are computed with the
// portage formulas on the state reached so far.
package timeline
