// Package portage prices lots carried for a future buyer and splits the
// proceeds of copropriété sales.
//
// A founder who carries (porte) a lot recovers, at resale, the original price
// indexed over the holding period, the carrying costs paid meanwhile, part of
// the notary fees when resold inside the statutory window, and the
// renovation spent on the lot. Copropriété lots are priced pro rata of the
// surface chosen by the buyer.
package portage
