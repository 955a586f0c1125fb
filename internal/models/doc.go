// Package models defines the data transfer objects exchanged with the song backend.
//
//   - [Song] : a track that can be searched, downloaded and played through the embed widget
//   - [Profile] : the signed-in account with its [Tier]
//   - [QuotaSnapshot] : remaining daily downloads against a tier-dependent ceiling
//
// Quota totals may be the [Unlimited] sentinel; the wire format accepts either a number
// or the string "unlimited".
package models
