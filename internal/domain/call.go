package domain

// CallPairing is an active two-party call. Order matters only for
// bookkeeping: Caller requested, Recipient accepted.
type CallPairing struct {
	Caller    UserID `json:"caller_id"`
	Recipient UserID `json:"recipient_id"`
}

// Has reports whether id is either side of the pairing.
func (p CallPairing) Has(id UserID) bool {
	return p.Caller == id || p.Recipient == id
}

// PartnerOf returns the other side of the pairing, or "" when id is
// not part of it.
func (p CallPairing) PartnerOf(id UserID) UserID {
	switch id {
	case p.Caller:
		return p.Recipient
	case p.Recipient:
		return p.Caller
	}
	return ""
}
