package model

type Scheme string

var (
	SCHEME_NEFT Scheme = "NEFT"
	SCHEME_RTGS Scheme = "RTGS"
)

// NEFT and RTGS rows are structurally identical but settle on different
// rails, so each scheme keeps its own tables.
func (s Scheme) TransactionTable() string {
	if s == SCHEME_RTGS {
		return "rtgs_transactions"
	}
	return "neft_transactions"
}

func (s Scheme) BatchTable() string {
	if s == SCHEME_RTGS {
		return "rtgs_batches"
	}
	return "neft_batches"
}
