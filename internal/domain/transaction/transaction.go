package transaction

import "encoding/json"

type Status string

const (
	StatusFilled    Status = "FILLED"
	StatusCancelled Status = "CANCELLED"
)

type ActiveType string

const (
	ActiveTypeSendTokens ActiveType = "SEND_TOKENS"
	ActiveTypeSendEther  ActiveType = "SEND_ETHER"
	ActiveTypeAllowance  ActiveType = "ALLOWANCE"
)

// UnlimitedAmount marks an allowance that was set to the maximum value
// rather than a concrete token amount.
const UnlimitedAmount = "UNLIMITED"

// Record is a confirmed ledger event reshaped into a transaction entry.
// Identity is ID (the ledger transaction hash). Uniqueness is not enforced:
// a trade visible from both the maker and taker side of the history service
// appears twice. Fields the history service returns beyond the recognized
// set are preserved in Extra.
type Record struct {
	ID     string `json:"id"`
	Status Status `json:"status"`

	TransactionHash string `json:"transactionHash"`
	Maker           string `json:"maker,omitempty"`
	Taker           string `json:"taker,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// recognized event keys lifted into struct fields; everything else lands in
// Extra.
var recordKeys = map[string]struct{}{
	"id":              {},
	"status":          {},
	"transactionHash": {},
	"maker":           {},
	"taker":           {},
}

func (r *Record) UnmarshalJSON(data []byte) error {
	type alias Record
	var known alias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range recordKeys {
		delete(raw, k)
	}
	if len(raw) == 0 {
		raw = nil
	}

	*r = Record(known)
	r.Extra = raw
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	base, err := json.Marshal(alias(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}

	merged := make(map[string]json.RawMessage, len(r.Extra)+len(recordKeys))
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Active is a transaction that originated locally and has not yet been
// observed in confirmed history. The ID is the ledger transaction hash,
// known synchronously on broadcast acceptance.
type Active struct {
	ID     string     `json:"id"`
	Type   ActiveType `json:"type"`
	From   string     `json:"from,omitempty"`
	To     string     `json:"to,omitempty"`
	Amount string     `json:"amount"`
	Token  string     `json:"token,omitempty"`
}
