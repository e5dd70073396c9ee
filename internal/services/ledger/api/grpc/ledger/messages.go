package ledger

import "encoding/json"

// Addresses travel as 0x-prefixed hex and amounts as base-unit decimal
// strings. Both are parsed by the service so malformed values surface as
// INVALID_ARGUMENT rather than transport errors.

type Empty struct{}

type AccountRequest struct {
	Account string `json:"account"`
}

type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type TransferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type AllowanceRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type MintRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type BurnRequest struct {
	Amount    string `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

type SetComplianceStatusRequest struct {
	Account string `json:"account"`
	Status  string `json:"status"`
}

type FeeSchedule struct {
	RateBps uint64 `json:"rate_bps"`
	Fixed   string `json:"fixed"`
	Min     string `json:"min"`
	Max     string `json:"max"`
}

type FeeApplicability struct {
	Transfer bool `json:"transfer"`
	Mint     bool `json:"mint"`
	Burn     bool `json:"burn"`
	Migrate  bool `json:"migrate"`
}

type SetFeeScheduleRequest struct {
	Schedule FeeSchedule `json:"schedule"`
	// Applicability keeps the current selection when omitted.
	Applicability *FeeApplicability `json:"applicability,omitempty"`
}

type ChangeTokenNameRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type TextRequest struct {
	Text string `json:"text"`
}

type DelegateBalanceRequest struct {
	Account   string `json:"account"`
	Amount    string `json:"amount"`
	Successor string `json:"successor"`
}

// Event is a committed journal event.
type Event struct {
	Seq         uint64          `json:"seq"`
	Type        string          `json:"type"`
	Timestamp   string          `json:"timestamp"`
	ActorID     string          `json:"actor_id,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
	CommandType string          `json:"command_type,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	ChainHash   string          `json:"chain_hash,omitempty"`
}

// CommandResponse lists the events a command committed.
type CommandResponse struct {
	Events []Event `json:"events"`
}

type AmountResponse struct {
	Amount string `json:"amount"`
}

type AllowanceQuery struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

type TotalSupplyResponse struct {
	TotalSupply string `json:"total_supply"`
	// Ceiling is empty when supply is uncapped.
	Ceiling string `json:"ceiling,omitempty"`
}

type TokenInfoResponse struct {
	Name               string `json:"name"`
	Symbol             string `json:"symbol"`
	Decimals           uint8  `json:"decimals"`
	PublicDocument     string `json:"public_document"`
	ContactInformation string `json:"contact_information"`
	LedgerAddress      string `json:"ledger_address"`
}

type RolesResponse struct {
	Owner               string   `json:"owner"`
	PendingOwner        string   `json:"pending_owner,omitempty"`
	SystemWallet        string   `json:"system_wallet"`
	ComplianceAuthority string   `json:"compliance_authority"`
	Minters             []string `json:"minters"`
}

type LifecycleResponse struct {
	State             string `json:"state"`
	Paused            bool   `json:"paused"`
	Delegated         bool   `json:"delegated"`
	ApprovedSuccessor string `json:"approved_successor,omitempty"`
	LastSeq           uint64 `json:"last_seq"`
}

type ComplianceStatusResponse struct {
	Account string `json:"account"`
	Status  string `json:"status"`
}

type EligibilityRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// EligibilityResponse names the failing side when Eligible is false.
type EligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Side     string `json:"side,omitempty"`
}

type ComputeFeeRequest struct {
	Amount string `json:"amount"`
}

type ComputeFeeResponse struct {
	Net string `json:"net"`
	Fee string `json:"fee"`
}

type FeeScheduleResponse struct {
	Schedule      FeeSchedule      `json:"schedule"`
	Applicability FeeApplicability `json:"applicability"`
}

type TraceRecord struct {
	Seq               uint64 `json:"seq"`
	Kind              string `json:"kind"`
	From              string `json:"from"`
	To                string `json:"to"`
	Amount            string `json:"amount"`
	ExternalReference string `json:"external_reference,omitempty"`
	Successor         string `json:"successor,omitempty"`
	Timestamp         string `json:"timestamp"`
}

type QueryTraceRequest struct {
	// Account is optional; empty selects every account.
	Account string `json:"account,omitempty"`
	FromSeq uint64 `json:"from_seq,omitempty"`
	// ToSeq is inclusive; nil leaves the range open.
	ToSeq     *uint64 `json:"to_seq,omitempty"`
	Filter    string  `json:"filter,omitempty"`
	PageSize  int32   `json:"page_size,omitempty"`
	PageToken string  `json:"page_token,omitempty"`
}

type QueryTraceResponse struct {
	Records       []TraceRecord `json:"records"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type GetTraceRecordRequest struct {
	Seq uint64 `json:"seq"`
}

type MigrationRecord struct {
	Seq       uint64 `json:"seq"`
	Account   string `json:"account"`
	Amount    string `json:"amount"`
	Successor string `json:"successor"`
	Timestamp string `json:"timestamp"`
}

type ListMigrationsResponse struct {
	Migrations []MigrationRecord `json:"migrations"`
}

type ListEventsRequest struct {
	AfterSeq  uint64 `json:"after_seq,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type ListEventsResponse struct {
	Events        []Event `json:"events"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

type VerifyLedgerResponse struct {
	LastSeq uint64 `json:"last_seq"`
	// JournalVerified is false when the journal has no integrity chain.
	JournalVerified bool `json:"journal_verified"`
}
