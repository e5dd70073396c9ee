package ledger

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls LedgerService using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "Transfer", in, opts)
}

func (c *Client) TransferFrom(ctx context.Context, in *TransferFromRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "TransferFrom", in, opts)
}

func (c *Client) Approve(ctx context.Context, in *AllowanceRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "Approve", in, opts)
}

func (c *Client) IncreaseAllowance(ctx context.Context, in *AllowanceRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "IncreaseAllowance", in, opts)
}

func (c *Client) DecreaseAllowance(ctx context.Context, in *AllowanceRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "DecreaseAllowance", in, opts)
}

func (c *Client) Mint(ctx context.Context, in *MintRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "Mint", in, opts)
}

func (c *Client) Burn(ctx context.Context, in *BurnRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "Burn", in, opts)
}

func (c *Client) Reclaim(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "Reclaim", in, opts)
}

func (c *Client) ProposeOwner(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "ProposeOwner", in, opts)
}

func (c *Client) AcceptOwnership(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "AcceptOwnership", in, opts)
}

func (c *Client) RevokeProposal(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "RevokeProposal", in, opts)
}

func (c *Client) SetSystemWallet(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "SetSystemWallet", in, opts)
}

func (c *Client) AddMinter(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "AddMinter", in, opts)
}

func (c *Client) RemoveMinter(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "RemoveMinter", in, opts)
}

func (c *Client) SetComplianceAuthority(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "SetComplianceAuthority", in, opts)
}

func (c *Client) SetComplianceStatus(ctx context.Context, in *SetComplianceStatusRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "SetComplianceStatus", in, opts)
}

func (c *Client) Pause(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "Pause", in, opts)
}

func (c *Client) Unpause(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "Unpause", in, opts)
}

func (c *Client) SetFeeSchedule(ctx context.Context, in *SetFeeScheduleRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "SetFeeSchedule", in, opts)
}

func (c *Client) ChangeTokenName(ctx context.Context, in *ChangeTokenNameRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "ChangeTokenName", in, opts)
}

func (c *Client) SetPublicDocument(ctx context.Context, in *TextRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "SetPublicDocument", in, opts)
}

func (c *Client) SetContactInformation(ctx context.Context, in *TextRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "SetContactInformation", in, opts)
}

func (c *Client) ApproveSuccessor(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "ApproveSuccessor", in, opts)
}

func (c *Client) DelegateBalance(ctx context.Context, in *DelegateBalanceRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "DelegateBalance", in, opts)
}

func (c *Client) DelegateLedger(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c, "DelegateLedger", in, opts)
}

func (c *Client) BalanceOf(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*AmountResponse, error) {
	return invoke[AmountResponse](ctx, c, "BalanceOf", in, opts)
}

func (c *Client) Allowance(ctx context.Context, in *AllowanceQuery, opts ...grpc.CallOption) (*AmountResponse, error) {
	return invoke[AmountResponse](ctx, c, "Allowance", in, opts)
}

func (c *Client) TotalSupply(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*TotalSupplyResponse, error) {
	return invoke[TotalSupplyResponse](ctx, c, "TotalSupply", in, opts)
}

func (c *Client) TokenInfo(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*TokenInfoResponse, error) {
	return invoke[TokenInfoResponse](ctx, c, "TokenInfo", in, opts)
}

func (c *Client) Roles(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*RolesResponse, error) {
	return invoke[RolesResponse](ctx, c, "Roles", in, opts)
}

func (c *Client) Lifecycle(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*LifecycleResponse, error) {
	return invoke[LifecycleResponse](ctx, c, "Lifecycle", in, opts)
}

func (c *Client) ComplianceStatus(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*ComplianceStatusResponse, error) {
	return invoke[ComplianceStatusResponse](ctx, c, "ComplianceStatus", in, opts)
}

func (c *Client) CheckTransferEligible(ctx context.Context, in *EligibilityRequest, opts ...grpc.CallOption) (*EligibilityResponse, error) {
	return invoke[EligibilityResponse](ctx, c, "CheckTransferEligible", in, opts)
}

func (c *Client) ComputeFee(ctx context.Context, in *ComputeFeeRequest, opts ...grpc.CallOption) (*ComputeFeeResponse, error) {
	return invoke[ComputeFeeResponse](ctx, c, "ComputeFee", in, opts)
}

func (c *Client) FeeSchedule(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*FeeScheduleResponse, error) {
	return invoke[FeeScheduleResponse](ctx, c, "FeeSchedule", in, opts)
}

func (c *Client) QueryTrace(ctx context.Context, in *QueryTraceRequest, opts ...grpc.CallOption) (*QueryTraceResponse, error) {
	return invoke[QueryTraceResponse](ctx, c, "QueryTrace", in, opts)
}

func (c *Client) GetTraceRecord(ctx context.Context, in *GetTraceRecordRequest, opts ...grpc.CallOption) (*TraceRecord, error) {
	return invoke[TraceRecord](ctx, c, "GetTraceRecord", in, opts)
}

func (c *Client) ListMigrations(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*ListMigrationsResponse, error) {
	return invoke[ListMigrationsResponse](ctx, c, "ListMigrations", in, opts)
}

func (c *Client) ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error) {
	return invoke[ListEventsResponse](ctx, c, "ListEvents", in, opts)
}

func (c *Client) VerifyLedger(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*VerifyLedgerResponse, error) {
	return invoke[VerifyLedgerResponse](ctx, c, "VerifyLedger", in, opts)
}
