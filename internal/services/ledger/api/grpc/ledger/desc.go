package ledger

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "goldtoken.ledger.v1.LedgerService"

// LedgerServiceServer is the server API for LedgerService.
type LedgerServiceServer interface {
	Transfer(context.Context, *TransferRequest) (*CommandResponse, error)
	TransferFrom(context.Context, *TransferFromRequest) (*CommandResponse, error)
	Approve(context.Context, *AllowanceRequest) (*CommandResponse, error)
	IncreaseAllowance(context.Context, *AllowanceRequest) (*CommandResponse, error)
	DecreaseAllowance(context.Context, *AllowanceRequest) (*CommandResponse, error)
	Mint(context.Context, *MintRequest) (*CommandResponse, error)
	Burn(context.Context, *BurnRequest) (*CommandResponse, error)
	Reclaim(context.Context, *Empty) (*CommandResponse, error)
	ProposeOwner(context.Context, *AccountRequest) (*CommandResponse, error)
	AcceptOwnership(context.Context, *Empty) (*CommandResponse, error)
	RevokeProposal(context.Context, *Empty) (*CommandResponse, error)
	SetSystemWallet(context.Context, *AccountRequest) (*CommandResponse, error)
	AddMinter(context.Context, *AccountRequest) (*CommandResponse, error)
	RemoveMinter(context.Context, *AccountRequest) (*CommandResponse, error)
	SetComplianceAuthority(context.Context, *AccountRequest) (*CommandResponse, error)
	SetComplianceStatus(context.Context, *SetComplianceStatusRequest) (*CommandResponse, error)
	Pause(context.Context, *Empty) (*CommandResponse, error)
	Unpause(context.Context, *Empty) (*CommandResponse, error)
	SetFeeSchedule(context.Context, *SetFeeScheduleRequest) (*CommandResponse, error)
	ChangeTokenName(context.Context, *ChangeTokenNameRequest) (*CommandResponse, error)
	SetPublicDocument(context.Context, *TextRequest) (*CommandResponse, error)
	SetContactInformation(context.Context, *TextRequest) (*CommandResponse, error)
	ApproveSuccessor(context.Context, *AccountRequest) (*CommandResponse, error)
	DelegateBalance(context.Context, *DelegateBalanceRequest) (*CommandResponse, error)
	DelegateLedger(context.Context, *Empty) (*CommandResponse, error)

	BalanceOf(context.Context, *AccountRequest) (*AmountResponse, error)
	Allowance(context.Context, *AllowanceQuery) (*AmountResponse, error)
	TotalSupply(context.Context, *Empty) (*TotalSupplyResponse, error)
	TokenInfo(context.Context, *Empty) (*TokenInfoResponse, error)
	Roles(context.Context, *Empty) (*RolesResponse, error)
	Lifecycle(context.Context, *Empty) (*LifecycleResponse, error)
	ComplianceStatus(context.Context, *AccountRequest) (*ComplianceStatusResponse, error)
	CheckTransferEligible(context.Context, *EligibilityRequest) (*EligibilityResponse, error)
	ComputeFee(context.Context, *ComputeFeeRequest) (*ComputeFeeResponse, error)
	FeeSchedule(context.Context, *Empty) (*FeeScheduleResponse, error)
	QueryTrace(context.Context, *QueryTraceRequest) (*QueryTraceResponse, error)
	GetTraceRecord(context.Context, *GetTraceRecordRequest) (*TraceRecord, error)
	ListMigrations(context.Context, *AccountRequest) (*ListMigrationsResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)
	VerifyLedger(context.Context, *Empty) (*VerifyLedgerResponse, error)
}

// RegisterLedgerServiceServer registers srv on s.
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

// unary builds the method descriptor for one RPC, decoding into a fresh
// Req and routing through the server interceptor chain.
func unary[Req, Resp any](name string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(LedgerServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LedgerService_ServiceDesc is the grpc.ServiceDesc for LedgerService.
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Transfer", LedgerServiceServer.Transfer),
		unary("TransferFrom", LedgerServiceServer.TransferFrom),
		unary("Approve", LedgerServiceServer.Approve),
		unary("IncreaseAllowance", LedgerServiceServer.IncreaseAllowance),
		unary("DecreaseAllowance", LedgerServiceServer.DecreaseAllowance),
		unary("Mint", LedgerServiceServer.Mint),
		unary("Burn", LedgerServiceServer.Burn),
		unary("Reclaim", LedgerServiceServer.Reclaim),
		unary("ProposeOwner", LedgerServiceServer.ProposeOwner),
		unary("AcceptOwnership", LedgerServiceServer.AcceptOwnership),
		unary("RevokeProposal", LedgerServiceServer.RevokeProposal),
		unary("SetSystemWallet", LedgerServiceServer.SetSystemWallet),
		unary("AddMinter", LedgerServiceServer.AddMinter),
		unary("RemoveMinter", LedgerServiceServer.RemoveMinter),
		unary("SetComplianceAuthority", LedgerServiceServer.SetComplianceAuthority),
		unary("SetComplianceStatus", LedgerServiceServer.SetComplianceStatus),
		unary("Pause", LedgerServiceServer.Pause),
		unary("Unpause", LedgerServiceServer.Unpause),
		unary("SetFeeSchedule", LedgerServiceServer.SetFeeSchedule),
		unary("ChangeTokenName", LedgerServiceServer.ChangeTokenName),
		unary("SetPublicDocument", LedgerServiceServer.SetPublicDocument),
		unary("SetContactInformation", LedgerServiceServer.SetContactInformation),
		unary("ApproveSuccessor", LedgerServiceServer.ApproveSuccessor),
		unary("DelegateBalance", LedgerServiceServer.DelegateBalance),
		unary("DelegateLedger", LedgerServiceServer.DelegateLedger),
		unary("BalanceOf", LedgerServiceServer.BalanceOf),
		unary("Allowance", LedgerServiceServer.Allowance),
		unary("TotalSupply", LedgerServiceServer.TotalSupply),
		unary("TokenInfo", LedgerServiceServer.TokenInfo),
		unary("Roles", LedgerServiceServer.Roles),
		unary("Lifecycle", LedgerServiceServer.Lifecycle),
		unary("ComplianceStatus", LedgerServiceServer.ComplianceStatus),
		unary("CheckTransferEligible", LedgerServiceServer.CheckTransferEligible),
		unary("ComputeFee", LedgerServiceServer.ComputeFee),
		unary("FeeSchedule", LedgerServiceServer.FeeSchedule),
		unary("QueryTrace", LedgerServiceServer.QueryTrace),
		unary("GetTraceRecord", LedgerServiceServer.GetTraceRecord),
		unary("ListMigrations", LedgerServiceServer.ListMigrations),
		unary("ListEvents", LedgerServiceServer.ListEvents),
		unary("VerifyLedger", LedgerServiceServer.VerifyLedger),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "goldtoken/ledger/v1/ledger.json",
}
