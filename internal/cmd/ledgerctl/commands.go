package ledgerctl

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	ledgergrpc "github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/ledger"
	"google.golang.org/grpc"
)

type session struct {
	ctx    context.Context
	client *ledgergrpc.Client
	opts   []grpc.CallOption
	units  units
}

type result struct {
	raw   any
	lines []string
}

type command struct {
	name    string
	usage   string
	summary string
	minArgs int
	// maxArgs of -1 means unbounded.
	maxArgs int
	run     func(*session, []string) (result, error)
}

type usageError struct {
	cmd command
	msg string
}

func (e *usageError) Error() string { return e.msg }

func (c command) checkArgs(args []string) error {
	if len(args) < c.minArgs || (c.maxArgs >= 0 && len(args) > c.maxArgs) {
		return &usageError{cmd: c, msg: fmt.Sprintf("%s: wrong number of arguments", c.name)}
	}
	return nil
}

var commands = map[string]command{}

func register(cmds ...command) {
	for _, c := range cmds {
		commands[c.name] = c
	}
}

func lookup(name string) (command, bool) {
	c, ok := commands[name]
	return c, ok
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: ledgerctl [flags] <command> [args]")
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %-20s %s\n", strings.TrimSpace(c.name+" "+c.usage), c.summary)
	}
}

func init() {
	register(
		// Balance movements.
		command{name: "transfer", usage: "TO AMOUNT", summary: "move tokens from the caller", minArgs: 2, maxArgs: 2,
			run: func(s *session, a []string) (result, error) {
				amt, err := s.units.toBase(a[1])
				if err != nil {
					return result{}, err
				}
				return s.events(s.client.Transfer(s.ctx, &ledgergrpc.TransferRequest{To: a[0], Amount: amt}, s.opts...))
			}},
		command{name: "transfer-from", usage: "FROM TO AMOUNT", summary: "spend an allowance", minArgs: 3, maxArgs: 3,
			run: func(s *session, a []string) (result, error) {
				amt, err := s.units.toBase(a[2])
				if err != nil {
					return result{}, err
				}
				return s.events(s.client.TransferFrom(s.ctx, &ledgergrpc.TransferFromRequest{From: a[0], To: a[1], Amount: amt}, s.opts...))
			}},
		allowanceCommand("approve", "set a spender allowance", (*ledgergrpc.Client).Approve),
		allowanceCommand("increase-allowance", "raise a spender allowance", (*ledgergrpc.Client).IncreaseAllowance),
		allowanceCommand("decrease-allowance", "lower a spender allowance", (*ledgergrpc.Client).DecreaseAllowance),
		command{name: "mint", usage: "TO AMOUNT", summary: "create supply (minter)", minArgs: 2, maxArgs: 2,
			run: func(s *session, a []string) (result, error) {
				amt, err := s.units.toBase(a[1])
				if err != nil {
					return result{}, err
				}
				return s.events(s.client.Mint(s.ctx, &ledgergrpc.MintRequest{To: a[0], Amount: amt}, s.opts...))
			}},
		command{name: "burn", usage: "AMOUNT [REFERENCE]", summary: "destroy the caller's tokens", minArgs: 1, maxArgs: 2,
			run: func(s *session, a []string) (result, error) {
				amt, err := s.units.toBase(a[0])
				if err != nil {
					return result{}, err
				}
				req := &ledgergrpc.BurnRequest{Amount: amt}
				if len(a) == 2 {
					req.Reference = a[1]
				}
				return s.events(s.client.Burn(s.ctx, req, s.opts...))
			}},
		emptyCommand("reclaim", "move the ledger's own balance to the owner (owner)", (*ledgergrpc.Client).Reclaim),

		// Roles.
		accountCommand("propose-owner", "name a new owner (owner)", (*ledgergrpc.Client).ProposeOwner),
		emptyCommand("accept-ownership", "claim a pending ownership proposal", (*ledgergrpc.Client).AcceptOwnership),
		emptyCommand("revoke-proposal", "withdraw a pending ownership proposal (owner)", (*ledgergrpc.Client).RevokeProposal),
		accountCommand("set-system-wallet", "change the fee wallet (owner)", (*ledgergrpc.Client).SetSystemWallet),
		accountCommand("add-minter", "grant the minter role (owner)", (*ledgergrpc.Client).AddMinter),
		accountCommand("remove-minter", "revoke the minter role (owner)", (*ledgergrpc.Client).RemoveMinter),
		accountCommand("set-authority", "change the compliance authority (owner)", (*ledgergrpc.Client).SetComplianceAuthority),

		// Compliance and lifecycle.
		command{name: "set-status", usage: "ACCOUNT unverified|eligible|restricted", summary: "set compliance status (authority)", minArgs: 2, maxArgs: 2,
			run: func(s *session, a []string) (result, error) {
				return s.events(s.client.SetComplianceStatus(s.ctx, &ledgergrpc.SetComplianceStatusRequest{Account: a[0], Status: a[1]}, s.opts...))
			}},
		emptyCommand("pause", "stop balance operations (owner)", (*ledgergrpc.Client).Pause),
		emptyCommand("unpause", "resume balance operations (owner)", (*ledgergrpc.Client).Unpause),

		// Fees and token metadata.
		command{name: "set-fees", usage: "RATE_BPS FIXED MIN MAX [transfer,mint,burn,migrate|none]", summary: "replace the fee schedule (owner)", minArgs: 4, maxArgs: 5,
			run: runSetFees},
		command{name: "rename", usage: "NAME SYMBOL", summary: "change token name and symbol (owner)", minArgs: 2, maxArgs: 2,
			run: func(s *session, a []string) (result, error) {
				return s.events(s.client.ChangeTokenName(s.ctx, &ledgergrpc.ChangeTokenNameRequest{Name: a[0], Symbol: a[1]}, s.opts...))
			}},
		textCommand("set-document", "DOCUMENT", "set the public document (owner)", (*ledgergrpc.Client).SetPublicDocument),
		textCommand("set-contact", "CONTACT", "set the contact information (owner)", (*ledgergrpc.Client).SetContactInformation),

		// Migration.
		accountCommand("approve-successor", "name the successor ledger (owner)", (*ledgergrpc.Client).ApproveSuccessor),
		command{name: "delegate-balance", usage: "ACCOUNT SUCCESSOR AMOUNT", summary: "migrate a balance to the successor", minArgs: 3, maxArgs: 3,
			run: func(s *session, a []string) (result, error) {
				amt, err := s.units.toBase(a[2])
				if err != nil {
					return result{}, err
				}
				return s.events(s.client.DelegateBalance(s.ctx, &ledgergrpc.DelegateBalanceRequest{Account: a[0], Successor: a[1], Amount: amt}, s.opts...))
			}},
		emptyCommand("delegate-ledger", "hand the ledger to the successor (owner, irreversible)", (*ledgergrpc.Client).DelegateLedger),
	)
	registerQueries()
}

func (s *session) events(resp *ledgergrpc.CommandResponse, err error) (result, error) {
	if err != nil {
		return result{}, err
	}
	lines := make([]string, 0, len(resp.Events))
	for _, evt := range resp.Events {
		lines = append(lines, fmt.Sprintf("seq=%d type=%s payload=%s", evt.Seq, evt.Type, s.renderPayload(evt.Payload)))
	}
	return result{raw: resp, lines: lines}, nil
}

// renderPayload rewrites the amount field of a payload in token units.
func (s *session) renderPayload(payload []byte) string {
	if s.units.raw {
		return string(payload)
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return string(payload)
	}
	if v, ok := fields["amount"].(string); ok {
		fields["amount"] = s.units.format(v)
	}
	rendered, err := json.Marshal(fields)
	if err != nil {
		return string(payload)
	}
	return string(rendered)
}

type callFunc[Req any] func(*ledgergrpc.Client, context.Context, *Req, ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)

func emptyCommand(name, summary string, call callFunc[ledgergrpc.Empty]) command {
	return command{name: name, summary: summary, minArgs: 0, maxArgs: 0,
		run: func(s *session, _ []string) (result, error) {
			return s.events(call(s.client, s.ctx, &ledgergrpc.Empty{}, s.opts...))
		}}
}

func accountCommand(name, summary string, call callFunc[ledgergrpc.AccountRequest]) command {
	return command{name: name, usage: "ACCOUNT", summary: summary, minArgs: 1, maxArgs: 1,
		run: func(s *session, a []string) (result, error) {
			return s.events(call(s.client, s.ctx, &ledgergrpc.AccountRequest{Account: a[0]}, s.opts...))
		}}
}

func textCommand(name, usage, summary string, call callFunc[ledgergrpc.TextRequest]) command {
	return command{name: name, usage: usage, summary: summary, minArgs: 1, maxArgs: 1,
		run: func(s *session, a []string) (result, error) {
			return s.events(call(s.client, s.ctx, &ledgergrpc.TextRequest{Text: a[0]}, s.opts...))
		}}
}

func allowanceCommand(name, summary string, call callFunc[ledgergrpc.AllowanceRequest]) command {
	return command{name: name, usage: "SPENDER AMOUNT", summary: summary, minArgs: 2, maxArgs: 2,
		run: func(s *session, a []string) (result, error) {
			amt, err := s.units.toBase(a[1])
			if err != nil {
				return result{}, err
			}
			return s.events(call(s.client, s.ctx, &ledgergrpc.AllowanceRequest{Spender: a[0], Amount: amt}, s.opts...))
		}}
}

func runSetFees(s *session, a []string) (result, error) {
	rate, err := strconv.ParseUint(a[0], 10, 64)
	if err != nil {
		return result{}, fmt.Errorf("rate %q: %w", a[0], err)
	}
	req := &ledgergrpc.SetFeeScheduleRequest{Schedule: ledgergrpc.FeeSchedule{RateBps: rate}}
	for i, dst := range []*string{&req.Schedule.Fixed, &req.Schedule.Min, &req.Schedule.Max} {
		if *dst, err = s.units.toBase(a[i+1]); err != nil {
			return result{}, err
		}
	}
	if len(a) == 5 {
		applicability, err := parseApplicability(a[4])
		if err != nil {
			return result{}, err
		}
		req.Applicability = &applicability
	}
	return s.events(s.client.SetFeeSchedule(s.ctx, req, s.opts...))
}

func parseApplicability(value string) (ledgergrpc.FeeApplicability, error) {
	var out ledgergrpc.FeeApplicability
	if strings.TrimSpace(value) == "none" {
		return out, nil
	}
	for _, op := range strings.Split(value, ",") {
		switch strings.TrimSpace(op) {
		case "transfer":
			out.Transfer = true
		case "mint":
			out.Mint = true
		case "burn":
			out.Burn = true
		case "migrate":
			out.Migrate = true
		default:
			return ledgergrpc.FeeApplicability{}, fmt.Errorf("unknown fee operation %q", op)
		}
	}
	return out, nil
}
