package ledgerctl

import (
	"flag"
	"fmt"
	"strconv"

	ledgergrpc "github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/ledger"
)

// maxTracePages bounds how many pages a single trace command follows.
const maxTracePages = 100

func registerQueries() {
	register(
		command{name: "balance", usage: "ACCOUNT", summary: "show an account balance", minArgs: 1, maxArgs: 1,
			run: func(s *session, a []string) (result, error) {
				resp, err := s.client.BalanceOf(s.ctx, &ledgergrpc.AccountRequest{Account: a[0]}, s.opts...)
				if err != nil {
					return result{}, err
				}
				return result{raw: resp, lines: []string{s.units.format(resp.Amount)}}, nil
			}},
		command{name: "allowance", usage: "OWNER SPENDER", summary: "show a spender allowance", minArgs: 2, maxArgs: 2,
			run: func(s *session, a []string) (result, error) {
				resp, err := s.client.Allowance(s.ctx, &ledgergrpc.AllowanceQuery{Owner: a[0], Spender: a[1]}, s.opts...)
				if err != nil {
					return result{}, err
				}
				return result{raw: resp, lines: []string{s.units.format(resp.Amount)}}, nil
			}},
		command{name: "supply", summary: "show total supply and ceiling", maxArgs: 0,
			run: func(s *session, _ []string) (result, error) {
				resp, err := s.client.TotalSupply(s.ctx, &ledgergrpc.Empty{}, s.opts...)
				if err != nil {
					return result{}, err
				}
				ceiling := "none"
				if resp.Ceiling != "" {
					ceiling = s.units.format(resp.Ceiling)
				}
				return result{raw: resp, lines: []string{
					"total_supply: " + s.units.format(resp.TotalSupply),
					"ceiling: " + ceiling,
				}}, nil
			}},
		command{name: "info", summary: "show token metadata", maxArgs: 0,
			run: func(s *session, _ []string) (result, error) {
				resp, err := s.client.TokenInfo(s.ctx, &ledgergrpc.Empty{}, s.opts...)
				if err != nil {
					return result{}, err
				}
				return result{raw: resp, lines: []string{
					"name: " + resp.Name,
					"symbol: " + resp.Symbol,
					"decimals: " + strconv.Itoa(int(resp.Decimals)),
					"public_document: " + resp.PublicDocument,
					"contact_information: " + resp.ContactInformation,
					"ledger_address: " + resp.LedgerAddress,
				}}, nil
			}},
		command{name: "roles", summary: "show role holders", maxArgs: 0,
			run: func(s *session, _ []string) (result, error) {
				resp, err := s.client.Roles(s.ctx, &ledgergrpc.Empty{}, s.opts...)
				if err != nil {
					return result{}, err
				}
				lines := []string{
					"owner: " + resp.Owner,
					"pending_owner: " + orNone(resp.PendingOwner),
					"system_wallet: " + resp.SystemWallet,
					"compliance_authority: " + orNone(resp.ComplianceAuthority),
				}
				for _, m := range resp.Minters {
					lines = append(lines, "minter: "+m)
				}
				return result{raw: resp, lines: lines}, nil
			}},
		command{name: "lifecycle", summary: "show pause and delegation state", maxArgs: 0,
			run: func(s *session, _ []string) (result, error) {
				resp, err := s.client.Lifecycle(s.ctx, &ledgergrpc.Empty{}, s.opts...)
				if err != nil {
					return result{}, err
				}
				return result{raw: resp, lines: []string{
					"state: " + resp.State,
					"delegated: " + strconv.FormatBool(resp.Delegated),
					"approved_successor: " + orNone(resp.ApprovedSuccessor),
					"last_seq: " + strconv.FormatUint(resp.LastSeq, 10),
				}}, nil
			}},
		command{name: "status", usage: "ACCOUNT", summary: "show compliance status", minArgs: 1, maxArgs: 1,
			run: func(s *session, a []string) (result, error) {
				resp, err := s.client.ComplianceStatus(s.ctx, &ledgergrpc.AccountRequest{Account: a[0]}, s.opts...)
				if err != nil {
					return result{}, err
				}
				return result{raw: resp, lines: []string{resp.Status}}, nil
			}},
		command{name: "eligible", usage: "FROM TO", summary: "check whether a transfer would pass compliance", minArgs: 2, maxArgs: 2,
			run: func(s *session, a []string) (result, error) {
				resp, err := s.client.CheckTransferEligible(s.ctx, &ledgergrpc.EligibilityRequest{From: a[0], To: a[1]}, s.opts...)
				if err != nil {
					return result{}, err
				}
				line := "eligible"
				if !resp.Eligible {
					line = "not eligible: " + resp.Side
				}
				return result{raw: resp, lines: []string{line}}, nil
			}},
		command{name: "fee", usage: "AMOUNT", summary: "preview the fee on a gross amount", minArgs: 1, maxArgs: 1,
			run: func(s *session, a []string) (result, error) {
				amt, err := s.units.toBase(a[0])
				if err != nil {
					return result{}, err
				}
				resp, err := s.client.ComputeFee(s.ctx, &ledgergrpc.ComputeFeeRequest{Amount: amt}, s.opts...)
				if err != nil {
					return result{}, err
				}
				return result{raw: resp, lines: []string{
					"net: " + s.units.format(resp.Net),
					"fee: " + s.units.format(resp.Fee),
				}}, nil
			}},
		command{name: "fees", summary: "show the fee schedule", maxArgs: 0,
			run: func(s *session, _ []string) (result, error) {
				resp, err := s.client.FeeSchedule(s.ctx, &ledgergrpc.Empty{}, s.opts...)
				if err != nil {
					return result{}, err
				}
				ap := resp.Applicability
				return result{raw: resp, lines: []string{
					"rate_bps: " + strconv.FormatUint(resp.Schedule.RateBps, 10),
					"fixed: " + s.units.format(resp.Schedule.Fixed),
					"min: " + s.units.format(resp.Schedule.Min),
					"max: " + s.units.format(resp.Schedule.Max),
					fmt.Sprintf("applies_to: transfer=%t mint=%t burn=%t migrate=%t", ap.Transfer, ap.Mint, ap.Burn, ap.Migrate),
				}}, nil
			}},
		command{name: "trace", usage: "[-account A] [-from SEQ] [-to SEQ] [-filter EXPR] [-limit N]", summary: "list trace records", maxArgs: -1,
			run: runTrace},
		command{name: "record", usage: "SEQ", summary: "show one trace record", minArgs: 1, maxArgs: 1,
			run: func(s *session, a []string) (result, error) {
				seq, err := strconv.ParseUint(a[0], 10, 64)
				if err != nil {
					return result{}, fmt.Errorf("seq %q: %w", a[0], err)
				}
				resp, err := s.client.GetTraceRecord(s.ctx, &ledgergrpc.GetTraceRecordRequest{Seq: seq}, s.opts...)
				if err != nil {
					return result{}, err
				}
				return result{raw: resp, lines: []string{s.traceLine(*resp)}}, nil
			}},
		command{name: "migrations", usage: "[ACCOUNT]", summary: "list completed migrations", maxArgs: 1,
			run: func(s *session, a []string) (result, error) {
				req := &ledgergrpc.AccountRequest{}
				if len(a) == 1 {
					req.Account = a[0]
				}
				resp, err := s.client.ListMigrations(s.ctx, req, s.opts...)
				if err != nil {
					return result{}, err
				}
				lines := make([]string, 0, len(resp.Migrations))
				for _, m := range resp.Migrations {
					lines = append(lines, fmt.Sprintf("%d %s %s -> %s %s", m.Seq, m.Timestamp, m.Account, m.Successor, s.units.format(m.Amount)))
				}
				return result{raw: resp, lines: lines}, nil
			}},
		command{name: "events", usage: "[AFTER_SEQ]", summary: "list journal events", maxArgs: 1,
			run: func(s *session, a []string) (result, error) {
				req := &ledgergrpc.ListEventsRequest{}
				if len(a) == 1 {
					after, err := strconv.ParseUint(a[0], 10, 64)
					if err != nil {
						return result{}, fmt.Errorf("after seq %q: %w", a[0], err)
					}
					req.AfterSeq = after
				}
				resp, err := s.client.ListEvents(s.ctx, req, s.opts...)
				if err != nil {
					return result{}, err
				}
				return s.events(&ledgergrpc.CommandResponse{Events: resp.Events}, nil)
			}},
		command{name: "verify", summary: "reconcile supply and walk the journal chain", maxArgs: 0,
			run: func(s *session, _ []string) (result, error) {
				resp, err := s.client.VerifyLedger(s.ctx, &ledgergrpc.Empty{}, s.opts...)
				if err != nil {
					return result{}, err
				}
				return result{raw: resp, lines: []string{
					"last_seq: " + strconv.FormatUint(resp.LastSeq, 10),
					"journal_verified: " + strconv.FormatBool(resp.JournalVerified),
				}}, nil
			}},
	)
}

func runTrace(s *session, args []string) (result, error) {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	req := &ledgergrpc.QueryTraceRequest{}
	limit := 0
	fs.StringVar(&req.Account, "account", "", "only records touching this account")
	fs.Uint64Var(&req.FromSeq, "from", 0, "first sequence number")
	fs.Func("to", "last sequence number (default latest)", func(v string) error {
		to, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		req.ToSeq = &to
		return nil
	})
	fs.StringVar(&req.Filter, "filter", "", "AIP-160 filter over kind, from, to, reference, successor, request_id, seq, ts")
	fs.IntVar(&limit, "limit", 0, "maximum records to print (0 = all)")
	if err := fs.Parse(args); err != nil {
		return result{}, err
	}

	var records []ledgergrpc.TraceRecord
	for page := 0; page < maxTracePages; page++ {
		resp, err := s.client.QueryTrace(s.ctx, req, s.opts...)
		if err != nil {
			return result{}, err
		}
		records = append(records, resp.Records...)
		if resp.NextPageToken == "" || (limit > 0 && len(records) >= limit) {
			break
		}
		req.PageToken = resp.NextPageToken
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, s.traceLine(rec))
	}
	return result{raw: &ledgergrpc.QueryTraceResponse{Records: records}, lines: lines}, nil
}

func (s *session) traceLine(rec ledgergrpc.TraceRecord) string {
	line := fmt.Sprintf("%d %s %-9s %s -> %s %s", rec.Seq, rec.Timestamp, rec.Kind, rec.From, rec.To, s.units.format(rec.Amount))
	if rec.ExternalReference != "" {
		line += " ref=" + rec.ExternalReference
	}
	if rec.Successor != "" {
		line += " successor=" + rec.Successor
	}
	return line
}

func orNone(value string) string {
	if value == "" {
		return "none"
	}
	return value
}
