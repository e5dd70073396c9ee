package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/louisbranch/goldtoken/internal/platform/errors"
	"github.com/louisbranch/goldtoken/internal/platform/id"
	"github.com/louisbranch/goldtoken/internal/platform/requestctx"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/command"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/encoding"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/replay"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/louisbranch/goldtoken/internal/services/ledger/domain/ledger"

var (
	// ErrJournalRequired indicates a missing journal.
	ErrJournalRequired = errors.New("journal is required")
	// ErrGenesisMissing indicates a journal whose first event is not the
	// genesis event.
	ErrGenesisMissing = errors.New("journal does not start with ledger.initialized")
)

// Journal is the durable, append-only event store. AppendEvents must persist
// the whole batch or nothing, and reject batches whose sequence numbers do
// not continue the stored sequence.
type Journal interface {
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock sets the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(l *Ledger) {
		if tp != nil {
			l.tracer = tp.Tracer(tracerName)
		}
	}
}

// Ledger is the serialized token ledger.
type Ledger struct {
	journal  Journal
	commands *command.Registry
	events   *event.Registry
	deciders map[command.Type]decideFunc
	log      *trace.Log
	logger   *zap.Logger
	tracer   oteltrace.Tracer
	now      func() time.Time

	// writeMu serializes commands. stateMu guards state against readers and
	// is held for writing only while committed events are folded.
	writeMu sync.Mutex
	stateMu sync.RWMutex
	state   *state
	// halted is written under both locks.
	halted error
}

// New opens a ledger over journal. An empty journal is initialized from
// bootstrap; otherwise the journal is replayed and bootstrap is ignored.
func New(ctx context.Context, journal Journal, bootstrap Bootstrap, opts ...Option) (*Ledger, error) {
	if journal == nil {
		return nil, ErrJournalRequired
	}
	l := &Ledger{
		journal:  journal,
		commands: command.NewRegistry(),
		events:   event.NewRegistry(),
		deciders: make(map[command.Type]decideFunc),
		log:      trace.NewLog(),
		logger:   zap.NewNop(),
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := registerEvents(l.events); err != nil {
		return nil, fmt.Errorf("register events: %w", err)
	}
	for _, h := range handlers() {
		if err := l.commands.Register(h.def); err != nil {
			return nil, fmt.Errorf("register commands: %w", err)
		}
		l.deciders[h.def.Type] = h.decide
	}

	result, err := replay.Replay(ctx, journal, replay.ApplierFunc(l.applyReplayed), replay.Options{})
	if err != nil {
		return nil, fmt.Errorf("replay journal: %w", err)
	}
	if result.Applied > 0 {
		l.warnOnBootstrapDrift(bootstrap)
		l.logger.Info("ledger replayed", zap.Uint64("last_seq", result.LastSeq), zap.Int("events", result.Applied))
		return l, nil
	}
	if err := l.initialize(ctx, bootstrap); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initialize(ctx context.Context, bootstrap Bootstrap) error {
	normalized, err := bootstrap.Normalize()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("encode bootstrap: %w", err)
	}
	genesis, err := l.events.ValidateForAppend(event.Event{
		Type:        EventTypeInitialized,
		Timestamp:   l.now(),
		ActorType:   event.ActorTypeSystem,
		PayloadJSON: payload,
	})
	if err != nil {
		return fmt.Errorf("genesis event: %w", err)
	}
	stored, err := l.journal.AppendEvents(ctx, l.log.Stage([]event.Event{genesis}))
	if err != nil {
		return fmt.Errorf("append genesis: %w", err)
	}
	for _, evt := range stored {
		if err := l.applyReplayed(evt); err != nil {
			return err
		}
	}
	l.logger.Info("ledger initialized",
		zap.String("name", normalized.Token.Name),
		zap.String("symbol", normalized.Token.Symbol),
		zap.String("owner", address.Key(normalized.Owner)))
	return nil
}

// applyReplayed folds an event read back from the journal.
func (l *Ledger) applyReplayed(evt event.Event) error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if evt.Type == EventTypeInitialized {
		if l.state != nil {
			return fmt.Errorf("duplicate genesis at seq %d", evt.Seq)
		}
		b, err := event.DecodePayload[Bootstrap](evt.PayloadJSON)
		if err != nil {
			return fmt.Errorf("decode genesis: %w", err)
		}
		l.state = newState(b)
	} else {
		if l.state == nil {
			return ErrGenesisMissing
		}
		if err := l.state.apply(evt); err != nil {
			return err
		}
	}
	return l.log.Commit([]event.Event{evt})
}

func (l *Ledger) warnOnBootstrapDrift(bootstrap Bootstrap) {
	genesis, ok := l.log.Event(1)
	if !ok {
		return
	}
	normalized, err := bootstrap.Normalize()
	if err != nil {
		return
	}
	want, errWant := encoding.CanonicalJSON(normalized)
	got, errGot := encoding.CanonicalJSON(json.RawMessage(genesis.PayloadJSON))
	if errWant == nil && errGot == nil && string(want) != string(got) {
		l.logger.Warn("bootstrap differs from journal genesis; using journal")
	}
}

// Execute runs one command to completion. It returns the committed events,
// or an error and no state change.
func (l *Ledger) Execute(ctx context.Context, cmd command.Command) ([]event.Event, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.Execute", oteltrace.WithAttributes(
		attribute.String("ledger.command", string(cmd.Type)),
	))
	defer span.End()

	events, err := l.execute(ctx, cmd)
	if err != nil {
		span.SetStatus(otelcodes.Error, string(apperrors.CodeOf(err)))
		span.RecordError(err)
		return nil, err
	}
	if len(events) > 0 {
		span.SetAttributes(attribute.Int64("ledger.last_seq", int64(events[len(events)-1].Seq)))
	}
	return events, nil
}

func (l *Ledger) execute(ctx context.Context, cmd command.Command) ([]event.Event, error) {
	if cmd.RequestID == "" {
		cmd.RequestID = requestctx.RequestIDFromContext(ctx)
	}
	if cmd.RequestID == "" {
		generated, err := id.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate request id: %w", err)
		}
		cmd.RequestID = generated
	}
	cmd, def, err := l.commands.ValidateForDecision(cmd)
	if err != nil {
		return nil, err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if l.halted != nil {
		return nil, l.halted
	}

	decision := l.decide(cmd, def)
	if decision.Rejected() {
		rejection := decision.Rejections[0]
		l.logger.Debug("command rejected",
			zap.String("command", string(cmd.Type)),
			zap.String("caller", address.Key(cmd.Caller)),
			zap.String("code", string(rejection.Code)),
			zap.String("request_id", cmd.RequestID))
		return nil, decision.Err()
	}
	if len(decision.Events) == 0 {
		return nil, nil
	}

	at := l.now()
	staged := make([]event.Event, 0, len(decision.Events))
	for _, evt := range decision.Events {
		evt.Timestamp = at
		evt.ActorType = event.ActorTypeAccount
		evt.ActorID = address.Key(cmd.Caller)
		evt.RequestID = cmd.RequestID
		evt.CommandType = string(cmd.Type)
		vetted, err := l.events.ValidateForAppend(evt)
		if err != nil {
			return nil, fmt.Errorf("%s emitted invalid event: %w", cmd.Type, err)
		}
		staged = append(staged, vetted)
	}
	staged = l.log.Stage(staged)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Once the append starts the caller can no longer cancel it.
	stored, err := l.journal.AppendEvents(context.WithoutCancel(ctx), staged)
	if err != nil {
		return nil, l.halt(cmd, "journal append failed", err)
	}
	if err := l.commit(stored); err != nil {
		return nil, l.halt(cmd, "fold failed", err)
	}

	l.logger.Debug("command committed",
		zap.String("command", string(cmd.Type)),
		zap.String("caller", address.Key(cmd.Caller)),
		zap.Uint64("first_seq", stored[0].Seq),
		zap.Uint64("last_seq", stored[len(stored)-1].Seq),
		zap.String("request_id", cmd.RequestID))
	return stored, nil
}

// decide runs the gates then the command's decider.
func (l *Ledger) decide(cmd command.Command, def command.Definition) command.Decision {
	if !def.Gate.AllowWhenPaused {
		if err := l.state.guard.CheckOpen(); err != nil {
			return command.RejectErr(err)
		}
	}
	if !def.Gate.AllowWhenDelegated {
		if err := l.state.migration.CheckOpen(); err != nil {
			return command.RejectErr(err)
		}
	}
	decide, ok := l.deciders[cmd.Type]
	if !ok {
		return command.RejectErr(apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("no decider for %s", cmd.Type)))
	}
	return decide(l.state, cmd)
}

func (l *Ledger) commit(stored []event.Event) error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	for _, evt := range stored {
		if err := l.state.apply(evt); err != nil {
			return err
		}
	}
	return l.log.Commit(stored)
}

// halt stops accepting commands after a storage or fold fault.
func (l *Ledger) halt(cmd command.Command, msg string, cause error) error {
	halted := apperrors.Wrap(apperrors.CodeLedgerHalted, fmt.Sprintf("ledger halted: %s: %v", msg, cause), cause)
	l.stateMu.Lock()
	l.halted = halted
	l.stateMu.Unlock()
	l.logger.Error("ledger halted",
		zap.String("command", string(cmd.Type)),
		zap.String("request_id", cmd.RequestID),
		zap.Error(cause))
	return halted
}

// Halted returns the fault that stopped the ledger, or nil.
func (l *Ledger) Halted() error {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.halted
}
