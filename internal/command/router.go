package command

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/jellyfin-mqtt/internal/audit"
	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
	"github.com/nerrad567/jellyfin-mqtt/internal/gate"
	"github.com/nerrad567/jellyfin-mqtt/internal/infrastructure/mqtt"
	"github.com/nerrad567/jellyfin-mqtt/internal/jellyfin"
	"github.com/nerrad567/jellyfin-mqtt/internal/metrics"
)

// DefaultTimeout bounds one remote call.
const DefaultTimeout = 5 * time.Second

// maxVolume is the upper bound of a volume argument.
const maxVolume = 100

// Outcome labels used in logs, metrics and the audit log.
const (
	OutcomeOK         = metrics.OutcomeOK
	OutcomeFailed     = metrics.OutcomeFailed
	OutcomeMalformed  = "malformed"
	OutcomeUnresolved = "unresolved"
	OutcomeUnknown    = "unknown"
	OutcomeInvalid    = "invalid"
)

// Invoker performs remote actions.
type Invoker interface {
	Act(ctx context.Context, a jellyfin.Action) error
}

// Resolver lists registered ids of a kind in ascending order.
type Resolver interface {
	Snapshot(kind entity.Kind) []string
}

// GroupPublisher publishes a group switch state.
type GroupPublisher interface {
	PublishGroupState(category string, enabled bool)
}

// Recorder stores handled commands.
type Recorder interface {
	Create(ctx context.Context, e *audit.Entry) error
}

// Logger is the logging interface used by the router.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Config holds optional router settings.
type Config struct {
	Timeout  time.Duration
	Logger   Logger
	Metrics  *metrics.Metrics
	Recorder Recorder
}

// Router handles inbound command messages. It is not safe for concurrent
// use; the scheduler loop is its only caller.
type Router struct {
	topics   mqtt.Topics
	registry Resolver
	gate     *gate.Gate
	invoker  Invoker
	groups   GroupPublisher

	timeout  time.Duration
	logger   Logger
	metrics  *metrics.Metrics
	recorder Recorder
}

// NewRouter creates a router.
func NewRouter(topics mqtt.Topics, registry Resolver, g *gate.Gate, invoker Invoker, groups GroupPublisher, cfg Config) *Router {
	r := &Router{
		topics:   topics,
		registry: registry,
		gate:     g,
		invoker:  invoker,
		groups:   groups,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		recorder: cfg.Recorder,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.logger == nil {
		r.logger = noopLogger{}
	}
	return r
}

// request is a parsed inbound message.
type request struct {
	topic    string
	payload  string
	category string
	group    bool
	scope    scope
	short    string
	keyword  string
	arg      string

	targetID string
	action   string
}

// Handle processes one inbound message. The returned error is already
// logged, counted and recorded; callers need not act on it.
func (r *Router) Handle(ctx context.Context, topic string, payload []byte) error {
	start := time.Now()
	req, err := r.parse(topic, payload)
	if err == nil {
		if req.group {
			err = r.toggleGroup(req)
		} else {
			err = r.execute(ctx, &req)
		}
	}
	r.finish(ctx, req, err, time.Since(start))
	return err
}

func (r *Router) parse(topic string, payload []byte) (request, error) {
	req := request{topic: topic, payload: strings.TrimSpace(string(payload))}

	parts, ok := r.topics.Relative(topic)
	if !ok || len(parts) < 2 {
		return req, fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}
	last := parts[len(parts)-1]

	switch {
	case len(parts) == 3 && parts[0] == mqtt.SegmentGroups && last == mqtt.KeywordSet:
		req.category = parts[1]
		req.group = true
		return req, nil

	case len(parts) == 2 && (last == mqtt.KeywordCommand || last == mqtt.KeywordSet):
		req.scope = scopeGlobal
		req.keyword = req.payload

	case len(parts) == 3 && last == mqtt.KeywordCommand:
		req.scope = scopeEntity
		req.short = parts[1]
		req.keyword = strings.ToLower(req.payload)
		if rest, ok := strings.CutPrefix(req.keyword, seekPrefix); ok {
			req.keyword = seekKeyword
			req.arg = strings.TrimSpace(rest)
		}

	case len(parts) == 4 && last == mqtt.KeywordSet:
		req.scope = scopeField
		req.short = parts[1]
		req.keyword = parts[2]
		req.arg = req.payload

	default:
		return req, fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}

	req.category = parts[0]
	if !r.gate.Known(req.category) {
		return req, fmt.Errorf("%w: %w: %q", ErrMalformedTopic, gate.ErrUnknownCategory, req.category)
	}
	if req.keyword == "" {
		return req, fmt.Errorf("%w: empty command on %q", ErrMalformedTopic, topic)
	}
	if req.scope != scopeGlobal && req.short == "" {
		return req, fmt.Errorf("%w: empty id on %q", ErrMalformedTopic, topic)
	}
	return req, nil
}

func (r *Router) toggleGroup(req request) error {
	enabled, ok := parseSwitch(req.payload)
	if !ok {
		return fmt.Errorf("%w: group payload %q", ErrMalformedTopic, req.payload)
	}
	if err := r.gate.SetEnabled(req.category, enabled); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedTopic, err)
	}
	r.groups.PublishGroupState(req.category, enabled)
	return nil
}

func (r *Router) execute(ctx context.Context, req *request) error {
	if req.scope != scopeGlobal {
		kind := entity.KindForCategory(req.category)
		if kind == "" {
			return fmt.Errorf("%w: %s has no entities", ErrUnknownCommand, req.category)
		}
		id, n := resolveShortID(r.registry.Snapshot(kind), req.short)
		switch {
		case n == 0:
			return fmt.Errorf("%w: %s %q", ErrUnresolvedID, kind, req.short)
		case n > 1:
			r.logger.Warn("ambiguous short id, using smallest match",
				"category", req.category, "short_id", req.short, "id", id, "matches", n)
		}
		req.targetID = id
	}

	action, err := buildAction(*req)
	if err != nil {
		return err
	}
	req.action = action.String()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.invoker.Act(callCtx, action); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrActionFailed, action, err)
	}
	return nil
}

// buildAction looks up the command table and validates the argument.
func buildAction(req request) (jellyfin.Action, error) {
	b, ok := table[tableKey{req.category, req.scope, req.keyword}]
	if !ok && req.scope == scopeGlobal {
		b, ok = lookup(req.category, req.scope, strings.ToLower(req.keyword))
	}
	if !ok {
		return jellyfin.Action{}, fmt.Errorf("%w: %s %s %q", ErrUnknownCommand, req.category, req.scope, req.keyword)
	}

	a := jellyfin.Action{Op: b.op, Name: b.name, TargetID: req.targetID}
	switch b.arg {
	case argSeconds:
		n, err := parseWhole(req.arg)
		if err != nil || n < 0 {
			return a, fmt.Errorf("%w: seconds %q", ErrInvalidArgument, req.arg)
		}
		a.Args = map[string]string{jellyfin.ArgSeekTicks: jellyfin.SeekTicks(n)}
	case argVolume:
		n, err := parseWhole(req.arg)
		if err != nil || n < 0 || n > maxVolume {
			return a, fmt.Errorf("%w: volume %q", ErrInvalidArgument, req.arg)
		}
		a.Args = map[string]string{jellyfin.ArgVolume: strconv.FormatInt(n, 10)}
	case argText:
		if req.arg == "" {
			return a, fmt.Errorf("%w: empty text", ErrInvalidArgument)
		}
		a.Args = map[string]string{jellyfin.ArgText: req.arg}
	case argTaskKey:
		a.Name = req.keyword
	}
	return a, nil
}

func (r *Router) finish(ctx context.Context, req request, err error, elapsed time.Duration) {
	outcome := Outcome(err)
	r.metrics.ObserveCommand(req.category, outcome)

	if err != nil {
		r.logger.Warn("command dropped", "topic", req.topic, "outcome", outcome, "error", err)
	} else {
		r.logger.Info("command handled", "topic", req.topic, "action", req.action,
			"duration_ms", elapsed.Milliseconds())
	}

	if r.recorder == nil {
		return
	}
	entry := &audit.Entry{
		Topic:    req.topic,
		Payload:  req.payload,
		Category: req.category,
		TargetID: req.targetID,
		Action:   req.action,
		Outcome:  outcome,
		Duration: elapsed,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if rerr := r.recorder.Create(ctx, entry); rerr != nil {
		r.logger.Warn("recording command failed", "error", rerr)
	}
}

// Outcome classifies a Handle error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrMalformedTopic):
		return OutcomeMalformed
	case errors.Is(err, ErrUnresolvedID):
		return OutcomeUnresolved
	case errors.Is(err, ErrUnknownCommand):
		return OutcomeUnknown
	case errors.Is(err, ErrInvalidArgument):
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}

// resolveShortID matches fragment against ids, which must be sorted. Ids
// starting with fragment are preferred over ids containing it. It returns
// the smallest match and the number of candidates at that preference level.
func resolveShortID(ids []string, fragment string) (string, int) {
	for _, match := range []func(string, string) bool{strings.HasPrefix, strings.Contains} {
		var (
			first string
			n     int
		)
		for _, id := range ids {
			if !match(id, fragment) {
				continue
			}
			if n == 0 {
				first = id
			}
			n++
		}
		if n > 0 {
			return first, n
		}
	}
	return "", 0
}

// parseWhole parses an integer, also accepting a float with no fractional
// part ("42.0") as number entities send.
func parseWhole(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int64(f), nil
}

// parseSwitch parses a group switch payload.
func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	default:
		return false, false
	}
}
