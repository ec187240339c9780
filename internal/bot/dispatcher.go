package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"slidesmith/internal/build"
	"slidesmith/internal/chat"
	"slidesmith/internal/logging"
	"slidesmith/internal/preflight"
	"slidesmith/internal/services"
	"slidesmith/internal/settings"
	"slidesmith/internal/workflow"
)

// Controller is the workflow surface the dispatcher drives.
type Controller interface {
	Submit(trigger build.Trigger) workflow.Submission
	Status(ctx context.Context) workflow.Status
	// Health reports the environment checks taken at daemon start.
	Health() []preflight.Result
}

// Dispatcher parses operator commands from the control room and replies.
type Dispatcher struct {
	sender   chat.Sender
	ctrl     Controller
	resolver *settings.Resolver
	allowed  map[string]struct{}
	logger   *slog.Logger
}

// NewDispatcher builds a dispatcher. An empty allow-list admits every room
// member; the room's own membership is the access boundary then.
func NewDispatcher(sender chat.Sender, ctrl Controller, resolver *settings.Resolver, allowedSenders []string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	allowed := make(map[string]struct{}, len(allowedSenders))
	for _, sender := range allowedSenders {
		sender = strings.TrimSpace(sender)
		if sender != "" {
			allowed[sender] = struct{}{}
		}
	}
	return &Dispatcher{
		sender:   sender,
		ctrl:     ctrl,
		resolver: resolver,
		allowed:  allowed,
		logger:   logging.WithComponent(logger, "bot"),
	}
}

// Handle processes one room message. Non-commands are ignored; commands
// from unauthorized senders are logged and dropped without a reply so the
// bot gives strangers nothing to probe.
func (d *Dispatcher) Handle(ctx context.Context, msg chat.Message) {
	body := strings.TrimSpace(msg.Body)
	if !strings.HasPrefix(body, "!") {
		return
	}

	if !d.authorized(msg.Sender) {
		d.logger.Debug("command from unauthorized sender dropped",
			logging.String(logging.FieldSender, msg.Sender),
		)
		return
	}

	fields := strings.Fields(body)
	verb := strings.ToLower(fields[0])
	args := fields[1:]
	d.logger.Info("command received",
		logging.String(logging.FieldSender, msg.Sender),
		logging.String("verb", verb),
	)

	switch verb {
	case "!help":
		d.replyHTML(ctx, renderHelp())
	case "!status":
		d.replyHTML(ctx, renderStatus(d.ctrl.Status(ctx), d.ctrl.Health()))
	case "!rebuild":
		d.handleRebuild(ctx)
	case "!set":
		d.handleSet(ctx, args)
	case "!get":
		d.handleGet(ctx, args)
	case "!config":
		d.handleConfig(ctx)
	case "!defaults":
		d.handleDefaults(ctx)
	default:
		d.reply(ctx, fmt.Sprintf("Unknown command %s. Try !help.", verb))
	}
}

func (d *Dispatcher) authorized(sender string) bool {
	if len(d.allowed) == 0 {
		return true
	}
	_, ok := d.allowed[sender]
	return ok
}

func (d *Dispatcher) handleRebuild(ctx context.Context) {
	submission := d.ctrl.Submit(build.TriggerChat)
	if !submission.Accepted {
		if errors.Is(submission.Err, services.ErrAlreadyRunning) {
			d.reply(ctx, fmt.Sprintf("%s. Use !status to follow it.", submission.Reason))
			return
		}
		d.reply(ctx, fmt.Sprintf("Not starting: %s.", submission.Reason))
		return
	}
	d.reply(ctx, "Build started. I'll post here when it finishes.")
}

func (d *Dispatcher) handleSet(ctx context.Context, args []string) {
	if len(args) < 2 {
		d.reply(ctx, "Usage: !set KEY VALUE")
		return
	}
	key := settings.Key(strings.ToUpper(args[0]))
	value := strings.Join(args[1:], " ")

	if err := d.resolver.SetOverride(ctx, key, value); err != nil {
		if errors.Is(err, services.ErrValidation) {
			d.reply(ctx, fmt.Sprintf("Rejected: %s", validationDetail(err)))
			return
		}
		d.logger.Error("set override failed", logging.Error(err))
		d.reply(ctx, "Something went wrong saving that setting.")
		return
	}
	d.reply(ctx, fmt.Sprintf("%s = %s (override saved, applies to the next build)", key, value))
}

func (d *Dispatcher) handleGet(ctx context.Context, args []string) {
	if len(args) == 0 {
		d.reply(ctx, "Usage: !get KEY or !get all")
		return
	}

	if strings.EqualFold(args[0], "all") {
		snap, err := d.resolver.ResolveAll(ctx)
		if err != nil {
			d.logger.Error("resolve all failed", logging.Error(err))
			d.reply(ctx, "Something went wrong reading the settings.")
			return
		}
		d.replyHTML(ctx, renderSnapshot(snap))
		return
	}

	key := settings.Key(strings.ToUpper(args[0]))
	value, err := d.resolver.Resolve(ctx, key)
	if err != nil {
		d.reply(ctx, fmt.Sprintf("Unknown setting %s. Try !get all.", key))
		return
	}
	d.reply(ctx, fmt.Sprintf("%s = %s (%s)", value.Key, value.Raw, value.Source))
}

func (d *Dispatcher) handleConfig(ctx context.Context) {
	overrides, err := d.resolver.Overrides(ctx)
	if err != nil {
		d.logger.Error("list overrides failed", logging.Error(err))
		d.reply(ctx, "Something went wrong reading the overrides.")
		return
	}
	d.replyHTML(ctx, renderOverrides(overrides))
}

func (d *Dispatcher) handleDefaults(ctx context.Context) {
	cleared, err := d.resolver.ClearAll(ctx)
	if err != nil {
		d.logger.Error("clear overrides failed", logging.Error(err))
		d.reply(ctx, "Something went wrong clearing the overrides.")
		return
	}
	d.reply(ctx, fmt.Sprintf("Cleared %d override(s). Settings are back to environment/default values.", cleared))
}

func (d *Dispatcher) reply(ctx context.Context, body string) {
	if err := d.sender.SendText(ctx, body); err != nil {
		d.logger.Warn("reply failed", logging.Error(err))
	}
}

func (d *Dispatcher) replyHTML(ctx context.Context, r rendered) {
	if err := d.sender.SendHTML(ctx, r.plain, r.html); err != nil {
		d.logger.Warn("reply failed", logging.Error(err))
	}
}

// validationDetail strips the "validation error: component: operation"
// prefix so the chat reply leads with the human-facing message.
func validationDetail(err error) string {
	parts := strings.SplitN(err.Error(), ": ", 4)
	return parts[len(parts)-1]
}
