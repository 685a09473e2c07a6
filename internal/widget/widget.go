// Package widget implements the chat widget's session controller: the open/closed state, the transcript,
// and the single in-flight turn with its typing indicator.
//
// A Controller is not safe for concurrent use. It is meant to be driven from one event loop, with the
// outbound request of a turn executed elsewhere and its Reply fed back into the same loop.
package widget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MegaGrindStone/portfolio-chat/internal/models"
)

const errLoggerKey = "err"

// ErrorText is the bot message shown for any failed turn.
const ErrorText = "Sorry, I'm having trouble connecting right now. Please try again later."

// Visibility is the collapsed or expanded state of the widget.
type Visibility int

// Phase tracks whether a reply is in flight.
type Phase int

const (
	// Closed shows only the launcher.
	Closed Visibility = iota
	// Open shows the transcript and the input box.
	Open
)

const (
	// Idle accepts a new submission.
	Idle Phase = iota
	// AwaitingReply has one turn in flight; submissions are dropped until it completes.
	AwaitingReply
)

// String returns "open" or "closed".
func (v Visibility) String() string {
	if v == Open {
		return "open"
	}
	return "closed"
}

// String returns "idle" or "awaiting_reply".
func (p Phase) String() string {
	if p == AwaitingReply {
		return "awaiting_reply"
	}
	return "idle"
}

// Pending is the "typing" placeholder of the turn in flight. It is never part of the transcript.
type Pending struct {
	ID      string
	Created time.Time
}

// Turn is the outbound request an accepted submission asks the caller to issue.
type Turn struct {
	PendingID string
	Text      string
}

// Reply completes a Turn. A non-nil Err marks the turn as failed.
type Reply struct {
	PendingID string
	Text      string
	Err       error
}

// Sender performs the outbound request of a turn.
type Sender interface {
	Send(ctx context.Context, text string) (string, error)
}

// Scroller is notified after every transcript append so the view can stay pinned to the newest message.
type Scroller interface {
	ScrollToBottom()
}

// ScrollFunc adapts a function to Scroller.
type ScrollFunc func()

// ScrollToBottom calls f.
func (f ScrollFunc) ScrollToBottom() { f() }

// Controller is the state machine behind one widget instance.
type Controller struct {
	visibility Visibility
	phase      Phase

	input      string
	transcript []models.Message
	pending    *Pending

	scroller Scroller
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithScroller registers the scroll-to-bottom side effect.
func WithScroller(s Scroller) Option {
	return func(c *Controller) { c.scroller = s }
}

// WithClock replaces time.Now, which pending identifiers are derived from.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the developer-facing logger that failed turns are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithOpen starts the widget expanded.
func WithOpen() Option {
	return func(c *Controller) { c.visibility = Open }
}

// New creates a closed, idle Controller with an empty transcript.
func New(opts ...Option) *Controller {
	c := &Controller{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("module", "widget"))
	return c
}

// Toggle flips between Closed and Open. An in-flight turn is unaffected.
func (c *Controller) Toggle() {
	if c.visibility == Open {
		c.visibility = Closed
		return
	}
	c.visibility = Open
}

// SetInput replaces the input box contents.
func (c *Controller) SetInput(s string) {
	c.input = s
}

// Input returns the input box contents.
func (c *Controller) Input() string {
	return c.input
}

// Submit accepts the current input as a new turn. It returns false, and changes nothing, when a reply is
// already awaited or the trimmed input is empty; such submissions are dropped rather than queued.
func (c *Controller) Submit() (Turn, bool) {
	if c.phase == AwaitingReply {
		return Turn{}, false
	}
	text := strings.TrimSpace(c.input)
	if text == "" {
		return Turn{}, false
	}

	c.appendMessage(models.UserMessage(text))
	c.input = ""

	created := c.now()
	c.pending = &Pending{
		ID:      pendingID(created),
		Created: created,
	}
	c.phase = AwaitingReply

	return Turn{PendingID: c.pending.ID, Text: text}, true
}

// Complete finishes the turn in flight: the typing indicator is removed and exactly one bot message is
// appended, carrying either the reply text or ErrorText. Replies for any other turn are ignored.
func (c *Controller) Complete(r Reply) {
	if c.pending == nil || c.pending.ID != r.PendingID {
		c.logger.Warn("Dropping reply for unknown turn", slog.String("pendingID", r.PendingID))
		return
	}

	c.pending = nil
	c.phase = Idle

	if r.Err != nil {
		c.appendMessage(models.BotMessage(ErrorText))
		return
	}
	c.appendMessage(models.BotMessage(r.Text))
}

// Exchange performs the request of turn through s. Failures are logged here and carried in the Reply; the
// user only ever sees ErrorText.
func (c *Controller) Exchange(ctx context.Context, s Sender, turn Turn) Reply {
	text, err := s.Send(ctx, turn.Text)
	if err != nil {
		c.logger.Error("Chat request failed",
			slog.String("pendingID", turn.PendingID),
			slog.String(errLoggerKey, err.Error()))
	}
	return Reply{PendingID: turn.PendingID, Text: text, Err: err}
}

// Ask runs one whole turn synchronously: text is submitted and, if accepted, exchanged through s and
// completed. It reports whether the submission was accepted.
func (c *Controller) Ask(ctx context.Context, s Sender, text string) bool {
	c.SetInput(text)
	turn, ok := c.Submit()
	if !ok {
		return false
	}
	c.Complete(c.Exchange(ctx, s, turn))
	return true
}

// Transcript returns a copy of the rendered messages in append order.
func (c *Controller) Transcript() []models.Message {
	out := make([]models.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Pending returns the typing indicator of the turn in flight, if any.
func (c *Controller) Pending() (Pending, bool) {
	if c.pending == nil {
		return Pending{}, false
	}
	return *c.pending, true
}

// Visibility returns whether the widget is collapsed or expanded.
func (c *Controller) Visibility() Visibility {
	return c.visibility
}

// Phase returns whether a reply is in flight.
func (c *Controller) Phase() Phase {
	return c.phase
}

func (c *Controller) appendMessage(m models.Message) {
	c.transcript = append(c.transcript, m)
	if c.scroller != nil {
		c.scroller.ScrollToBottom()
	}
}

func pendingID(t time.Time) string {
	return fmt.Sprintf("typing-%d", t.UnixMilli())
}
