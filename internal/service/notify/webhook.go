package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/domain/service"
	"SignalForge/pkg/config"
	xhttp "SignalForge/pkg/http"
	"SignalForge/pkg/logger"
)

// message is the chat-bot webhook body (Slack/Mattermost incoming-webhook shape).
type message struct {
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

// WebhookNotifier posts alerts to a chat webhook. Its configuration is fixed at construction.
type WebhookNotifier struct {
	cfg    config.NotifierConfig
	client *xhttp.Client
	l      *logger.Logger
	floor  models.AlertPriority
}

func NewWebhookNotifier(cfg config.NotifierConfig, l *logger.Logger) *WebhookNotifier {
	if l == nil {
		l = logger.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	floor := models.AlertPriority(cfg.MinPriority)
	if floor == "" {
		floor = models.PriorityLow
	}
	return &WebhookNotifier{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithRetry(1, 250*time.Millisecond)),
		l:      l.With(logger.String("component", "notifier")),
		floor:  floor,
	}
}

// Notify delivers alert unless the notifier is disabled or the alert ranks below min_priority.
func (n *WebhookNotifier) Notify(ctx context.Context, alert models.Alert) error {
	if !n.cfg.Enabled || n.cfg.WebhookURL == "" {
		return nil
	}
	if alert.Priority.Rank() < n.floor.Rank() {
		n.l.Debug("alert below threshold", logger.String("type", alert.Type), logger.String("priority", string(alert.Priority)))
		return nil
	}

	msg := message{
		Channel:  n.cfg.Channel,
		Username: n.cfg.Username,
		Text:     formatText(alert),
		Type:     alert.Type,
		Title:    alert.Title,
		Priority: string(alert.Priority),
	}
	if err := n.client.PostJSON(ctx, n.cfg.WebhookURL, msg, nil); err != nil {
		return &models.CollaboratorError{Collaborator: "notifier", Err: fmt.Errorf("post alert: %w", err)}
	}
	return nil
}

func formatText(a models.Alert) string {
	var b strings.Builder
	if a.Priority == models.PriorityHigh {
		b.WriteString("[HIGH] ")
	}
	b.WriteString("*")
	b.WriteString(a.Title)
	b.WriteString("*")
	if a.Body != "" {
		b.WriteString("\n")
		b.WriteString(a.Body)
	}
	return b.String()
}

// Nop drops every alert.
type Nop struct{}

func (Nop) Notify(context.Context, models.Alert) error { return nil }

var (
	_ service.Notifier = (*WebhookNotifier)(nil)
	_ service.Notifier = Nop{}
)
