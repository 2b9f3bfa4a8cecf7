package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/domain"
)

// SlackAPI is the subset of the Slack client used by SlackPoster.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

type SlackPoster struct {
	api     SlackAPI
	channel string
}

func NewSlackPoster(api SlackAPI, channel string) *SlackPoster {
	return &SlackPoster{api: api, channel: channel}
}

// NewSlackClient builds a poster backed by the Slack Web API.
func NewSlackClient(token, channel string) *SlackPoster {
	return NewSlackPoster(slacklib.New(token), channel)
}

func (p *SlackPoster) Post(ctx context.Context, ev domain.ChangeEvent) error {
	text := Summary(ev)
	_, _, err := p.api.PostMessageContext(ctx, p.channel,
		slacklib.MsgOptionText(text, false),
		slacklib.MsgOptionBlocks(BuildChangeBlocks(ev)...),
	)
	if err != nil {
		return fmt.Errorf("notify.SlackPoster.Post: %w", err)
	}
	return nil
}

// Summary renders ev as one line of Slack markdown.
func Summary(ev domain.ChangeEvent) string {
	switch ev.Type {
	case audit.ResponsibilityUpdated:
		return fmt.Sprintf("*Responsibility updated:* %v is now owned by %v (%v)",
			ev.Data["title"], ev.Data["assignee"], ev.Data["assignee_type"])
	case audit.TaskRecurringCreated:
		return fmt.Sprintf("*Recurring series created:* %v (%v tasks)", ev.Data["title"], ev.Data["count"])
	default:
		return fmt.Sprintf("*%s* on %s `%s`", ev.Type, ev.EntityType, ev.EntityID)
	}
}

// BuildChangeBlocks builds Block Kit blocks for a change event: the summary
// section and a context line naming the entity and the actor.
func BuildChangeBlocks(ev domain.ChangeEvent) []slacklib.Block {
	section := slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, Summary(ev), false, false),
		nil,
		nil,
	)
	meta := fmt.Sprintf("%s `%s` by `%s` at %s", ev.EntityType, ev.EntityID, ev.ActorID, ev.At.UTC().Format("2006-01-02 15:04 MST"))
	footer := slacklib.NewContextBlock("",
		slacklib.NewTextBlockObject(slacklib.MarkdownType, meta, false, false),
	)
	return []slacklib.Block{section, footer}
}
