package gcp

import (
	"context"
	"fmt"
	"time"

	"github.com/Lllllllleong/careercopilot/internal/models"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

// GmailMailbox reads job alerts from the authorised user's inbox.
type GmailMailbox struct {
	svc *gmail.Service
}

func NewGmailMailbox(ctx context.Context, ts oauth2.TokenSource) (*GmailMailbox, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	return &GmailMailbox{svc: svc}, nil
}

// ListUnread returns every unread message from sender with its subject line.
func (m *GmailMailbox) ListUnread(ctx context.Context, sender string) ([]models.MailMessage, error) {
	var ids []string
	err := m.svc.Users.Messages.List(gmailUser).Q("is:unread from:"+sender).Pages(ctx, func(page *gmail.ListMessagesResponse) error {
		for _, msg := range page.Messages {
			ids = append(ids, msg.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages from %s: %w", sender, err)
	}

	out := make([]models.MailMessage, 0, len(ids))
	for _, id := range ids {
		msg, err := m.svc.Users.Messages.Get(gmailUser, id).Format("metadata").MetadataHeaders("Subject").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", id, err)
		}
		out = append(out, models.MailMessage{ID: id, Sender: sender, Subject: subjectOf(msg)})
	}
	return out, nil
}

func (m *GmailMailbox) MarkRead(ctx context.Context, messageID string) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{"UNREAD"}}
	if _, err := m.svc.Users.Messages.Modify(gmailUser, messageID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to mark message %s as read: %w", messageID, err)
	}
	return nil
}

func subjectOf(msg *gmail.Message) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if h.Name == "Subject" {
			return h.Value
		}
	}
	return ""
}

// GoogleCalendar writes reminders to the user's primary calendar.
type GoogleCalendar struct {
	svc *calendar.Service
}

func NewGoogleCalendar(ctx context.Context, ts oauth2.TokenSource) (*GoogleCalendar, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return &GoogleCalendar{svc: svc}, nil
}

// CreateAllDayEvent inserts an event covering day. The end date is exclusive.
func (c *GoogleCalendar) CreateAllDayEvent(ctx context.Context, summary, description string, day time.Time) error {
	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start:       &calendar.EventDateTime{Date: day.Format(time.DateOnly)},
		End:         &calendar.EventDateTime{Date: day.AddDate(0, 0, 1).Format(time.DateOnly)},
	}
	if _, err := c.svc.Events.Insert("primary", event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create calendar event: %w", err)
	}
	return nil
}
