package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/quillforum/quill-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Mentions are rendered as @name either as plain text or inside a
// mention-classed anchor.
var mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_-]{2,50})`)

// extractMentions returns the distinct nicknames @-mentioned in HTML.
func extractMentions(html string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range mentionPattern.FindAllStringSubmatch(html, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// MentionEffect notifies users @-mentioned in the diff between old and new
// HTML. Mentions already present in the previous content, and users already
// notified for this document, are suppressed, which also makes re-runs
// no-ops.
type MentionEffect struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
	log           zerolog.Logger
}

// NewMentionEffect creates the mention notification side effect.
func NewMentionEffect(users repository.UserRepository, notifications repository.NotificationRepository, log zerolog.Logger) *MentionEffect {
	return &MentionEffect{users: users, notifications: notifications, log: log}
}

func (e *MentionEffect) Name() string { return "mention_notification" }

func (e *MentionEffect) Run(ctx context.Context, ev ChangeEvent) error {
	oldMentions := make(map[string]bool)
	for _, name := range extractMentions(ev.OldHTML) {
		oldMentions[name] = true
	}

	var fresh []string
	for _, name := range extractMentions(ev.NewHTML) {
		if !oldMentions[name] {
			fresh = append(fresh, name)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	users, err := e.users.FindByNicknames(ctx, fresh)
	if err != nil {
		return fmt.Errorf("resolve mentioned users: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	notified, err := e.notifications.MentionedUserIDs(ctx, ev.Ref)
	if err != nil {
		return fmt.Errorf("load prior mention notifications: %w", err)
	}

	var actor *domain.User
	if ev.ActorID != "" {
		actor, _ = e.users.FindByID(ctx, ev.ActorID)
	}

	for _, u := range users {
		if u.ID == ev.ActorID || notified[u.ID] {
			continue
		}
		n := &domain.Notification{
			UserID:       u.ID,
			Type:         domain.NotificationTypeMention,
			Title:        mentionTitle(actor, ev.Ref),
			URL:          documentURL(ev.Ref),
			SenderID:     ev.ActorID,
			DocumentKind: ev.Ref.Kind,
			DocumentID:   ev.Ref.ID,
		}
		if actor != nil {
			n.SenderName = actor.Nickname
		}
		if err := e.notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("create mention notification for %s: %w", u.ID, err)
		}
	}
	return nil
}

func mentionTitle(actor *domain.User, ref domain.DocumentRef) string {
	who := "Someone"
	if actor != nil && actor.Nickname != "" {
		who = actor.Nickname
	}
	return fmt.Sprintf("%s mentioned you in %s", who, ref.Kind)
}

func documentURL(ref domain.DocumentRef) string {
	switch ref.Kind {
	case domain.KindPosts:
		return "/posts/" + ref.ID
	case domain.KindTags:
		return "/tag/" + ref.ID
	case domain.KindComments:
		return "/comments/" + ref.ID
	case domain.KindLenses:
		return "/lenses/" + ref.ID
	}
	return "/"
}
