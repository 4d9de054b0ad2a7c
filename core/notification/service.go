package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		// FilterNotifications applies AND operation on available QueryFilter fields.
		FilterNotifications(ctx context.Context, filter QueryFilter) ([]Notification, error)
		// MarkNotificationsRead marks the user's notifications read; an empty ids
		// slice marks all of them.
		MarkNotificationsRead(ctx context.Context, userID string, ids ...string) error
	}

	// SettingsSource reports whether a user opted into email mirroring of
	// notifications (see core/profile).
	SettingsSource interface {
		EmailEnabled(ctx context.Context, userID string) bool
	}

	Service struct {
		repo     Repository
		users    user.Repository
		settings SettingsSource
		mailSvc  core.EmailService
		log      core.Logger
	}
)

func NewService(repo Repository, users user.Repository, settings SettingsSource, mailSvc core.EmailService, log core.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		settings: settings,
		mailSvc:  mailSvc,
		log:      log,
	}
}

// Notify records a notification for the user. It is fire-and-forget by
// contract: any failure is logged and swallowed so the transition that
// triggered it always stands.
func (svc *Service) Notify(ctx context.Context, userID, kind, title, message string, data map[string]interface{}) {
	n := Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := svc.repo.CreateNotification(ctx, n); err != nil {
		svc.log.Error(fmt.Sprintf("creating notification for user %s: %v", userID, err), err)
		return
	}

	svc.mirrorToEmail(ctx, n)
}

func (svc *Service) mirrorToEmail(ctx context.Context, n Notification) {
	if svc.mailSvc == nil {
		return
	}
	if svc.settings != nil && !svc.settings.EmailEnabled(ctx, n.UserID) {
		return
	}
	usr, err := svc.users.GetUserByID(ctx, n.UserID)
	if err != nil {
		svc.log.Error(fmt.Sprintf("finding notification recipient %s: %v", n.UserID, err), err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: n.Title,
		BodyStr: n.Message,
	})
}

// Filter lists the actor's own notifications.
func (svc *Service) Filter(ctx context.Context, actor user.User, filter QueryFilter) ([]Notification, error) {
	if err := user.Authorize(actor); err != nil {
		return nil, err
	}
	filter.UserID = actor.ID
	return svc.repo.FilterNotifications(ctx, filter)
}

// MarkRead marks one of the actor's notifications as read.
func (svc *Service) MarkRead(ctx context.Context, actor user.User, id string) error {
	if err := user.Authorize(actor); err != nil {
		return err
	}
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != actor.ID {
		return ErrNotFound // do not leak existence
	}
	return svc.repo.MarkNotificationsRead(ctx, actor.ID, id)
}

// MarkAllRead marks all the actor's notifications as read.
func (svc *Service) MarkAllRead(ctx context.Context, actor user.User) error {
	if err := user.Authorize(actor); err != nil {
		return err
	}
	return svc.repo.MarkNotificationsRead(ctx, actor.ID)
}
