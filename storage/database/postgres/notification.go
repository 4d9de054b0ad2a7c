package pgrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core/notification"
)

type dbNotification struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Kind      string         `db:"kind"`
	Title     string         `db:"title"`
	Message   sql.NullString `db:"message"`
	Data      []byte         `db:"data"`
	IsRead    bool           `db:"is_read"`
	ReadAt    sql.NullTime   `db:"read_at"`
	CreatedAt time.Time      `db:"created_at"`
}

func (n dbNotification) unrow() (notification.Notification, error) {
	notif := notification.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Kind:      n.Kind,
		Title:     n.Title,
		Message:   n.Message.String,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.ReadAt.Valid {
		t := n.ReadAt.Time
		notif.ReadAt = &t
	}
	if n.Data != nil {
		if err := json.Unmarshal(n.Data, &notif.Data); err != nil {
			return notification.Notification{}, errors.Wrap(err, "decoding notification data")
		}
	}
	return notif, nil
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sql.DB) *notificationRepository {
	return &notificationRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	n.ID = uuid.New().String()
	data, err := marshalOrNil(n.Data)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "encoding notification data")
	}
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO notification (id, user_id, kind, title, message, data, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`,
		n.ID, n.UserID, n.Kind, n.Title, n.Message, data, n.CreatedAt.UTC(),
	)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var row dbNotification
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM notification WHERE id = $1`, id); err != nil {
		return notification.Notification{}, trapNoRowsErr(err, notification.ErrNotFound, "finding notification")
	}
	return row.unrow()
}

func (repo notificationRepository) FilterNotifications(ctx context.Context, filter notification.QueryFilter) ([]notification.Notification, error) {
	conds := []string{"TRUE"}
	args := make([]interface{}, 0, 2)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != "" {
		conds = append(conds, "user_id = "+arg(filter.UserID))
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = "+arg(filter.Kind))
	}
	if filter.UnreadOnly {
		conds = append(conds, "is_read = FALSE")
	}

	var rows []dbNotification
	q := `SELECT * FROM notification WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.unrow()
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, nil
}

func (repo notificationRepository) MarkNotificationsRead(ctx context.Context, userID string, ids ...string) error {
	q := `UPDATE notification SET is_read = TRUE, read_at = $1 WHERE user_id = $2 AND is_read = FALSE`
	args := []interface{}{time.Now().UTC(), userID}
	if len(ids) > 0 {
		q += ` AND id = ANY($3)`
		args = append(args, pq.StringArray(ids))
	}
	_, err := repo.db.ExecContext(ctx, q, args...)
	return errors.Wrap(err, "marking notifications read")
}
