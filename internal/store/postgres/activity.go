package postgres

import (
	"context"
	"strconv"
	"time"

	"depo-backend/internal/models"
)

func (b *Backend) InsertLoginLog(ctx context.Context, l *models.LoginLog) error {
	err := b.DB.QueryRow(ctx,
		`INSERT INTO login_logs (user_id, username, user_name, department_name, ip_address,
			user_agent, location, action, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		l.UserID, l.Username, l.UserName, l.DepartmentName, l.IPAddress,
		l.UserAgent, l.Location, l.Action, l.CreatedAt,
	).Scan(&l.ID)
	return mapErr(err)
}

func (b *Backend) ListLoginLogs(ctx context.Context, f models.LoginLogFilter) ([]*models.LoginLog, error) {
	var w where
	if f.Action != "" {
		w.add("action = $%d", f.Action)
	}
	if f.Username != "" {
		w.add("username = $%d", f.Username)
	}
	if !f.Since.IsZero() {
		w.add("created_at >= $%d", f.Since)
	}
	query := `SELECT id, user_id, username, user_name, department_name, ip_address, user_agent,
		location, action, created_at FROM login_logs` + w.String() + ` ORDER BY created_at DESC, id DESC`
	args := w.args
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := b.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var logs []*models.LoginLog
	for rows.Next() {
		var l models.LoginLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Username, &l.UserName, &l.DepartmentName,
			&l.IPAddress, &l.UserAgent, &l.Location, &l.Action, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func (b *Backend) LoginStatsSince(ctx context.Context, since time.Time) (*models.LoginStats, error) {
	var s models.LoginStats
	err := b.DB.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE action = 'login'),
			COUNT(DISTINCT username) FILTER (WHERE action = 'login'),
			COUNT(*) FILTER (WHERE action = 'failed_login')
		 FROM login_logs WHERE created_at >= $1`, since,
	).Scan(&s.TotalLogins24h, &s.UniqueUsers24h, &s.FailedLogins24h)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (b *Backend) DeleteLoginLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := b.DB.Exec(ctx, `DELETE FROM login_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func (b *Backend) UpsertSession(ctx context.Context, s *models.ActiveSession) error {
	err := b.DB.QueryRow(ctx,
		`INSERT INTO active_sessions (user_id, username, user_name, ip_address, user_agent,
			last_activity, current_page, current_action, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			user_name = EXCLUDED.user_name,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			last_activity = EXCLUDED.last_activity,
			current_page = EXCLUDED.current_page,
			current_action = EXCLUDED.current_action
		 RETURNING created_at`,
		s.UserID, s.Username, s.UserName, s.IPAddress, s.UserAgent,
		s.LastActivity, s.CurrentPage, s.CurrentAction, s.CreatedAt,
	).Scan(&s.CreatedAt)
	return mapErr(err)
}

func (b *Backend) TouchSession(ctx context.Context, userID int64, at time.Time, page, action *string) error {
	return expectRow(b.DB.Exec(ctx,
		`UPDATE active_sessions SET last_activity = $1,
			current_page = COALESCE($2, current_page),
			current_action = COALESCE($3, current_action)
		 WHERE user_id = $4`,
		at, page, action, userID))
}

func (b *Backend) DeleteSession(ctx context.Context, userID int64) error {
	_, err := b.DB.Exec(ctx, `DELETE FROM active_sessions WHERE user_id = $1`, userID)
	return mapErr(err)
}

func (b *Backend) ListSessionsSince(ctx context.Context, since time.Time) ([]*models.ActiveSession, error) {
	rows, err := b.DB.Query(ctx,
		`SELECT user_id, username, user_name, ip_address, user_agent, last_activity,
			current_page, current_action, created_at
		 FROM active_sessions WHERE last_activity >= $1 ORDER BY last_activity DESC`, since)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var sessions []*models.ActiveSession
	for rows.Next() {
		var s models.ActiveSession
		if err := rows.Scan(&s.UserID, &s.Username, &s.UserName, &s.IPAddress, &s.UserAgent,
			&s.LastActivity, &s.CurrentPage, &s.CurrentAction, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

func (b *Backend) DeleteSessionsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := b.DB.Exec(ctx, `DELETE FROM active_sessions WHERE last_activity < $1`, before)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}
