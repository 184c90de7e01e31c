package model

import "time"

// FailedAttempt records one failed login for lockout counting. Rows are
// purged on successful login and lazily once outside the lockout window.
type FailedAttempt struct {
	ID          uint      `gorm:"primarykey"`
	Email       string    `gorm:"column:email;not null;index:idx_failed_attempts_email"`
	AttemptedAt time.Time `gorm:"column:attempted_at;not null"`
}

// RateLimitHit is one request against a rate-limited endpoint. The limiter
// counts rows per (identifier, endpoint) inside a sliding window.
type RateLimitHit struct {
	ID         uint      `gorm:"primarykey"`
	Identifier string    `gorm:"column:identifier;not null;index:idx_rate_limits_key,priority:1"`
	Endpoint   string    `gorm:"column:endpoint;not null;index:idx_rate_limits_key,priority:2"`
	Timestamp  time.Time `gorm:"column:timestamp;not null;index:idx_rate_limits_timestamp"`
}

func (RateLimitHit) TableName() string { return "rate_limits" }
