package domain

import (
	"strconv"
	"time"
)

// The platform's snowflake IDs carry their creation instant in the high
// bits: milliseconds since the platform epoch, shifted left by 22.
const (
	snowflakeEpochMs = int64(1288834974657)
	snowflakeShift   = 22
)

// CreatedAtFromId recovers a post's creation time from its numeric ID.
// Used as a fallback when the broker response omits created_at.
func CreatedAtFromId(id string) (time.Time, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	ms := (n >> snowflakeShift) + snowflakeEpochMs
	return time.UnixMilli(ms).UTC(), true
}

// ResolveCreatedAt returns the post's own creation time if present,
// otherwise the snowflake fallback, otherwise the zero time.
func (p *Post) ResolveCreatedAt() time.Time {
	if p.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			return t
		}
	}
	if t, ok := CreatedAtFromId(p.Id); ok {
		return t
	}
	return time.Time{}
}
