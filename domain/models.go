package domain

import (
	"fmt"
	"time"
)

// Reference types a post can carry towards another post.
const (
	RefRepliedTo = "replied_to"
	RefQuoted    = "quoted"
)

// RepostMarker prefixes the text of plain reposts. Reposts are never
// actionable mentions.
const RepostMarker = "RT @"

// Author represents a post author as the broker reports it.
type Author struct {
	Id        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarUrl string `json:"profile_image_url,omitempty"`
}

// PostRef is a "this post references that post" relation.
type PostRef struct {
	Type string `json:"type"`
	Id   string `json:"id"`
}

// Metrics holds the engagement counters the engine depends on.
type Metrics struct {
	ReplyCount  int `json:"reply_count"`
	LikeCount   int `json:"like_count"`
	RepostCount int `json:"retweet_count"`
}

// Post represents a single remote post. CreatedAt may be empty; the
// broker omits it on some responses, in which case the creation time is
// recovered from the snowflake ID.
type Post struct {
	Id        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorId  string    `json:"author_id,omitempty"`
	Author    *Author   `json:"author,omitempty"`
	CreatedAt string    `json:"created_at,omitempty"`
	Metrics   Metrics   `json:"public_metrics"`
	Refs      []PostRef `json:"referenced_tweets,omitempty"`
}

// RepliedToId returns the ID of the post this post replies to, or "".
func (p *Post) RepliedToId() string {
	for _, ref := range p.Refs {
		if ref.Type == RefRepliedTo {
			return ref.Id
		}
	}
	return ""
}

// IsRepost reports whether the post is a plain repost.
func (p *Post) IsRepost() bool {
	return len(p.Text) >= len(RepostMarker) && p.Text[:len(RepostMarker)] == RepostMarker
}

// Conversation is the unit handed to callers: one mention that still
// needs a reply. Built fresh on every reconciliation, never mutated.
type Conversation struct {
	Id          string    `json:"id"`
	Author      string    `json:"author"`
	AuthorName  string    `json:"author_name"`
	AvatarUrl   string    `json:"avatar_url"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	ReplyCount  int       `json:"reply_count"`
	LikeCount   int       `json:"like_count"`
	RepostCount int       `json:"repost_count"`
}

func (c *Conversation) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tAuthor: @%s \n\tText: %s \n\tCreatedAt: %s)", c.Id, c.Author, c.Text, c.CreatedAt)
}

// KeywordSearchResult is what a keyword search returns: the matching
// posts plus the authoritative author records for them.
type KeywordSearchResult struct {
	Posts   []Post   `json:"posts"`
	Authors []Author `json:"authors"`
}

// AuthorSearchResult holds a user's own recent posts.
type AuthorSearchResult struct {
	Posts []Post `json:"posts"`
}

// PostLookup is a single post resolved by ID together with its author.
type PostLookup struct {
	Post   Post   `json:"post"`
	Author Author `json:"author"`
}

// PostReceipt is returned after a successful post action.
type PostReceipt struct {
	Id  string `json:"id"`
	Url string `json:"url"`
}

// AuthPrompt carries everything a caller needs to restart the
// authorization flow after the broker rejected our credential.
type AuthPrompt struct {
	Service      string `json:"service"`
	AuthorizeUrl string `json:"authorize_url"`
	State        string `json:"state"`
	Message      string `json:"message"`
}
