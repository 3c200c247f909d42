package web

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deemkeen/dodo/engine"
	"github.com/deemkeen/dodo/util"
	"github.com/gorilla/feeds"
)

// GetRSS renders the current action queue as an RSS feed.
func GetRSS(ctx context.Context, conf *util.AppConfig, eng *engine.Engine) (string, error) {
	result := eng.Full(ctx, engine.MentionSearchLimit, 0)
	if result.State != engine.StateOk {
		return "", errors.New(result.Message)
	}

	link := fmt.Sprintf("http://%s:%d/feed", conf.Conf.Host, conf.Conf.HttpPort)

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Dodo Conversations - @%s", result.Username),
		Link:        &feeds.Link{Href: link},
		Description: "mentions waiting for a reply",
		Author:      &feeds.Author{Name: result.Username, Email: fmt.Sprintf("%s@dodo", result.Username)},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, conv := range result.Conversations {
		feedItems = append(feedItems,
			&feeds.Item{
				Id:      conv.Id,
				Title:   fmt.Sprintf("@%s - %s", conv.Author, conv.CreatedAt.Format(util.DateTimeFormat())),
				Link:    &feeds.Link{Href: fmt.Sprintf("https://x.com/%s/status/%s", conv.Author, conv.Id)},
				Content: conv.Text,
				Author:  &feeds.Author{Name: conv.AuthorName, Email: fmt.Sprintf("%s@dodo", conv.Author)},
				Created: conv.CreatedAt,
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}
