package api

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/errgroup"
)

// recentThreadsFanout bounds how many channels are queried concurrently when
// building the recent-threads view.
const recentThreadsFanout = 4

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	body, err := c.get(ctx, "/me", nil)
	if err != nil {
		return nil, err
	}
	user := userFromJSON(gjson.ParseBytes(body))
	return &user, nil
}

// Workspaces lists the workspaces the account belongs to.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	body, err := c.get(ctx, "/workspaces", nil)
	if err != nil {
		return nil, err
	}
	var workspaces []Workspace
	gjson.GetBytes(body, "workspaces").ForEach(func(_, item gjson.Result) bool {
		workspaces = append(workspaces, workspaceFromJSON(item))
		return true
	})
	return workspaces, nil
}

// Channels lists the channels of a workspace the account can see.
func (c *Client) Channels(ctx context.Context, workspaceID string) ([]Channel, error) {
	body, err := c.get(ctx, "/workspaces/"+url.PathEscape(workspaceID)+"/channels", nil)
	if err != nil {
		return nil, err
	}
	var channels []Channel
	gjson.GetBytes(body, "channels").ForEach(func(_, item gjson.Result) bool {
		channels = append(channels, channelFromJSON(item))
		return true
	})
	return channels, nil
}

// Threads lists the newest threads of a channel.
func (c *Client) Threads(ctx context.Context, channelID string, limit int) ([]Thread, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.limitOr(limit)))
	body, err := c.get(ctx, "/channels/"+url.PathEscape(channelID)+"/threads", query)
	if err != nil {
		return nil, err
	}
	var threads []Thread
	gjson.GetBytes(body, "threads").ForEach(func(_, item gjson.Result) bool {
		threads = append(threads, threadFromJSON(item))
		return true
	})
	return threads, nil
}

// RecentThreads returns the most recently active threads across every channel
// of a workspace, newest first. Channels are queried concurrently.
func (c *Client) RecentThreads(ctx context.Context, workspaceID string, limit int) ([]Thread, error) {
	channels, err := c.Channels(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	limit = c.limitOr(limit)

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(recentThreadsFanout)

	var mu sync.Mutex
	var merged []Thread
	for _, channel := range channels {
		channel := channel
		g.Go(func() error {
			threads, threadsErr := c.Threads(groupCtx, channel.ID, limit)
			if threadsErr != nil {
				return threadsErr
			}
			for i := range threads {
				if threads[i].ChannelName == "" {
					threads[i].ChannelName = channel.Name
				}
			}
			mu.Lock()
			merged = append(merged, threads...)
			mu.Unlock()
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].UpdatedAt.After(merged[j].UpdatedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// Thread fetches a single thread.
func (c *Client) Thread(ctx context.Context, threadID string) (*Thread, error) {
	body, err := c.get(ctx, "/threads/"+url.PathEscape(threadID), nil)
	if err != nil {
		return nil, err
	}
	thread := threadFromJSON(gjson.ParseBytes(body))
	return &thread, nil
}

// Comments lists the comments of a thread, oldest first.
func (c *Client) Comments(ctx context.Context, threadID string) ([]Comment, error) {
	body, err := c.get(ctx, "/threads/"+url.PathEscape(threadID)+"/comments", nil)
	if err != nil {
		return nil, err
	}
	var comments []Comment
	gjson.GetBytes(body, "comments").ForEach(func(_, item gjson.Result) bool {
		comments = append(comments, commentFromJSON(item))
		return true
	})
	return comments, nil
}

// AddComment posts a comment to a thread and returns it as stored.
func (c *Client) AddComment(ctx context.Context, threadID, content string) (*Comment, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "body", content)
	if err != nil {
		return nil, fmt.Errorf("skein api: encode comment failed: %w", err)
	}
	body, err := c.post(ctx, "/threads/"+url.PathEscape(threadID)+"/comments", payload)
	if err != nil {
		return nil, err
	}
	comment := commentFromJSON(gjson.ParseBytes(body))
	return &comment, nil
}

// Inbox lists the account's inbox, most recently updated first.
func (c *Client) Inbox(ctx context.Context, limit int) ([]InboxEntry, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.limitOr(limit)))
	body, err := c.get(ctx, "/inbox", query)
	if err != nil {
		return nil, err
	}
	var entries []InboxEntry
	gjson.GetBytes(body, "entries").ForEach(func(_, item gjson.Result) bool {
		entries = append(entries, inboxEntryFromJSON(item))
		return true
	})
	return entries, nil
}

// Notifications lists the account's notifications, newest first.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	body, err := c.get(ctx, "/notifications", nil)
	if err != nil {
		return nil, err
	}
	var notifications []Notification
	gjson.GetBytes(body, "notifications").ForEach(func(_, item gjson.Result) bool {
		notifications = append(notifications, notificationFromJSON(item))
		return true
	})
	return notifications, nil
}

// Search runs a full-text search over the account's visible threads.
func (c *Client) Search(ctx context.Context, queryText string, limit int) ([]SearchHit, error) {
	query := url.Values{}
	query.Set("q", queryText)
	query.Set("limit", strconv.Itoa(c.limitOr(limit)))
	body, err := c.get(ctx, "/search", query)
	if err != nil {
		return nil, err
	}
	var hits []SearchHit
	gjson.GetBytes(body, "results").ForEach(func(_, item gjson.Result) bool {
		hits = append(hits, searchHitFromJSON(item))
		return true
	})
	return hits, nil
}
