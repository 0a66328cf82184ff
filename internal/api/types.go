// Package api implements the Skein REST client used by every CLI command
// after login. Responses are parsed with gjson into small view structs; the
// client never mutates server state except through the explicit write calls.
package api

import (
	"time"

	"github.com/tidwall/gjson"
)

// User is a Skein account.
type User struct {
	ID          string
	Handle      string
	DisplayName string
	Email       string
	Status      string
}

// Workspace is a Skein workspace the account belongs to.
type Workspace struct {
	ID      string
	Slug    string
	Name    string
	Role    string
	Members int
}

// Channel is a channel inside a workspace.
type Channel struct {
	ID         string
	Name       string
	Topic      string
	Visibility string
	Members    int
	Unread     int
}

// Thread is a conversation thread inside a channel.
type Thread struct {
	ID           string
	ChannelID    string
	ChannelName  string
	Title        string
	Author       User
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CommentCount int
	Unread       int
}

// Comment is a single message inside a thread.
type Comment struct {
	ID        string
	ThreadID  string
	Author    User
	Body      string
	CreatedAt time.Time
	Edited    bool
	Reactions []Reaction
}

// Reaction is an emoji reaction tally on a comment.
type Reaction struct {
	Emoji string
	Count int
}

// InboxEntry is a thread surfaced in the account's inbox.
type InboxEntry struct {
	ThreadID    string
	ChannelName string
	Title       string
	LastAuthor  string
	Unread      int
	UpdatedAt   time.Time
}

// Notification is a mention, reply, or reaction notification.
type Notification struct {
	ID        string
	Kind      string
	Text      string
	ThreadID  string
	Read      bool
	CreatedAt time.Time
}

// SearchHit is one thread matched by a search query.
type SearchHit struct {
	ThreadID    string
	ChannelName string
	Title       string
	Snippet     string
	Author      string
	UpdatedAt   time.Time
}

func parseTime(result gjson.Result) time.Time {
	t, err := time.Parse(time.RFC3339, result.String())
	if err != nil {
		return time.Time{}
	}
	return t
}

func userFromJSON(item gjson.Result) User {
	return User{
		ID:          item.Get("id").String(),
		Handle:      item.Get("handle").String(),
		DisplayName: item.Get("display_name").String(),
		Email:       item.Get("email").String(),
		Status:      item.Get("status").String(),
	}
}

func workspaceFromJSON(item gjson.Result) Workspace {
	return Workspace{
		ID:      item.Get("id").String(),
		Slug:    item.Get("slug").String(),
		Name:    item.Get("name").String(),
		Role:    item.Get("role").String(),
		Members: int(item.Get("member_count").Int()),
	}
}

func channelFromJSON(item gjson.Result) Channel {
	return Channel{
		ID:         item.Get("id").String(),
		Name:       item.Get("name").String(),
		Topic:      item.Get("topic").String(),
		Visibility: item.Get("visibility").String(),
		Members:    int(item.Get("member_count").Int()),
		Unread:     int(item.Get("unread_count").Int()),
	}
}

func threadFromJSON(item gjson.Result) Thread {
	return Thread{
		ID:           item.Get("id").String(),
		ChannelID:    item.Get("channel_id").String(),
		ChannelName:  item.Get("channel_name").String(),
		Title:        item.Get("title").String(),
		Author:       userFromJSON(item.Get("author")),
		CreatedAt:    parseTime(item.Get("created_at")),
		UpdatedAt:    parseTime(item.Get("updated_at")),
		CommentCount: int(item.Get("comment_count").Int()),
		Unread:       int(item.Get("unread_count").Int()),
	}
}

func commentFromJSON(item gjson.Result) Comment {
	comment := Comment{
		ID:        item.Get("id").String(),
		ThreadID:  item.Get("thread_id").String(),
		Author:    userFromJSON(item.Get("author")),
		Body:      item.Get("body").String(),
		CreatedAt: parseTime(item.Get("created_at")),
		Edited:    item.Get("edited").Bool(),
	}
	item.Get("reactions").ForEach(func(_, reaction gjson.Result) bool {
		comment.Reactions = append(comment.Reactions, Reaction{
			Emoji: reaction.Get("emoji").String(),
			Count: int(reaction.Get("count").Int()),
		})
		return true
	})
	return comment
}

func inboxEntryFromJSON(item gjson.Result) InboxEntry {
	return InboxEntry{
		ThreadID:    item.Get("thread_id").String(),
		ChannelName: item.Get("channel_name").String(),
		Title:       item.Get("title").String(),
		LastAuthor:  item.Get("last_author").String(),
		Unread:      int(item.Get("unread_count").Int()),
		UpdatedAt:   parseTime(item.Get("updated_at")),
	}
}

func notificationFromJSON(item gjson.Result) Notification {
	return Notification{
		ID:        item.Get("id").String(),
		Kind:      item.Get("kind").String(),
		Text:      item.Get("text").String(),
		ThreadID:  item.Get("thread_id").String(),
		Read:      item.Get("read").Bool(),
		CreatedAt: parseTime(item.Get("created_at")),
	}
}

func searchHitFromJSON(item gjson.Result) SearchHit {
	return SearchHit{
		ThreadID:    item.Get("thread_id").String(),
		ChannelName: item.Get("channel_name").String(),
		Title:       item.Get("title").String(),
		Snippet:     item.Get("snippet").String(),
		Author:      item.Get("author").String(),
		UpdatedAt:   parseTime(item.Get("updated_at")),
	}
}
