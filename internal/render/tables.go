package render

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/skeinhq/skein-cli/internal/api"
)

// newTable creates a table writer with the standard style.
func (r *Renderer) newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// header formats a column header.
func (r *Renderer) header(s string) string {
	if !r.color {
		return s
	}
	return text.FgHiCyan.Sprint(s)
}

// Empty prints a message for listings with nothing to show.
func (r *Renderer) Empty(w io.Writer, message string) {
	if r.color {
		message = text.FgYellow.Sprint(message)
	}
	fmt.Fprintln(w, message)
}

// WorkspaceTable renders the workspace listing.
func (r *Renderer) WorkspaceTable(w io.Writer, workspaces []api.Workspace) {
	if len(workspaces) == 0 {
		r.Empty(w, "No workspaces yet.")
		return
	}
	t := r.newTable(w)
	t.AppendHeader(table.Row{r.header("WORKSPACE"), r.header("NAME"), r.header("ROLE"), r.header("MEMBERS")})
	for _, workspace := range workspaces {
		t.AppendRow(table.Row{workspace.Slug, workspace.Name, workspace.Role, workspace.Members})
	}
	t.Render()
}

// ChannelTable renders the channel listing of a workspace.
func (r *Renderer) ChannelTable(w io.Writer, channels []api.Channel) {
	if len(channels) == 0 {
		r.Empty(w, "No channels in this workspace.")
		return
	}
	t := r.newTable(w)
	t.AppendHeader(table.Row{r.header("CHANNEL"), r.header("TOPIC"), r.header("MEMBERS"), r.header("UNREAD")})
	for _, channel := range channels {
		t.AppendRow(table.Row{"#" + channel.Name, truncate(channel.Topic, 48), channel.Members, unreadCell(channel.Unread)})
	}
	t.Render()
}

// ThreadTable renders a thread listing.
func (r *Renderer) ThreadTable(w io.Writer, threads []api.Thread) {
	if len(threads) == 0 {
		r.Empty(w, "No threads here yet.")
		return
	}
	t := r.newTable(w)
	t.AppendHeader(table.Row{r.header("ID"), r.header("CHANNEL"), r.header("TITLE"), r.header("AUTHOR"), r.header("COMMENTS"), r.header("UPDATED")})
	for _, thread := range threads {
		title := truncate(thread.Title, 56)
		if thread.Unread > 0 {
			title = "* " + title
		}
		t.AppendRow(table.Row{thread.ID, "#" + thread.ChannelName, title, "@" + thread.Author.Handle, thread.CommentCount, relativeTime(thread.UpdatedAt)})
	}
	t.Render()
}

// InboxTable renders the inbox listing.
func (r *Renderer) InboxTable(w io.Writer, entries []api.InboxEntry) {
	if len(entries) == 0 {
		r.Empty(w, "Inbox zero. Nothing new.")
		return
	}
	t := r.newTable(w)
	t.AppendHeader(table.Row{r.header("THREAD"), r.header("CHANNEL"), r.header("TITLE"), r.header("LAST BY"), r.header("UNREAD"), r.header("UPDATED")})
	for _, entry := range entries {
		t.AppendRow(table.Row{entry.ThreadID, "#" + entry.ChannelName, truncate(entry.Title, 48), "@" + entry.LastAuthor, unreadCell(entry.Unread), relativeTime(entry.UpdatedAt)})
	}
	t.Render()
}

// NotificationTable renders the notification listing.
func (r *Renderer) NotificationTable(w io.Writer, notifications []api.Notification) {
	if len(notifications) == 0 {
		r.Empty(w, "No notifications.")
		return
	}
	t := r.newTable(w)
	t.AppendHeader(table.Row{r.header("KIND"), r.header("WHAT"), r.header("THREAD"), r.header("WHEN")})
	for _, notification := range notifications {
		what := truncate(notification.Text, 64)
		if !notification.Read {
			what = "* " + what
		}
		t.AppendRow(table.Row{notification.Kind, what, notification.ThreadID, relativeTime(notification.CreatedAt)})
	}
	t.Render()
}

// SearchTable renders search results.
func (r *Renderer) SearchTable(w io.Writer, hits []api.SearchHit) {
	if len(hits) == 0 {
		r.Empty(w, "No matches.")
		return
	}
	t := r.newTable(w)
	t.AppendHeader(table.Row{r.header("THREAD"), r.header("CHANNEL"), r.header("TITLE"), r.header("MATCH"), r.header("UPDATED")})
	for _, hit := range hits {
		t.AppendRow(table.Row{hit.ThreadID, "#" + hit.ChannelName, truncate(hit.Title, 40), truncate(hit.Snippet, 56), relativeTime(hit.UpdatedAt)})
	}
	t.Render()
}

func unreadCell(count int) string {
	if count <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", count)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// relativeTime formats a timestamp as a short age like "5m ago".
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	case age < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
