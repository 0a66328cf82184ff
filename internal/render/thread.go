package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/skeinhq/skein-cli/internal/api"
)

// ThreadView renders a thread header followed by its comments.
func (r *Renderer) ThreadView(w io.Writer, thread *api.Thread, comments []api.Comment) {
	fmt.Fprintln(w, r.styled(titleStyle, thread.Title))
	meta := fmt.Sprintf("#%s · started by @%s · %s", thread.ChannelName, thread.Author.Handle, countLabel(thread.CommentCount, "comment"))
	fmt.Fprintln(w, r.styled(mutedStyle, meta))
	fmt.Fprintln(w)
	for i := range comments {
		r.CommentView(w, &comments[i])
	}
}

// CommentView renders a single comment with its author line, body and reactions.
func (r *Renderer) CommentView(w io.Writer, comment *api.Comment) {
	head := "@" + comment.Author.Handle
	sub := relativeTime(comment.CreatedAt)
	if comment.Edited {
		sub += " · edited"
	}
	fmt.Fprintf(w, "%s  %s\n", r.styled(authorStyle, head), r.styled(mutedStyle, sub))
	fmt.Fprintln(w, r.Markdown(comment.Body))
	if len(comment.Reactions) > 0 {
		parts := make([]string, 0, len(comment.Reactions))
		for _, reaction := range comment.Reactions {
			parts = append(parts, fmt.Sprintf("%s %d", reaction.Emoji, reaction.Count))
		}
		fmt.Fprintln(w, r.styled(mutedStyle, strings.Join(parts, "  ")))
	}
	fmt.Fprintln(w)
}

// UserCard renders the whoami summary.
func (r *Renderer) UserCard(w io.Writer, user *api.User) {
	fmt.Fprintf(w, "%s  %s\n", r.styled(titleStyle, user.DisplayName), r.styled(mutedStyle, "@"+user.Handle))
	if user.Email != "" {
		fmt.Fprintln(w, user.Email)
	}
	if user.Status != "" {
		fmt.Fprintf(w, "%s %s\n", r.styled(mutedStyle, "status:"), user.Status)
	}
}

func countLabel(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
