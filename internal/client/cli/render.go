package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/feed"
	"github.com/dmitrijs2005/gophfeed/internal/client/models"
)

// formatTime renders t in UTC as "15:04, 02/01/2006".
func formatTime(t time.Time) string {
	return t.UTC().Format("15:04, 02/01/2006")
}

func printFeed(w io.Writer, f feed.Feed) {
	if f.Status == feed.StatusNotLoaded {
		fmt.Fprintln(w, "Nothing loaded yet (type 'list' to try again)")
		return
	}
	if len(f.Posts) == 0 {
		fmt.Fprintln(w, "There's nothing here")
		return
	}
	for _, p := range f.Posts {
		printPost(w, p)
	}
}

func printPost(w io.Writer, p models.Post) {
	header := fmt.Sprintf("#%d  %s  %s", p.ID, p.AuthorName, formatTime(p.CreatedAt))
	if p.Edited() {
		header += " (edited)"
	}
	fmt.Fprintln(w, header)
	for _, line := range strings.Split(p.Content, "\n") {
		fmt.Fprintln(w, "    "+line)
	}
}
