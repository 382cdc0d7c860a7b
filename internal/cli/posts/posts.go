package posts

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/pkg/models"
)

var PostsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Browse posts",
	Long:  "List, search and read published posts",
}

func writePost(w io.Writer, i int, p models.PostWithAuthor) {
	fmt.Fprintf(w, "%d. %s\n", i, p.Title)
	fmt.Fprintf(w, "   Author: %s\n", p.AuthorName)
	if p.CategoryName != "" {
		fmt.Fprintf(w, "   Category: %s\n", p.CategoryName)
	}
	if p.PublishedAt != nil {
		fmt.Fprintf(w, "   Published: %s\n", p.PublishedAt.Local().Format("2006-01-02 15:04"))
	} else {
		fmt.Fprintf(w, "   Status: %s\n", p.Status)
	}
	fmt.Fprintf(w, "   Likes: %d  Comments: %d\n", p.LikesCount, p.CommentsCount)
	if p.Excerpt != "" {
		fmt.Fprintf(w, "   %s\n", strings.TrimSpace(p.Excerpt))
	}
	fmt.Fprintf(w, "   Slug: %s\n\n", p.Slug)
}

func writeMore(w io.Writer, meta models.PaginationMeta) {
	if meta.HasMore {
		fmt.Fprintf(w, "More results: use --offset %d\n", meta.Offset+meta.Limit)
	}
}
