package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"inkwell/pkg/models"
	"inkwell/pkg/thread"
)

// Thread views accepted by GET /posts/:slug/comments
const (
	viewTree      = "tree"
	viewFlat      = "flat"
	viewDisclosed = "disclosed"
)

// FlatComments is the response of ?view=flat
type FlatComments struct {
	PostID   string           `json:"post_id"`
	Total    int              `json:"total"`
	Comments []models.Comment `json:"comments"`
}

// listComments returns the comments of a post as a tree, a flat list or a
// disclosed tree
func (s *Server) listComments(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := s.svc.Posts.GetBySlug(ctx, c.Param("slug"), viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}

	switch view := c.DefaultQuery("view", viewTree); view {
	case viewTree:
		snap, err := s.svc.Comments.Thread(ctx, post.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "", snap)

	case viewFlat:
		comments, err := s.svc.Comments.List(ctx, post.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "", FlatComments{PostID: post.ID, Total: len(comments), Comments: comments})

	case viewDisclosed:
		expansions, err := thread.ParseExpansions(c.Query("expand"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		snap, err := s.svc.Comments.DisclosedThread(ctx, post.ID, expansions)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "", snap)

	default:
		badRequest(c, fmt.Sprintf("unknown view %q (tree, flat or disclosed)", view))
	}
}

// createComment adds a comment or reply to a post
func (s *Server) createComment(c *gin.Context) {
	userID, _ := GetUserID(c)

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}

	ctx := c.Request.Context()
	post, err := s.svc.Posts.GetBySlug(ctx, c.Param("slug"), viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}

	comment, err := s.svc.Comments.Create(ctx, post.ID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Comment created successfully", comment)
}

// getComment returns a comment together with its reply subtree
func (s *Server) getComment(c *gin.Context) {
	ctx := c.Request.Context()
	comment, err := s.svc.Comments.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := s.svc.Posts.GetByID(ctx, comment.PostID, viewer(c)); err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			err = models.ErrCommentNotFound
		}
		respondError(c, err)
		return
	}

	snap, err := s.svc.Comments.Thread(ctx, comment.PostID)
	if err != nil {
		respondError(c, err)
		return
	}
	node, ok := thread.FindByID(snap.Comments, comment.ID)
	if !ok {
		// deleted between the two reads
		respondError(c, models.ErrCommentNotFound)
		return
	}
	respond(c, http.StatusOK, "", node)
}

func (s *Server) updateComment(c *gin.Context) {
	userID, _ := GetUserID(c)

	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}

	comment, err := s.svc.Comments.Update(c.Request.Context(), c.Param("id"), userID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Comment updated successfully", comment)
}

func (s *Server) deleteComment(c *gin.Context) {
	if err := s.svc.Comments.Delete(c.Request.Context(), c.Param("id"), viewer(c)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Comment deleted successfully", nil)
}

func (s *Server) likeComment(c *gin.Context) {
	userID, _ := GetUserID(c)
	result, err := s.svc.Likes.ToggleCommentLike(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", result)
}
