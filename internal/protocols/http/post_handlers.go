package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"inkwell/pkg/models"
)

// listPosts lists posts, or searches them when q is given
func (s *Server) listPosts(c *gin.Context) {
	var req models.PostSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	ctx := c.Request.Context()
	if strings.TrimSpace(req.Query) != "" {
		results, err := s.svc.Posts.Search(ctx, req.Query, req.Limit, req.Offset)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "", results)
		return
	}

	page, err := s.svc.Posts.List(ctx, req, viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

func (s *Server) createPost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title and content are required")
		return
	}

	post, err := s.svc.Posts.Create(c.Request.Context(), viewer(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Post created successfully", post)
}

func (s *Server) getPost(c *gin.Context) {
	post, err := s.svc.Posts.GetBySlug(c.Request.Context(), c.Param("slug"), viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", post)
}

func (s *Server) updatePost(c *gin.Context) {
	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	post, err := s.svc.Posts.Update(c.Request.Context(), c.Param("slug"), viewer(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Post updated successfully", post)
}

func (s *Server) publishPost(c *gin.Context) {
	post, err := s.svc.Posts.Publish(c.Request.Context(), c.Param("slug"), viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Post published", post)
}

func (s *Server) deletePost(c *gin.Context) {
	if err := s.svc.Posts.Delete(c.Request.Context(), c.Param("slug"), viewer(c)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Post deleted successfully", nil)
}

func (s *Server) likePost(c *gin.Context) {
	userID, _ := GetUserID(c)
	result, err := s.svc.Likes.TogglePostLike(c.Request.Context(), userID, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", result)
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.svc.Categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", categories)
}

func (s *Server) createCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	category, err := s.svc.Categories.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Category created", category)
}

func (s *Server) deleteCategory(c *gin.Context) {
	if err := s.svc.Categories.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Category deleted", nil)
}
