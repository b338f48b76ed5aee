package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"postboard/internal/logging"
	"postboard/internal/services"
)

const postNotFound = "Post not found."

type PostController struct {
	responder
	posts *services.PostService
}

func NewPostController(posts *services.PostService, log logging.Logger, exposeInternal bool) *PostController {
	return &PostController{
		responder: responder{log: log, exposeInternal: exposeInternal},
		posts:     posts,
	}
}

func (p *PostController) List(c *gin.Context) {
	list, err := p.posts.List(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	p.ok(c, http.StatusOK, gin.H{"data": list})
}

func (p *PostController) Get(c *gin.Context) {
	id, ok := p.idParam(c, "id", postNotFound)
	if !ok {
		return
	}
	post, err := p.posts.GetByID(c.Request.Context(), id)
	if err != nil {
		p.fail(c, err)
		return
	}
	p.ok(c, http.StatusOK, gin.H{"data": post})
}

// ListByUser serves /user/:id/posts. An unknown user has no posts.
func (p *PostController) ListByUser(c *gin.Context) {
	id, ok := p.idParam(c, "id", "User not found.")
	if !ok {
		return
	}
	list, err := p.posts.ListByUser(c.Request.Context(), id)
	if err != nil {
		p.fail(c, err)
		return
	}
	p.ok(c, http.StatusOK, gin.H{"data": list})
}

func (p *PostController) Create(c *gin.Context) {
	var in services.PostInput
	if !p.bind(c, &in) {
		return
	}
	post, err := p.posts.Create(c.Request.Context(), in)
	if err != nil {
		p.fail(c, err)
		return
	}
	p.ok(c, http.StatusCreated, gin.H{"data": post})
}

func (p *PostController) Update(c *gin.Context) {
	id, ok := p.idParam(c, "id", postNotFound)
	if !ok {
		return
	}
	var in services.PostInput
	if !p.bind(c, &in) {
		return
	}
	post, err := p.posts.Update(c.Request.Context(), id, in)
	if err != nil {
		p.fail(c, err)
		return
	}
	p.ok(c, http.StatusOK, gin.H{"data": post})
}

func (p *PostController) Delete(c *gin.Context) {
	id, ok := p.idParam(c, "id", postNotFound)
	if !ok {
		return
	}
	if err := p.posts.Delete(c.Request.Context(), id); err != nil {
		p.fail(c, err)
		return
	}
	p.ok(c, http.StatusOK, gin.H{"message": "Post deleted."})
}
