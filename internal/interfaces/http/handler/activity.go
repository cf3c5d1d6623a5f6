package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	activityapp "github.com/gmja/storefront/internal/application/activity"
	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

// ActivityHandler serves the activity stream: follows, actor streams and
// the user's feed
type ActivityHandler struct {
	BaseHandler
	activity *activityapp.ActivityService
}

// NewActivityHandler creates the activity stream views
func NewActivityHandler(app *App) *ActivityHandler {
	return &ActivityHandler{activity: app.Activity}
}

// Routes returns the activity URL table
func (h *ActivityHandler) Routes() *router.Table {
	auth := middleware.APIAuthRequired()
	return router.NewTable().
		POST("follow/<str:content_type>/<int:object_id>/", "follow", auth, h.Follow).
		POST("unfollow/<str:content_type>/<int:object_id>/", "unfollow", auth, h.Unfollow).
		GET("followers/<str:content_type>/<int:object_id>/", "followers", h.Followers).
		GET("following/<int:user_id>/", "following", h.Following).
		GET("actors/<str:content_type>/<int:object_id>/", "actor", h.ActorStream).
		GET("feed/", "feed", auth, h.Feed).
		GET("detail/<int:action_id>/", "detail", h.Detail)
}

// objectRef reads the content type and object id of the URL
func objectRef(c *gin.Context) (activity.Ref, error) {
	ct, err := activity.ParseContentType(c.Param("content_type"))
	if err != nil {
		return activity.Ref{}, err
	}
	return activity.Ref{Type: ct, ID: uintParam(c, "object_id")}, nil
}

// Follow makes the current user follow an object. The body is optional.
func (h *ActivityHandler) Follow(c *gin.Context) {
	object, err := objectRef(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req activityapp.FollowRequest
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}

	follow, err := h.activity.Follow(c.Request.Context(), middleware.CurrentUser(c).ID, object, req.ActorOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, follow)
}

// Unfollow stops following an object
func (h *ActivityHandler) Unfollow(c *gin.Context) {
	object, err := objectRef(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.activity.Unfollow(c.Request.Context(), middleware.CurrentUser(c).ID, object); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Followers lists who follows an object
func (h *ActivityHandler) Followers(c *gin.Context) {
	object, err := objectRef(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	followers, err := h.activity.Followers(c.Request.Context(), object, listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, followers))
}

// Following lists what a user follows
func (h *ActivityHandler) Following(c *gin.Context) {
	follows, err := h.activity.Following(c.Request.Context(), uintParam(c, "user_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, follows)
}

// ActorStream lists the public actions of an actor
func (h *ActivityHandler) ActorStream(c *gin.Context) {
	actor, err := objectRef(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	stream, err := h.activity.ActorStream(c.Request.Context(), actor, listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, stream))
}

// Feed is the current user's stream
func (h *ActivityHandler) Feed(c *gin.Context) {
	stream, err := h.activity.UserStream(c.Request.Context(), middleware.CurrentUser(c).ID, listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, stream))
}

// Detail returns one action. Staff also see private actions.
func (h *ActivityHandler) Detail(c *gin.Context) {
	get := h.activity.Get
	if middleware.CurrentPrincipal(c).IsStaff() {
		get = h.activity.GetAny
	}
	action, err := get(c.Request.Context(), uintParam(c, "action_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}
