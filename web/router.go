package web

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/deemkeen/dodo/engine"
	"github.com/deemkeen/dodo/store"
	"github.com/deemkeen/dodo/util"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"golang.org/x/time/rate"
)

// Router starts the widget HTTP server and blocks until it exits.
func Router(conf *util.AppConfig, eng *engine.Engine) error {
	log.Printf("Starting widget server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	g := newRouter(conf, eng)
	return g.Run(fmt.Sprintf(":%d", conf.Conf.HttpPort))
}

func newRouter(conf *util.AppConfig, eng *engine.Engine) *gin.Engine {
	g := gin.New()
	g.Use(gin.Recovery())
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	// Max 64KB request body size, nothing here needs more
	maxBodySize := MaxBytesMiddleware(64 * 1024)

	g.GET("/conversations", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		offset, _ := strconv.Atoi(c.Query("offset"))

		result := eng.Full(c.Request.Context(), limit, offset)
		if result.State == engine.StateFailed {
			c.JSON(http.StatusBadGateway, result)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	g.POST("/dismiss", maxBodySize, func(c *gin.Context) {
		var body struct {
			TweetId    string `json:"tweet_id"`
			ReplyCount int    `json:"reply_count"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.TweetId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tweet_id is required"})
			return
		}

		eng.Dismiss(body.TweetId, body.ReplyCount)
		c.JSON(http.StatusOK, gin.H{"dismissed": body.TweetId})
	})

	g.POST("/undismiss", maxBodySize, func(c *gin.Context) {
		var body struct {
			TweetId string `json:"tweet_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.TweetId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tweet_id is required"})
			return
		}

		eng.Undismiss(body.TweetId)
		c.JSON(http.StatusOK, gin.H{"restored": body.TweetId})
	})

	// Called by the auth-completion flow once the connected handle is known.
	g.POST("/identity", maxBodySize, func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
			return
		}

		eng.Store().SetIdentity(body.Username)
		username, _ := eng.Store().GetIdentity()
		c.JSON(http.StatusOK, gin.H{"username": username})
	})

	g.GET("/avatar/:handle", func(c *gin.Context) {
		handle := util.NormalizeHandle(c.Param("handle"))
		avatar, ok := eng.Avatars().FetchOrGet(c.Request.Context(), handle, store.FallbackAvatarUrl(handle))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "avatar not available"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"handle": handle, "avatar": avatar})
	})

	// RSS Feed of the current action queue
	g.GET("/feed", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")

		rss, err := GetRSS(c.Request.Context(), conf, eng)
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rss})
		}
	})

	return g
}
