package service

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/trellis-ai/trellis-ai/app/core"
	"github.com/trellis-ai/trellis-ai/app/response"
	"github.com/trellis-ai/trellis-ai/cmd/service/handler"
	"github.com/trellis-ai/trellis-ai/cmd/service/middleware"
	"github.com/trellis-ai/trellis-ai/pkg/metrics"
	"github.com/trellis-ai/trellis-ai/pkg/safe"
)

// serve blocks until the listener fails or a stop signal arrives, then
// drains in-flight requests before returning.
func serve(core *core.Core) error {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	srv := &http.Server{
		Addr:    core.Cfg().Addr,
		Handler: core.HttpEngine(),
	}

	listenErr := make(chan error, 1)
	go safe.Run(func() {
		listenErr <- srv.ListenAndServe()
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return err
	case <-quit:
	}

	// in-flight chat requests may still be waiting on the model
	ctx, cancel := context.WithTimeout(context.Background(), core.Cfg().Chat.ModelTimeout())
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	if err := <-listenErr; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func setupHttpRouter(s *handler.HttpSrv) {
	// Bare scrape endpoint, outside the envelope middlewares.
	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.Metrics(s.Core))

	s.Engine.GET("/ping", func(c *gin.Context) {
		response.APISuccess(c, "pong")
	})

	apiV1 := s.Engine.Group("/api/v1")
	{
		chat := apiV1.Group("/chat")
		{
			chat.GET("/:session", s.GetChatSession)
			chat.DELETE("/:session", s.ResetChatSession)
			chat.PUT("/:session/persona", s.UpdateChatSessionPersona)
			chat.POST("/:session/message", s.CreateChatMessage)
			chat.GET("/:session/history", s.GetChatSessionHistory)
		}

		corpus := apiV1.Group("/corpus")
		{
			corpus.POST("/chunk", s.PutCorpusChunk)
			corpus.GET("/chunk/:id", s.GetCorpusChunk)
			corpus.DELETE("/chunk/:id", s.DeleteCorpusChunk)
			corpus.GET("/list", s.ListCorpusChunks)
			corpus.POST("/query", s.QueryCorpus)
			corpus.POST("/import", s.ImportCorpus)
			corpus.POST("/reload", s.ReloadCorpus)
		}
	}
}
