package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/config"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/observability"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/report"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	prepaiddomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/domain"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	summarydomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/summary/domain"
)

type Server struct {
	log     *zap.Logger
	metrics *observability.Metrics

	rateSvc    ratedomain.Service
	lessonSvc  lessondomain.Service
	prepaidSvc prepaiddomain.Service
	paymentSvc paymentdomain.Service
	summarySvc summarydomain.Service
	exporter   report.Exporter
}

type ServerParam struct {
	fx.In

	Log     *zap.Logger
	Metrics *observability.Metrics

	RateSvc    ratedomain.Service
	LessonSvc  lessondomain.Service
	PrepaidSvc prepaiddomain.Service
	PaymentSvc paymentdomain.Service
	SummarySvc summarydomain.Service
	Exporter   report.Exporter
}

func NewServer(p ServerParam) *Server {
	return &Server{
		log:        p.Log.Named("server"),
		metrics:    p.Metrics,
		rateSvc:    p.RateSvc,
		lessonSvc:  p.LessonSvc,
		prepaidSvc: p.PrepaidSvc,
		paymentSvc: p.PaymentSvc,
		summarySvc: p.SummarySvc,
		exporter:   p.Exporter,
	}
}

func NewEngine(s *Server, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), RequestLogger(log))
	s.RegisterRoutes(engine)
	return engine
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		api.GET("/summary", s.GetMonthlySummary)
		api.GET("/report", s.DownloadReport)

		api.GET("/rate-schedule", s.GetRateSchedule)
		api.PUT("/rate-schedule", s.PutRateSchedule)

		api.POST("/lessons", s.CreateLesson)
		api.POST("/lessons/:id/complete", s.CompleteLesson)
		api.POST("/lessons/:id/uncomplete", s.UncompleteLesson)
		api.POST("/lessons/:id/cancel", s.CancelLesson)
		api.POST("/lessons/cleanup", s.CleanupCancelledLessons)

		api.GET("/prepaid", s.ListPrepaidAccounts)
		api.POST("/prepaid/topup", s.TopupPrepaid)
		api.POST("/prepaid/rollover", s.RolloverPrepaid)

		api.POST("/payments/generate", s.GeneratePayment)
		api.POST("/payments/:id/record", s.RecordPayment)
	}
}

// RunHTTP attaches the engine to the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// @Summary      Health check
// @Tags         system
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
