package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/usagegate/usagegate"
	"github.com/usagegate/usagegate/api/middleware"
	"github.com/usagegate/usagegate/config"
	"github.com/usagegate/usagegate/internal/lock"
	"github.com/usagegate/usagegate/internal/session"
	"github.com/usagegate/usagegate/store"
)

type Api struct {
	gate     *usagegate.UsageGate
	sessions *session.Manager
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.POST("/webhook", a.PaymentWebhook)

	router.POST("/consume", a.ConsumeUse)
	router.POST("/check", a.CheckStatus)
	router.POST("/preview", a.PreviewUse)

	router.POST("/reservations", a.ReserveUse)
	router.GET("/reservations/:request_id", a.GetReservation)
	router.PUT("/reservations/:request_id/commit", a.CommitReservation)
	router.PUT("/reservations/:request_id/cancel", a.CancelReservation)

	router.POST("/otp", a.CreateOTP)
	router.POST("/login", a.Login)
	router.POST("/logout", a.Logout)
	router.GET("/verify-session", a.VerifySession)

	admin := router.Group("/records", middleware.SessionAuthMiddleware(a.sessions))
	admin.GET("", a.GetRecords)
	admin.GET("/search", a.SearchRecords)
	admin.PUT("/:id", a.UpdateRecord)
	admin.DELETE("/:id", a.DeleteRecord)

	return a.router
}

// NewAPI wires the HTTP surface over a shared datasource. The ledger and
// the session manager share one gate so that every document mutation in the
// store directory stays serialized. The configuration must be loaded first.
func NewAPI(ds store.DataSource) (*Api, error) {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	sharedGate := lock.NewGate()
	svc := usagegate.NewUsageGate(ds, sharedGate)
	sessions := session.NewManager(ds, sharedGate,
		time.Duration(conf.Session.TTLHours)*time.Hour)

	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{gate: svc, sessions: sessions, router: r}, nil
}
