// README: Route registration; one gin engine for API, websocket, and ops endpoints.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"freightgo/internal/http/handlers"
	"freightgo/internal/http/middleware"
	"freightgo/internal/ingest"
	"freightgo/internal/modules/account"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/order"
	"freightgo/internal/modules/search"
	"freightgo/internal/modules/tracking"
	"freightgo/internal/notify"
)

type RouterDeps struct {
	Search    *search.Service
	Orders    *order.Service
	Tracking  *tracking.Service
	Fleet     fleet.Store
	Accounts  account.Store
	Hub       *notify.Hub
	Positions ingest.Publisher // optional Kafka position pipeline
	Log       *zap.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	wsHandler := handlers.NewWSHandler(deps.Hub, deps.Log)
	r.GET("/ws", wsHandler.Subscribe)

	api := r.Group("/api", middleware.Identity())

	searchHandler := handlers.NewSearchHandler(deps.Search)
	api.POST("/searches", searchHandler.Create)
	api.GET("/searches/:id", searchHandler.Get)
	api.POST("/searches/:id/refresh", searchHandler.Refresh)
	api.POST("/searches/:id/deactivate", searchHandler.Deactivate)

	jobHandler := handlers.NewJobHandler(deps.Orders)
	api.POST("/jobs", jobHandler.CreateFromSearch)
	api.POST("/jobs/direct", jobHandler.CreateDirect)
	api.GET("/jobs", jobHandler.ListMine)
	api.GET("/jobs/status/:status", jobHandler.ListByStatus)
	api.GET("/jobs/:id", jobHandler.Get)
	api.GET("/jobs/:id/events", jobHandler.Events)
	api.POST("/jobs/:id/accept", jobHandler.Accept)
	api.POST("/jobs/:id/refuse", jobHandler.Refuse)
	api.POST("/jobs/:id/status", jobHandler.ChangeStatus)
	api.POST("/jobs/:id/rating", jobHandler.Evaluate)

	trackingHandler := handlers.NewTrackingHandler(deps.Tracking, deps.Positions)
	api.GET("/jobs/:id/tracking", trackingHandler.Snapshot)
	api.POST("/jobs/:id/steps", trackingHandler.AddStep)
	api.PUT("/drivers/location", trackingHandler.UpdatePosition)
	api.PUT("/drivers/online", trackingHandler.SetOnline)

	fleetHandler := handlers.NewFleetHandler(deps.Fleet)
	api.POST("/vehicles", fleetHandler.RegisterVehicle)
	api.GET("/vehicles/:id", fleetHandler.GetVehicle)
	api.POST("/drivers", fleetHandler.RegisterDriver)

	accountHandler := handlers.NewAccountHandler(deps.Accounts)
	api.POST("/profile", accountHandler.SaveProfile)
	api.GET("/users/:id", accountHandler.Get)

	return r
}
