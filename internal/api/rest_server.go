// Package api exposes a small operator-facing REST surface over the
// running engine: login, live stats, and account administration. It is
// explicitly not a game client protocol — a connected player always talks
// to internal/network's binary opcode channel instead.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/mmo-game/internal/auth"
	"github.com/annel0/mmo-game/internal/engine"
	"github.com/annel0/mmo-game/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RestServer is the admin/status HTTP surface.
type RestServer struct {
	router  *gin.Engine
	users   auth.UserRepository
	eng     *engine.Engine
	port    string
	metrics *ServerMetrics
}

// Config configures a RestServer.
type Config struct {
	Port   string
	Users  auth.UserRepository
	Engine *engine.Engine
}

func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8080"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		users:   config.Users,
		eng:     config.Engine,
		port:    config.Port,
		metrics: NewServerMetrics(),
	}

	server.setupRoutes()
	return server
}

func (rs *RestServer) setupRoutes() {
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := rs.router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", rs.handleLogin)
	}

	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.GET("/stats", rs.handleStats)
		protected.GET("/server", rs.handleServerInfo)

		admin := protected.Group("/admin")
		admin.Use(rs.adminMiddleware())
		{
			admin.POST("/register", rs.handleAdminRegister)
			admin.GET("/users/:id", rs.handleGetUser)
		}
	}

	rs.router.GET("/health", rs.handleHealth)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
	UserID  uint64 `json:"user_id,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{Message: "malformed request"})
		return
	}

	user, err := rs.users.ValidateCredentials(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, LoginResponse{Message: "invalid username or password"})
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{Message: "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Message: "authenticated",
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
	})
}

func (rs *RestServer) handleAdminRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "malformed request"})
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 30 {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "username must be 3-30 characters"})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "password must be at least 6 characters"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Message: "password hashing failed"})
		return
	}

	user, err := rs.users.CreateUser(req.Username, hash, req.IsAdmin)
	if err == auth.ErrUserExists {
		c.JSON(http.StatusConflict, GenericResponse{Message: "user already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Message: "user creation failed"})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "user created",
		Data: map[string]interface{}{
			"user_id":  user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		},
	})
}

func (rs *RestServer) handleGetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "invalid user id"})
		return
	}
	user, err := rs.users.GetUserByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{Message: "user not found"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Data: map[string]interface{}{
			"id":         user.ID,
			"username":   user.Username,
			"is_admin":   user.IsAdmin,
			"created_at": user.CreatedAt,
			"last_login": user.LastLogin,
		},
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	if rs.eng != nil {
		s := rs.eng.Stats()
		stats["world"] = map[string]interface{}{
			"sessions":        s.Sessions,
			"entities":        s.Entities,
			"chunks":          s.Chunks,
			"planes":          s.Planes,
			"inventory":       s.Inventory,
			"engine_clock_ms": s.ClockMS,
		}
	}

	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()
	stats["server"] = map[string]interface{}{
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   memoryMB,
		"cpu_percent": cpuPercent,
		"server_time": time.Now().Unix(),
	}
	stats["memory_details"] = rs.metrics.GetDetailedMemoryStats()

	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: stats})
}

func (rs *RestServer) handleServerInfo(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Data: map[string]interface{}{
			"name":        "mmo-game world-core",
			"status":      "running",
			"uptime":      rs.metrics.GetUptime(),
			"memory_mb":   memoryMB,
			"cpu_percent": cpuPercent,
		},
	})
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

// Start runs the REST server; it blocks until the listener fails.
func (rs *RestServer) Start() error {
	return rs.router.Run(rs.port)
}

// Stop is a placeholder for a future graceful shutdown; gin's
// router.Run doesn't expose a handle to stop cleanly without switching to
// an explicit http.Server, which cmd/server's main can do when it wires
// context cancellation through.
func (rs *RestServer) Stop() error {
	return nil
}
