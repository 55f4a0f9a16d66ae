package http

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/game"
	"neon-arcade/internal/game/memory"
	"neon-arcade/internal/game/simon"
	"neon-arcade/internal/ratelimit"
	"neon-arcade/internal/service"
)

const ctxUserKey = "arcade.user"

// Handler wires HTTP routes to domain services. It is the portal's
// presentation adapter: engines expose snapshots and input surfaces,
// never gin types.
type Handler struct {
	auth    service.AuthService
	stats   service.StatsService
	games   *game.Manager
	limiter *ratelimit.Limiter
	logger  *logrus.Logger
}

func NewHandler(auth service.AuthService, stats service.StatsService, games *game.Manager, limiter *ratelimit.Limiter, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		auth:    auth,
		stats:   stats,
		games:   games,
		limiter: limiter,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.rateLimited, h.register)
			authGroup.POST("/login", h.rateLimited, h.login)
			authGroup.GET("/session", h.currentSession)
			authGroup.POST("/logout", h.authRequired, h.logout)
		}

		api.GET("/dashboard", h.authRequired, h.dashboard)

		simonGroup := api.Group("/games/simon", h.authRequired)
		{
			simonGroup.GET("", h.simonState)
			simonGroup.POST("/start", h.simonStart)
			simonGroup.POST("/picks", h.simonPick)
			simonGroup.POST("/difficulty", h.simonDifficulty)
		}

		memoryGroup := api.Group("/games/memory", h.authRequired)
		{
			memoryGroup.GET("", h.memoryState)
			memoryGroup.POST("/start", h.memoryStart)
			memoryGroup.POST("/picks", h.memoryPick)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) rateLimited(c *gin.Context) {
	if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}
	c.Next()
}

func (h *Handler) authRequired(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	_, user, err := h.auth.ValidateSession(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or invalid"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Set(ctxUserKey, user)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

type registerRequest struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name" binding:"required"`
	Email           string `json:"email" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        req.FullName,
		Email:           req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists, please choose another"})
		default:
			h.logger.Warnf("register: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user, true))
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, token, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountLocked):
			c.JSON(http.StatusLocked, gin.H{"error": "account temporarily locked after repeated failures, try again later"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		default:
			h.logger.Warnf("login: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	_, user, err := h.auth.ValidateSession(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		User:      userToResponse(user, true),
	})
}

// currentSession answers the login page's "already signed in?" probe.
func (h *Handler) currentSession(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	_, user, err := h.auth.ValidateSession(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user, true))
}

func (h *Handler) logout(c *gin.Context) {
	user := currentUser(c)
	if user != nil {
		h.games.Drop(user.ID)
	}
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		h.logger.Warnf("logout: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

type dashboardResponse struct {
	Me      UserResponse   `json:"me"`
	Players []UserResponse `json:"players"`
}

func (h *Handler) dashboard(c *gin.Context) {
	me := currentUser(c)

	players, err := h.stats.Players(c.Request.Context())
	if err != nil {
		h.logger.Warnf("dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load players"})
		return
	}

	// current user first, then by username
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].ID == me.ID {
			return true
		}
		if players[j].ID == me.ID {
			return false
		}
		return players[i].Username < players[j].Username
	})

	resp := dashboardResponse{Me: userToResponse(me, true)}
	for i := range players {
		resp.Players = append(resp.Players, userToResponse(&players[i], players[i].ID == me.ID))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) simonState(c *gin.Context) {
	user := currentUser(c)
	engine := h.games.SimonFor(user)
	c.JSON(http.StatusOK, h.simonResponse(user, engine))
}

func (h *Handler) simonStart(c *gin.Context) {
	user := currentUser(c)
	engine := h.games.SimonFor(user)
	engine.Start(c.Request.Context())
	c.JSON(http.StatusOK, h.simonResponse(user, engine))
}

type simonPickRequest struct {
	Pad *int `json:"pad" binding:"required"`
}

func (h *Handler) simonPick(c *gin.Context) {
	var req simonPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	engine := h.games.SimonFor(user)
	engine.Pick(c.Request.Context(), *req.Pad)
	c.JSON(http.StatusOK, h.simonResponse(user, engine))
}

type simonDifficultyRequest struct {
	Difficulty string `json:"difficulty" binding:"required"`
}

func (h *Handler) simonDifficulty(c *gin.Context) {
	var req simonDifficultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	diff, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown difficulty"})
		return
	}

	user := currentUser(c)
	engine := h.games.SimonFor(user)
	if err := engine.SelectDifficulty(c.Request.Context(), diff); err != nil {
		if errors.Is(err, simon.ErrDifficultyLocked) {
			c.JSON(http.StatusForbidden, gin.H{"error": "that difficulty is locked, finish the current mode to unlock it"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.simonResponse(user, engine))
}

func (h *Handler) memoryState(c *gin.Context) {
	user := currentUser(c)
	engine := h.games.MemoryFor(user)
	c.JSON(http.StatusOK, h.memoryResponse(user, engine))
}

func (h *Handler) memoryStart(c *gin.Context) {
	user := currentUser(c)
	engine := h.games.MemoryFor(user)
	engine.Start(c.Request.Context())
	c.JSON(http.StatusOK, h.memoryResponse(user, engine))
}

type memoryPickRequest struct {
	Tile *int `json:"tile" binding:"required"`
}

func (h *Handler) memoryPick(c *gin.Context) {
	var req memoryPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	engine := h.games.MemoryFor(user)
	engine.Pick(c.Request.Context(), *req.Tile)
	c.JSON(http.StatusOK, h.memoryResponse(user, engine))
}

type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"full_name,omitempty"`
	Email       string `json:"email,omitempty"`
	TotalLogins int    `json:"total_logins"`
	Points      int    `json:"points"`
	LastPlayed  string `json:"last_played,omitempty"`
	MemoryLevel string `json:"memory_level"`
	SimonDiff   string `json:"simon_difficulty"`
	IsMe        bool   `json:"is_me,omitempty"`
}

func userToResponse(user *domain.User, isMe bool) UserResponse {
	resp := UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		FullName:    user.FullName,
		Email:       user.Email,
		TotalLogins: user.Stats.TotalLogins,
		Points:      user.Stats.Points,
		MemoryLevel: string(user.Stats.MemoryLevel),
		SimonDiff:   string(user.Stats.Simon.CurrentDiff),
		IsMe:        isMe,
	}
	if user.Stats.LastPlayed != nil {
		resp.LastPlayed = user.Stats.LastPlayed.Format(time.RFC3339)
	}
	return resp
}

// SimonEventResponse is one replayed engine event. Clients animate the
// presented sequence from the lit_pad values, in order.
type SimonEventResponse struct {
	Phase      string `json:"phase"`
	LitPad     int    `json:"lit_pad"`
	Difficulty string `json:"difficulty"`
	Round      int    `json:"round"`
	Best       int    `json:"best"`
}

type SimonStateResponse struct {
	Phase       string               `json:"phase"`
	Difficulty  string               `json:"difficulty"`
	UnlockedMax string               `json:"unlocked_max"`
	Pads        int                  `json:"pads"`
	Round       int                  `json:"round"`
	MaxRounds   int                  `json:"max_rounds"`
	Best        int                  `json:"best"`
	Sequence    int                  `json:"sequence_length"`
	Events      []SimonEventResponse `json:"events"`
}

// simonResponse pairs the snapshot with the events buffered since the
// user's last poll.
func (h *Handler) simonResponse(user *domain.User, engine *simon.Engine) SimonStateResponse {
	resp := simonToResponse(engine.Snapshot())
	for _, ev := range h.games.DrainSimonEvents(user.ID) {
		resp.Events = append(resp.Events, SimonEventResponse{
			Phase:      ev.Phase.String(),
			LitPad:     ev.LitPad,
			Difficulty: ev.HUD.Difficulty,
			Round:      ev.HUD.Round,
			Best:       ev.HUD.Best,
		})
	}
	return resp
}

func simonToResponse(s simon.Snapshot) SimonStateResponse {
	return SimonStateResponse{
		Phase:       s.Phase.String(),
		Difficulty:  string(s.Difficulty),
		UnlockedMax: string(s.UnlockedMax),
		Pads:        s.Pads,
		Round:       s.Round,
		MaxRounds:   s.MaxRounds,
		Best:        s.Best,
		Sequence:    s.Sequence,
	}
}

type MemoryTileResponse struct {
	Symbol   string `json:"symbol,omitempty"`
	Revealed bool   `json:"revealed"`
	Matched  bool   `json:"matched"`
}

// MemoryEventResponse is one replayed engine event.
type MemoryEventResponse struct {
	Phase   string `json:"phase"`
	Tile    int    `json:"tile"`
	Level   string `json:"level"`
	Moves   int    `json:"moves"`
	Matches int    `json:"matches"`
	Points  int    `json:"points"`
}

type MemoryStateResponse struct {
	Phase   string                `json:"phase"`
	Level   string                `json:"level"`
	Columns int                   `json:"columns"`
	Tiles   []MemoryTileResponse  `json:"tiles"`
	Moves   int                   `json:"moves"`
	Matches int                   `json:"matches"`
	Pairs   int                   `json:"pairs"`
	Points  int                   `json:"points"`
	Events  []MemoryEventResponse `json:"events"`
}

// memoryResponse pairs the snapshot with the events buffered since the
// user's last poll.
func (h *Handler) memoryResponse(user *domain.User, engine *memory.Engine) MemoryStateResponse {
	resp := memoryToResponse(engine.Snapshot())
	for _, ev := range h.games.DrainMemoryEvents(user.ID) {
		resp.Events = append(resp.Events, MemoryEventResponse{
			Phase:   ev.Phase.String(),
			Tile:    ev.Tile,
			Level:   ev.HUD.Level,
			Moves:   ev.HUD.Moves,
			Matches: ev.HUD.Matches,
			Points:  ev.HUD.Points,
		})
	}
	return resp
}

func memoryToResponse(s memory.Snapshot) MemoryStateResponse {
	resp := MemoryStateResponse{
		Phase:   s.Phase.String(),
		Level:   string(s.Level),
		Columns: s.Columns,
		Moves:   s.Moves,
		Matches: s.Matches,
		Pairs:   s.Pairs,
		Points:  s.Points,
	}
	for _, t := range s.Tiles {
		resp.Tiles = append(resp.Tiles, MemoryTileResponse{
			Symbol:   t.Symbol,
			Revealed: t.Revealed,
			Matched:  t.Matched,
		})
	}
	return resp
}
