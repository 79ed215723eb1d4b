package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"market-sim/src/engine"
	"market-sim/src/helpers"
	"market-sim/src/interfaces"
	"market-sim/src/logger"
	"market-sim/src/models"
	"market-sim/src/session"
	"market-sim/src/utils"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Store    interfaces.IMarketStore
	Sessions *session.Manager
	Engine   *engine.TickEngine
	History  *utils.HistoryCache
	engine   *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MLatestData // Strongly typed and Buffered Queue
	register   chan *Client
	unregister chan *Client

	// Local cache
	latestState *models.MLatestData
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, store interfaces.IMarketStore, sessions *session.Manager,
	tickEngine *engine.TickEngine, history *utils.HistoryCache, logger *logger.Logger) *APIServer {

	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Sessions: sessions,
		Engine:   tickEngine,
		History:  history,
		engine:   gin.Default(),
		clients:  make(map[*Client]struct{}),
		// Buffered channel so a burst of updates never blocks the tick loop
		broadcast:  make(chan *models.MLatestData, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		latestState: &models.MLatestData{
			Type:    "INITIAL",
			History: make(map[string][]models.MPricePoint),
		},
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Role")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/state", s.getState)
	s.engine.GET("/api/news", s.getNews)
	s.engine.GET("/api/export", s.getExport)

	// Controller endpoints
	admin := s.engine.Group("/api", s.requireAdmin)
	admin.POST("/tick", s.postTick)
	admin.POST("/news", s.postNews)
	admin.POST("/session/claim", s.postSessionClaim)
	admin.POST("/session/start", s.postSessionStart)
	admin.POST("/session/pause", s.postSessionPause)
	admin.POST("/session/reset", s.postSessionReset)
	admin.POST("/session/heartbeat", s.postSessionHeartbeat)

	// Participant endpoints
	s.engine.POST("/api/trades", s.postTrade)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	close(s.broadcast)
	close(s.register)
	close(s.unregister)
	return nil
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

// requireAdmin gates controller operations. The lab frontend sends the role
// header; this is an access-control convention for a closed classroom
// network, not a security boundary.
func (s *APIServer) requireAdmin(c *gin.Context) {
	if c.GetHeader("X-Role") != "admin" {
		c.AbortWithStatusJSON(403, gin.H{"error": "admin role required"})
		return
	}
	c.Next()
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getState(c *gin.Context) {
	state, err := s.Store.GetMarketState("")
	if err != nil {
		s.fail(c, err)
		return
	}
	if state == nil {
		c.JSON(404, gin.H{"error": "no market state"})
		return
	}
	c.JSON(200, state)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getNews(c *gin.Context) {
	news, err := s.Store.ActiveNews()
	if err != nil {
		s.fail(c, err)
		return
	}
	if news == nil {
		news = []models.MNewsItem{}
	}
	c.JSON(200, news)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getExport(c *gin.Context) {
	trades, err := s.Store.Trades()
	if err != nil {
		s.fail(c, err)
		return
	}
	news, err := s.Store.AllNews()
	if err != nil {
		s.fail(c, err)
		return
	}

	if trades == nil {
		trades = []models.MTrade{}
	}
	if news == nil {
		news = []models.MNewsItem{}
	}
	c.JSON(200, models.MExport{Trades: trades, News: news})
}

// -----------------------------------------------------------------------------

// postTick runs one market step on demand. It bypasses the market-hours
// scheduler: an operator asking for a tick gets a tick.
func (s *APIServer) postTick(c *gin.Context) {
	state := s.Engine.RunTick()
	if state == nil {
		c.JSON(409, gin.H{"error": "market not running"})
		return
	}

	s.PublishLatest()
	c.JSON(200, state)
}

// -----------------------------------------------------------------------------

type newsRequest struct {
	Headline    string  `json:"headline"`
	Description string  `json:"description"`
	Source      string  `json:"source"`
	Sentiment   float64 `json:"sentiment"`
	Optics      float64 `json:"optics"`
	Target      string  `json:"target"`
}

func (s *APIServer) postNews(c *gin.Context) {
	var req newsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	if req.Headline == "" {
		c.JSON(400, gin.H{"error": "headline is required"})
		return
	}
	if req.Sentiment < -1 || req.Sentiment > 1 {
		c.JSON(400, gin.H{"error": "sentiment must be in [-1, 1]"})
		return
	}
	if req.Optics < 0 || req.Optics > 1 {
		c.JSON(400, gin.H{"error": "optics must be in [0, 1]"})
		return
	}
	if req.Target == "" {
		req.Target = models.NewsTargetMarket
	}

	item := models.MNewsItem{
		ID:          uuid.New().String(),
		Headline:    req.Headline,
		Description: req.Description,
		Source:      req.Source,
		Sentiment:   req.Sentiment,
		Optics:      req.Optics,
		Target:      req.Target,
		Timestamp:   time.Now().UnixMilli(),
		Decay:       1.0,
	}

	if err := s.Store.InsertNews(item); err != nil {
		s.fail(c, err)
		return
	}

	s.Logger.Info("News injected: %q (sentiment %.2f, target %s)", item.Headline, item.Sentiment, item.Target)
	s.PublishLatest()
	c.JSON(201, item)
}

// -----------------------------------------------------------------------------

type tradeRequest struct {
	UserID   string  `json:"userId"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Type     string  `json:"type"`
}

// postTrade records a participant trade. Sentiment and the set of live news
// ids are stamped from the current market so the analyzer can reconstruct
// the environment the trader saw.
func (s *APIServer) postTrade(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	if req.UserID == "" || req.Symbol == "" {
		c.JSON(400, gin.H{"error": "userId and symbol are required"})
		return
	}
	if req.Quantity <= 0 {
		c.JSON(400, gin.H{"error": "quantity must be positive"})
		return
	}
	if req.Type != models.TradeBuy && req.Type != models.TradeSell {
		c.JSON(400, gin.H{"error": "type must be buy or sell"})
		return
	}

	state, err := s.Store.GetMarketState("")
	if err != nil {
		s.fail(c, err)
		return
	}
	if state == nil || state.SessionStatus != models.SessionActive {
		c.JSON(409, gin.H{"error": "market not running"})
		return
	}

	stock, ok := state.Prices[req.Symbol]
	if !ok {
		c.JSON(400, gin.H{"error": "unknown symbol"})
		return
	}

	price := req.Price
	if price <= 0 {
		price = stock.Price
	}

	news, err := s.Store.ActiveNews()
	if err != nil {
		s.fail(c, err)
		return
	}
	newsContext := make([]string, 0, len(news))
	for _, n := range news {
		newsContext = append(newsContext, n.ID)
	}

	trade := models.MTrade{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Symbol:      req.Symbol,
		Quantity:    req.Quantity,
		Price:       price,
		Type:        req.Type,
		Timestamp:   time.Now().UnixMilli(),
		Sentiment:   stock.Sentiment,
		NewsContext: newsContext,
	}

	if err := s.Store.InsertTrade(trade); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(201, trade)
}

// -----------------------------------------------------------------------------
// Session Handlers
// -----------------------------------------------------------------------------

type sessionRequest struct {
	UserID string `json:"userId"`
}

func (s *APIServer) bindSession(c *gin.Context) (string, bool) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(400, gin.H{"error": "userId is required"})
		return "", false
	}
	return req.UserID, true
}

// -----------------------------------------------------------------------------

func (s *APIServer) postSessionClaim(c *gin.Context) {
	userID, ok := s.bindSession(c)
	if !ok {
		return
	}

	sess, err := s.Sessions.Claim(userID)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.PublishLatest()
	c.JSON(201, sess)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postSessionStart(c *gin.Context) {
	s.sessionTransition(c, s.Sessions.Start)
}

func (s *APIServer) postSessionPause(c *gin.Context) {
	s.sessionTransition(c, s.Sessions.Pause)
}

func (s *APIServer) postSessionReset(c *gin.Context) {
	s.sessionTransition(c, s.Sessions.Reset)
}

// -----------------------------------------------------------------------------

func (s *APIServer) sessionTransition(c *gin.Context, op func(string) (*models.MMarketState, error)) {
	userID, ok := s.bindSession(c)
	if !ok {
		return
	}

	state, err := op(userID)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.PublishLatest()
	c.JSON(200, state)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postSessionHeartbeat(c *gin.Context) {
	userID, ok := s.bindSession(c)
	if !ok {
		return
	}

	if err := s.Sessions.Heartbeat(userID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}

// -----------------------------------------------------------------------------
// Error Mapping
// -----------------------------------------------------------------------------

func (s *APIServer) fail(c *gin.Context, err error) {
	var validation *helpers.ValidationError
	if errors.As(err, &validation) {
		c.JSON(400, gin.H{"error": validation.Message})
		return
	}

	s.Logger.Error("Request failed: %v", err)
	c.JSON(500, gin.H{"error": "internal error"})
}
