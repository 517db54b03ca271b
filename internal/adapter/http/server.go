package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plutusapp/plutus-backend/internal/adapter/repository/postgres"
	"github.com/plutusapp/plutus-backend/internal/domain"
	"github.com/plutusapp/plutus-backend/internal/usecase/networth"
	"github.com/plutusapp/plutus-backend/internal/usecase/performance"
)

// Handler exposes the reconstruction engine over HTTP
type Handler struct {
	DB          *postgres.DB
	NetWorth    *networth.Service
	Performance *performance.Service
	Logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(db *postgres.DB, netWorthService *networth.Service, performanceService *performance.Service, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		NetWorth:    netWorthService,
		Performance: performanceService,
		Logger:      logger,
	}
}

// Register attaches all routes to the engine
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)

	api := r.Group("/api/v1")
	api.GET("/performance", h.performanceData)
	api.GET("/networth", h.netWorth)
	api.GET("/networth/history", h.netWorthHistory)
	api.GET("/wallets/:id/networth", h.walletNetWorth)
	api.POST("/snapshots/recalculate", h.recalculate)
}

func (h *Handler) health(c *gin.Context) {
	if err := h.DB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type performancePoint struct {
	Month            string          `json:"month"`
	InvestedValue    decimal.Decimal `json:"invested_value"`
	PortfolioValue   decimal.Decimal `json:"portfolio_value"`
	AccumulatedGains decimal.Decimal `json:"accumulated_gains"`
	MonthlyGains     decimal.Decimal `json:"monthly_gains"`
}

func (h *Handler) performanceData(c *gin.Context) {
	series, err := h.Performance.GetPerformanceData(c.Request.Context())
	if err != nil {
		h.Logger.Error("performance read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load performance data"})
		return
	}

	points := make([]performancePoint, 0, len(series.Months))
	for _, month := range series.Months {
		points = append(points, performancePoint{
			Month:            month.String(),
			InvestedValue:    series.InvestedValue[month],
			PortfolioValue:   series.PortfolioValue[month],
			AccumulatedGains: series.AccumulatedGains[month],
			MonthlyGains:     series.MonthlyGains[month],
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": points})
}

type netWorthResponse struct {
	Month                  int             `json:"month"`
	Year                   int             `json:"year"`
	Assets                 decimal.Decimal `json:"assets"`
	Liabilities            decimal.Decimal `json:"liabilities"`
	NetWorth               decimal.Decimal `json:"net_worth"`
	WalletBalances         decimal.Decimal `json:"wallet_balances"`
	Investments            decimal.Decimal `json:"investments"`
	CreditCardDebt         decimal.Decimal `json:"credit_card_debt"`
	NegativeWalletBalances decimal.Decimal `json:"negative_wallet_balances"`
	CalculatedAt           time.Time       `json:"calculated_at"`
}

func toNetWorthResponse(s *domain.NetWorthSnapshot) netWorthResponse {
	return netWorthResponse{
		Month:                  s.Month,
		Year:                   s.Year,
		Assets:                 s.Assets,
		Liabilities:            s.Liabilities,
		NetWorth:               s.NetWorth,
		WalletBalances:         s.WalletBalances,
		Investments:            s.Investments,
		CreditCardDebt:         s.CreditCardDebt,
		NegativeWalletBalances: s.NegativeWalletBalances,
		CalculatedAt:           s.CalculatedAt,
	}
}

// monthParam parses the month and year query parameters, defaulting to the
// current month when both are absent.
func monthParam(c *gin.Context) (domain.Month, bool) {
	monthStr := c.Query("month")
	yearStr := c.Query("year")
	if monthStr == "" && yearStr == "" {
		return domain.MonthOf(time.Now()), true
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return domain.Month{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 {
		return domain.Month{}, false
	}

	return domain.NewMonth(year, month), true
}

func (h *Handler) netWorth(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month or year"})
		return
	}

	snapshot, err := h.NetWorth.NetWorthForMonth(c.Request.Context(), month)
	if err != nil {
		h.Logger.Error("net worth reconstruction failed",
			zap.String("month", month.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute net worth"})
		return
	}

	c.JSON(http.StatusOK, toNetWorthResponse(snapshot))
}

func (h *Handler) netWorthHistory(c *gin.Context) {
	snapshots, err := h.NetWorth.History(c.Request.Context())
	if err != nil {
		h.Logger.Error("net worth history read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	history := make([]netWorthResponse, 0, len(snapshots))
	for _, s := range snapshots {
		history = append(history, toNetWorthResponse(s))
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}

func (h *Handler) walletNetWorth(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet id"})
		return
	}

	month, ok := monthParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month or year"})
		return
	}

	balance, err := h.NetWorth.WalletNetWorthForMonth(c.Request.Context(), walletID, month)
	if err != nil {
		h.Logger.Error("wallet net worth reconstruction failed",
			zap.String("wallet_id", walletID.String()),
			zap.String("month", month.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute wallet net worth"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_id": walletID,
		"month":     month.String(),
		"balance":   balance,
	})
}

func (h *Handler) recalculate(c *gin.Context) {
	netWorthCh := h.NetWorth.RecalculateAllSnapshots(c.Request.Context())
	performanceCh := h.Performance.RecalculateAllSnapshots(c.Request.Context())

	c.JSON(http.StatusAccepted, gin.H{
		"net_worth":   flightStatus(netWorthCh),
		"performance": flightStatus(performanceCh),
	})
}

// flightStatus distinguishes a started rebuild from a rejected one. A
// rejected call hands back an already-closed channel; a started rebuild's
// channel stays open until the background goroutine finishes.
func flightStatus(ch <-chan error) string {
	select {
	case <-ch:
		return "already_running"
	default:
		return "started"
	}
}
