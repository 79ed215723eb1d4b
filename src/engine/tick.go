package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"market-sim/src/interfaces"
	"market-sim/src/logger"
	"market-sim/src/models"
	"market-sim/src/utils"
)

// Per-tick bounds.
const (
	MaxTickChange = 0.05 // |price change| capped at 5% per tick
	MinPrice      = 0.01
	OpticsFade    = 0.95 // prominence fades each tick
)

// -----------------------------------------------------------------------------

// TickEngine advances the simulated market one step at a time: news decay,
// per-symbol price computation, then an atomic state publish.
type TickEngine struct {
	Store   interfaces.IMarketStore
	History *utils.HistoryCache
	Logger  *logger.Logger

	Rng *rand.Rand
	Now func() time.Time
}

// -----------------------------------------------------------------------------

func NewTickEngine(store interfaces.IMarketStore, history *utils.HistoryCache, l *logger.Logger) *TickEngine {
	return &TickEngine{
		Store:   store,
		History: history,
		Logger:  l,
		Rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		Now:     time.Now,
	}
}

// -----------------------------------------------------------------------------

// RunTick advances the market by one step. Failures are logged and swallowed;
// the next tick recomputes everything from persisted state, so a lost tick
// costs nothing but time.
func (e *TickEngine) RunTick() *models.MMarketState {
	state, err := e.tick()
	if err != nil {
		e.Logger.Error("Market tick failed: %v", err)
		return nil
	}
	return state
}

// -----------------------------------------------------------------------------

func (e *TickEngine) tick() (*models.MMarketState, error) {
	nowMs := e.Now().UnixMilli()

	session, err := e.Store.ActiveSession()
	if err != nil {
		return nil, fmt.Errorf("load active session: %w", err)
	}
	if session == nil {
		e.Logger.Debug("No active session, skipping tick")
		return nil, nil
	}

	state, err := e.Store.GetMarketState(session.ControllerID)
	if err != nil {
		return nil, fmt.Errorf("load market state: %w", err)
	}
	if state == nil {
		e.Logger.Warning("No market state for controller %s, skipping tick", session.ControllerID)
		return nil, nil
	}
	if state.SessionStatus != models.SessionActive {
		e.Logger.Debug("Market not running (status: %s), skipping tick", state.SessionStatus)
		return nil, nil
	}

	news, err := e.Store.ActiveNews()
	if err != nil {
		return nil, fmt.Errorf("load active news: %w", err)
	}

	// Decay pass runs first so the impact model sees the same freshness the
	// store persists for this tick.
	news = RecomputeDecay(news, nowMs)
	for _, item := range news {
		if err := e.Store.UpdateNewsDecay(item.ID, item.Decay, item.Archived); err != nil {
			return nil, fmt.Errorf("update news decay: %w", err)
		}
	}

	symbols := make([]string, 0, len(state.Prices))
	for symbol := range state.Prices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	faded := AttentionFaded(news)

	updated := make(map[string]models.MStock, len(symbols))
	points := make([]models.MPricePoint, 0, len(symbols))

	for _, symbol := range symbols {
		stock := state.Prices[symbol]

		impact := PriceImpact(symbol, news)
		totalChange := BasePriceChange(e.Rng) + impact.Lagged

		if faded {
			// Nothing holds attention anymore: the whole move, not just the
			// news component, drifts back toward the pre-news trajectory.
			totalChange *= MeanReversionFactor
		}
		totalChange = clamp(totalChange, -MaxTickChange, MaxTickChange)

		newPrice := stock.Price * (1 + totalChange)
		if newPrice < MinPrice {
			newPrice = MinPrice
		}

		updated[symbol] = models.MStock{
			Symbol:        symbol,
			Price:         newPrice,
			Change:        newPrice - stock.Price,
			ChangePercent: (newPrice - stock.Price) / stock.Price * 100,
			Sentiment:     impact.Sentiment,
			Optics:        stock.Optics * OpticsFade,
		}

		points = append(points, models.MPricePoint{
			Symbol:    symbol,
			Price:     newPrice,
			Timestamp: nowMs,
			Sentiment: impact.Sentiment,
		})
	}

	if err := e.Store.AppendPriceHistory(points); err != nil {
		return nil, fmt.Errorf("append price history: %w", err)
	}

	state.Prices = updated
	state.Time = nowMs
	state.LastUpdate = nowMs

	if err := e.Store.SaveMarketState(*state); err != nil {
		return nil, fmt.Errorf("save market state: %w", err)
	}

	if e.History != nil {
		for _, point := range points {
			e.History.Add(point)
		}
	}

	e.Logger.Debug("Market tick complete, %d stocks updated", len(updated))
	return state, nil
}
