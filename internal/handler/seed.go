package handler

import (
	"context"
	"errors"
	"net/http"

	"salescatalog/internal/apierror"
	"salescatalog/internal/dto"
	"salescatalog/internal/middleware"
	"salescatalog/internal/repository"
	"salescatalog/internal/seed"
	"salescatalog/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SeedStatusSource is satisfied by *seed.Seeder.
type SeedStatusSource interface {
	Status() seed.Status
}

// SeedTrigger is satisfied by *worker.SeedTrigger.
type SeedTrigger interface {
	Trigger(ctx context.Context, payload worker.SeedJobPayload) (bool, error)
}

type SeedHandler struct {
	trigger  SeedTrigger
	runner   worker.SeedRunner
	status   SeedStatusSource
	products repository.ProductRepository
	sales    repository.SaleRepository
	reset    func(ctx context.Context) error
}

// NewSeedHandler: reset may be nil, which disables POST /api/seed/reset.
func NewSeedHandler(trigger SeedTrigger, runner worker.SeedRunner, status SeedStatusSource,
	products repository.ProductRepository, sales repository.SaleRepository,
	reset func(ctx context.Context) error) *SeedHandler {
	return &SeedHandler{
		trigger:  trigger,
		runner:   runner,
		status:   status,
		products: products,
		sales:    sales,
		reset:    reset,
	}
}

// Run godoc
// @Summary      Run seeding
// @Description  Starts a seed run in the background (queued when Redis is configured).
// @Description  With wait=true the run happens inside the request.
// @Tags         seed
// @Produce      json
// @Param        wait query bool false "Run synchronously"
// @Success      200 {object} dto.SeedRunResponse
// @Success      202 {object} dto.SeedRunResponse
// @Failure      409 {object} dto.SeedRunResponse
// @Router       /api/seed/run [post]
func (h *SeedHandler) Run(c *gin.Context) {
	if c.Query("wait") == "true" {
		h.runNow(c)
		return
	}
	queued, err := h.trigger.Trigger(c.Request.Context(), worker.SeedJobPayload{
		Trigger:   "api",
		RequestID: c.GetString(middleware.RequestIDKey),
	})
	if err != nil {
		writeError(c, err, "")
		return
	}
	msg := "Seed started"
	if queued {
		msg = "Seed queued"
	}
	c.JSON(http.StatusAccepted, dto.SeedRunResponse{Success: true, Message: msg})
}

func (h *SeedHandler) runNow(c *gin.Context) {
	_, err := h.runner.Run(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.SeedRunResponse{Success: true, Message: "Seed completed"})
	case errors.Is(err, seed.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, dto.SeedRunResponse{Success: false, Message: err.Error()})
	default:
		log.Warn().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("manual seeding failed")
		c.JSON(http.StatusInternalServerError, dto.SeedRunResponse{Success: false, Message: "Seed failed"})
	}
}

// Status godoc
// @Summary      Seed status
// @Tags         seed
// @Produce      json
// @Success      200 {object} dto.SeedStatusResponse
// @Router       /api/seedstatus [get]
func (h *SeedHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	nProducts, err := h.products.Count(ctx)
	if err != nil {
		writeError(c, err, "")
		return
	}
	nSales, err := h.sales.Count(ctx)
	if err != nil {
		writeError(c, err, "")
		return
	}

	st := h.status.Status()
	resp := dto.SeedStatusResponse{
		LastSeededAt:     st.LastSeededAt,
		ProductsInDB:     nProducts,
		SalesInDB:        nSales,
		LastProductCount: st.LastProductCount,
		LastSaleCount:    st.LastSaleCount,
		Running:          st.Running,
	}
	if st.LastError != "" {
		resp.LastError = &st.LastError
	}
	c.JSON(http.StatusOK, resp)
}

// Reset empties the store. Only routed outside production.
func (h *SeedHandler) Reset(c *gin.Context) {
	if h.reset == nil {
		c.JSON(http.StatusNotFound, apierror.New("Reset is disabled"))
		return
	}
	if err := h.reset(c.Request.Context()); err != nil {
		writeError(c, err, "")
		return
	}
	log.Warn().Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("store reset")
	c.Status(http.StatusNoContent)
}
