package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-booking/services"
)

type StoreController struct {
	StoreSvc  *services.StoreService
	ReviewSvc *services.ReviewService
}

func NewStoreController(stores *services.StoreService, reviews *services.ReviewService) *StoreController {
	return &StoreController{StoreSvc: stores, ReviewSvc: reviews}
}

type storeRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"isActive"`
}

func (r storeRequest) input() services.StoreInput {
	return services.StoreInput{Name: r.Name, Address: r.Address, IsActive: r.IsActive}
}

// ListStores (GET /api/stores) answers back-office users with the stores
// they manage and everyone else with the public, rated listing.
func (ctrl *StoreController) ListStores(c *gin.Context) {
	ctx := c.Request.Context()
	if p := principal(c); p != nil && !p.IsCustomer() {
		stores, err := ctrl.StoreSvc.ListForPrincipal(ctx, p)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stores": stores})
		return
	}
	stores, err := ctrl.StoreSvc.ListPublic(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// ListReviews (GET /api/stores/:id/reviews?page&pageSize)
func (ctrl *StoreController) ListReviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, err := ctrl.ReviewSvc.ListStoreReviews(c.Request.Context(), id, queryInt(c, "page", 1), queryInt(c, "pageSize", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ---------------------------------------------------------------------------
// admin
// ---------------------------------------------------------------------------

func (ctrl *StoreController) AdminList(c *gin.Context) {
	stores, err := ctrl.StoreSvc.ListAdmin(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

func (ctrl *StoreController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	st, err := ctrl.StoreSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"store": st})
}

func (ctrl *StoreController) Create(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误")
		return
	}
	st, err := ctrl.StoreSvc.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"store": st})
}

func (ctrl *StoreController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误")
		return
	}
	st, err := ctrl.StoreSvc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"store": st})
}

func (ctrl *StoreController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.StoreSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
