package api

import (
	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
	"github.com/gin-gonic/gin"
)

type materialInput struct {
	Name          string          `json:"name" binding:"required"`
	StockQty      int             `json:"stock_qty"`
	Type          db.MaterialKind `json:"type"`
	MaterialType  string          `json:"material_type"`
	TubeProfile   string          `json:"tube_profile"`
	TubeLength    *int            `json:"tube_length"`
	TubeQuantity  *int            `json:"tube_quantity"`
	TubeDimension string          `json:"tube_dimension"`
	TubeThickness string          `json:"tube_thickness"`
}

type materialPatch struct {
	Name          *string          `json:"name"`
	StockQty      *int             `json:"stock_qty"`
	Type          *db.MaterialKind `json:"type"`
	MaterialType  *string          `json:"material_type"`
	TubeProfile   *string          `json:"tube_profile"`
	TubeLength    *int             `json:"tube_length"`
	TubeQuantity  *int             `json:"tube_quantity"`
	TubeDimension *string          `json:"tube_dimension"`
	TubeThickness *string          `json:"tube_thickness"`
}

type productInput struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	Note           string   `json:"note"`
	ProductionTime *int     `json:"production_time"`
	Categories     []string `json:"categories"`
}

type productPatch struct {
	Name                *string `json:"name"`
	Description         *string `json:"description"`
	Note                *string `json:"note"`
	ProductionTime      *int    `json:"production_time"`
	ClearProductionTime bool    `json:"clear_production_time"`
}

type partInput struct {
	MaterialID uint `json:"material_id" binding:"required"`
	Quantity   int  `json:"quantity_required" binding:"required"`
}

// ─────────── materials ───────────

func (h *Handler) ListMaterials(c *gin.Context) {
	items, err := h.svc.Materials(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *Handler) CreateMaterial(c *gin.Context) {
	var in materialInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	m, err := h.svc.CreateMaterial(c.Request.Context(), mrp.NewMaterial{
		Name:          in.Name,
		StockQty:      in.StockQty,
		Kind:          in.Type,
		MaterialType:  in.MaterialType,
		TubeProfile:   in.TubeProfile,
		TubeLength:    in.TubeLength,
		TubeQuantity:  in.TubeQuantity,
		TubeDimension: in.TubeDimension,
		TubeThickness: in.TubeThickness,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, m)
}

func (h *Handler) GetMaterial(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Material(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, m)
}

func (h *Handler) UpdateMaterial(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in materialPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	m, err := h.svc.UpdateMaterialDetails(c.Request.Context(), id, mrp.MaterialPatch{
		Name:          in.Name,
		StockQty:      in.StockQty,
		Kind:          in.Type,
		MaterialType:  in.MaterialType,
		TubeProfile:   in.TubeProfile,
		TubeLength:    in.TubeLength,
		TubeQuantity:  in.TubeQuantity,
		TubeDimension: in.TubeDimension,
		TubeThickness: in.TubeThickness,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, m)
}

func (h *Handler) DeleteMaterial(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteMaterial(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// ─────────── categories ───────────

func (h *Handler) ListCategories(c *gin.Context) {
	items, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var in struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), in.Name)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, cat)
}

// ─────────── products ───────────

// ListProducts GET /products?category=a&category=b
func (h *Handler) ListProducts(c *gin.Context) {
	items, err := h.svc.Products(c.Request.Context(), c.QueryArray("category")...)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var in productInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	p, err := h.svc.CreateProduct(c.Request.Context(), mrp.NewProduct{
		Name:           in.Name,
		Description:    in.Description,
		Note:           in.Note,
		ProductionTime: in.ProductionTime,
		Categories:     in.Categories,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, p)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Product(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in productPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	p, err := h.svc.UpdateProduct(c.Request.Context(), id, mrp.ProductPatch{
		Name:                in.Name,
		Description:         in.Description,
		Note:                in.Note,
		ProductionTime:      in.ProductionTime,
		ClearProductionTime: in.ClearProductionTime,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	if p == nil {
		NotFound(c, "product not found")
		return
	}
	Success(c, p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// AssignCategories PUT /products/:id/categories {"names": [...]}
func (h *Handler) AssignCategories(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Names []string `json:"names"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	p, err := h.svc.AssignCategories(c.Request.Context(), id, in.Names)
	if err != nil {
		Fail(c, err)
		return
	}
	if p == nil {
		NotFound(c, "product not found")
		return
	}
	Success(c, p)
}

func (h *Handler) ListProductParts(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.ProductParts(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *Handler) AddProductPart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in partInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	line, err := h.svc.AddMaterialToProduct(c.Request.Context(), id, in.MaterialID, in.Quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, line)
}

func (h *Handler) RemoveProductPart(c *gin.Context) {
	partID, ok := paramID(c, "partId")
	if !ok {
		return
	}
	if err := h.svc.RemoveProductPart(c.Request.Context(), partID); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}
