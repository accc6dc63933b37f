package api

import (
	"net/http"
	"time"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
	"github.com/bartek5186/ulvari-mrp/internal/worksheet"
	"github.com/gin-gonic/gin"
)

type projectInput struct {
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	Delivery    string      `json:"delivery"`
	Customer    string      `json:"customer"`
	OrderNumber string      `json:"order_number"`
	Notes       string      `json:"notes"`
	ProductID   *uint       `json:"product_id"`
	Product     string      `json:"product"`
	Quantity    int         `json:"quantity"`
	Deadline    string      `json:"deadline"` // RRRR-MM-DD
	Parts       []partInput `json:"parts"`
}

type projectPatch struct {
	Name        *string                     `json:"name"`
	Description *string                     `json:"description"`
	Delivery    *string                     `json:"delivery"`
	Customer    *string                     `json:"customer"`
	OrderNumber *string                     `json:"order_number"`
	Notes       *string                     `json:"notes"`
	Quantity    *int                        `json:"quantity"`
	Deadline    *string                     `json:"deadline"` // "" = usuń
	Stages      map[db.Stage]db.StageStatus `json:"stages"`
}

func parseDeadline(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(mrp.DeadlineLayout, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) ListProjects(c *gin.Context) {
	items, err := h.svc.Projects(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *Handler) CreateProject(c *gin.Context) {
	var in projectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		BadRequest(c, "invalid deadline: "+in.Deadline)
		return
	}
	parts := make([]mrp.PartInput, 0, len(in.Parts))
	for _, pi := range in.Parts {
		parts = append(parts, mrp.PartInput{MaterialID: pi.MaterialID, Quantity: pi.Quantity})
	}
	p, err := h.svc.CreateProject(c.Request.Context(), mrp.NewProject{
		Name:        in.Name,
		Description: in.Description,
		Delivery:    in.Delivery,
		Customer:    in.Customer,
		OrderNumber: in.OrderNumber,
		Notes:       in.Notes,
		ProductID:   in.ProductID,
		ProductName: in.Product,
		Quantity:    in.Quantity,
		Deadline:    deadline,
		Parts:       parts,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, p)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Project(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, p)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in projectPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	patch := mrp.ProjectPatch{
		Name:        in.Name,
		Description: in.Description,
		Delivery:    in.Delivery,
		Customer:    in.Customer,
		OrderNumber: in.OrderNumber,
		Notes:       in.Notes,
		Quantity:    in.Quantity,
		Stages:      in.Stages,
	}
	if in.Deadline != nil {
		d, err := parseDeadline(*in.Deadline)
		if err != nil {
			BadRequest(c, "invalid deadline: "+*in.Deadline)
			return
		}
		patch.Deadline = d
		patch.ClearDeadline = d == nil
	}
	p, err := h.svc.UpdateProject(c.Request.Context(), id, patch)
	if err != nil {
		Fail(c, err)
		return
	}
	if p == nil {
		NotFound(c, "project not found")
		return
	}
	Success(c, p)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProject(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// UpdateProjectField PUT /projects/:id/fields/:field {"value": "..."}
func (h *Handler) UpdateProjectField(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	p, err := h.svc.UpdateProjectField(c.Request.Context(), id, c.Param("field"), in.Value)
	if err != nil {
		Fail(c, err)
		return
	}
	if p == nil {
		NotFound(c, "project not found")
		return
	}
	Success(c, p)
}

// SetStage PUT /projects/:id/stages/:stage {"status": "in_progress" | "Töös"}
func (h *Handler) SetStage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	st, known := db.ParseStage(c.Param("stage"))
	if !known {
		BadRequest(c, "unknown stage: "+c.Param("stage"))
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	status, err := db.ParseStageStatus(in.Status)
	if err != nil {
		Fail(c, err)
		return
	}
	p, err := h.svc.SetStage(c.Request.Context(), id, st, status)
	if err != nil {
		Fail(c, err)
		return
	}
	if p == nil {
		NotFound(c, "project not found")
		return
	}
	Success(c, p)
}

func (h *Handler) ListProjectParts(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.ProjectParts(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *Handler) AddProjectPart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in partInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid body: "+err.Error())
		return
	}
	line, err := h.svc.AddMaterialToProject(c.Request.Context(), id, in.MaterialID, in.Quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, line)
}

func (h *Handler) RemoveProjectPart(c *gin.Context) {
	partID, ok := paramID(c, "partId")
	if !ok {
		return
	}
	if err := h.svc.RemoveProjectPart(c.Request.Context(), partID); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// CheckAvailability GET /projects/:id/availability?times=n
func (h *Handler) CheckAvailability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.CheckAvailability(c.Request.Context(), id, queryInt(c, "times", 1))
	if err != nil {
		Fail(c, err)
		return
	}
	ready := true
	for _, a := range items {
		ready = ready && a.OK()
	}
	Success(c, gin.H{"items": items, "ready": ready})
}

func (h *Handler) DeductStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.DeductStock(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, res)
}

// StartProject POST /projects/:id/start {"times": n}
func (h *Handler) StartProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	in := struct {
		Times int `json:"times"`
	}{Times: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			BadRequest(c, "invalid body: "+err.Error())
			return
		}
	}
	done, err := h.svc.StartProject(c.Request.Context(), id, in.Times)
	if err != nil {
		h.log.Warn().Err(err).Uint("project_id", id).Int("completed", done).Msg("start project stopped")
		FailWith(c, err, gin.H{"completed": done})
		return
	}
	Success(c, gin.H{"completed": done})
}

// Worksheet GET /projects/:id/worksheet?format=txt|xlsx
func (h *Handler) Worksheet(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := worksheet.Build(c.Request.Context(), h.svc, id)
	if err != nil {
		Fail(c, err)
		return
	}
	format := c.DefaultQuery("format", "txt")
	data, name, err := worksheet.Render(s, format)
	if err != nil {
		Fail(c, err)
		return
	}
	ctype := "text/plain; charset=utf-8"
	if format == "xlsx" {
		ctype = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, ctype, data)
}

// History GET /history?project_id=&run_id=&limit=
func (h *Handler) History(c *gin.Context) {
	f := mrp.HistoryFilter{RunID: c.Query("run_id"), Limit: queryInt(c, "limit", 0)}
	if pid := queryInt(c, "project_id", 0); pid > 0 {
		id := uint(pid)
		f.ProjectID = &id
	}
	items, err := h.svc.History(c.Request.Context(), f)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *Handler) Overview(c *gin.Context) {
	ov, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ov)
}

// ScanImports POST /imports/scan
func (h *Handler) ScanImports(c *gin.Context) {
	dir := ""
	if h.importDir != nil {
		dir = h.importDir()
	}
	if h.imp == nil || dir == "" {
		Error(c, 50300, "importer disabled")
		return
	}
	results, err := h.imp.ScanDir(c.Request.Context(), dir)
	if err != nil && len(results) == 0 {
		Fail(c, err)
		return
	}
	out := gin.H{"items": results}
	if err != nil {
		out["error"] = err.Error()
	}
	Success(c, out)
}
