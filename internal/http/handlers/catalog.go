package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/catalog"
	"github.com/hongminglow/summitgear/internal/http/respond"
	"github.com/hongminglow/summitgear/internal/models"
	"github.com/hongminglow/summitgear/internal/models/dto"
)

// CatalogHandler serves categories and gear.
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler wires the category and gear routes to svc.
func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

// Register attaches catalog routes. Reads are public, writes are admin only.
func (h *CatalogHandler) Register(r *mux.Router, g Guards) {
	g = g.withDefaults()
	r.HandleFunc("/api/categories", h.listCategories).Methods(http.MethodGet)
	r.Handle("/api/categories", g.Admin(http.HandlerFunc(h.createCategory))).Methods(http.MethodPost)
	r.HandleFunc("/api/categories/{id}", h.getCategory).Methods(http.MethodGet)

	r.HandleFunc("/api/gears", h.listGears).Methods(http.MethodGet)
	r.Handle("/api/gears", g.Admin(http.HandlerFunc(h.createGear))).Methods(http.MethodPost)
	r.HandleFunc("/api/gears/{id}", h.getGear).Methods(http.MethodGet)
	r.Handle("/api/gears/{id}", g.Admin(http.HandlerFunc(h.updateGear))).Methods(http.MethodPatch)
	r.Handle("/api/gears/{id}", g.Admin(http.HandlerFunc(h.deleteGear))).Methods(http.MethodDelete)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "categories", cats)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Failure(w, r, err)
		return
	}
	created, err := h.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, "category created", created)
}

func (h *CatalogHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respond.Failure(w, r, apperr.NotFound("category"))
		return
	}
	c, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "category", c)
}

func (h *CatalogHandler) listGears(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.GearFilter{Search: q.Get("search")}
	if raw := q.Get("cat"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respond.Failure(w, r, apperr.Validation("cat must be a positive category id"))
			return
		}
		filter.CategoryID = id
	}
	gears, err := h.catalog.ListGears(r.Context(), filter)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "gears", gears)
}

func (h *CatalogHandler) createGear(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGearRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Failure(w, r, err)
		return
	}
	created, err := h.catalog.CreateGear(r.Context(), catalog.GearInput{
		Name:        &req.Name,
		Description: &req.Description,
		PricePerDay: &req.PricePerDay,
		Stock:       req.Stock,
		CategoryID:  &req.CategoryID,
		ImageURL:    &req.ImageURL,
	})
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, "gear created", created)
}

func (h *CatalogHandler) getGear(w http.ResponseWriter, r *http.Request) {
	g, err := h.catalog.GetGear(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "gear", g)
}

func (h *CatalogHandler) updateGear(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateGearRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Failure(w, r, err)
		return
	}
	updated, err := h.catalog.UpdateGear(r.Context(), mux.Vars(r)["id"], catalog.GearInput{
		Name:        req.Name,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "gear updated", updated)
}

func (h *CatalogHandler) deleteGear(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteGear(r.Context(), mux.Vars(r)["id"]); err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "gear deleted", nil)
}
