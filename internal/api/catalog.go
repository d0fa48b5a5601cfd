package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/keygate/internal/catalog"
)

// ─── Request Types ─────────────────────────────────────────────────
//
// Name and description rules live in the catalog package. The tags here
// only reject requests that are missing fields outright.

type createBrandRequest struct {
	Title string `json:"title" validate:"required"`
}

type createCategoryRequest struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	HasSubcategory bool   `json:"has_subcategory"`
}

type createSubcategoryRequest struct {
	CategoryID  string `json:"category_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// ─── Brands ────────────────────────────────────────────────────────

func (s *Server) handleListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.catalog.ListBrands(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"brands": brands, "count": len(brands)})
}

func (s *Server) handleGetBrand(w http.ResponseWriter, r *http.Request) {
	brand, err := s.catalog.GetBrand(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

// handleCreateBrand creates an active brand.
func (s *Server) handleCreateBrand(w http.ResponseWriter, r *http.Request) {
	var req createBrandRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	brand := &catalog.Brand{Title: req.Title}
	if err := s.catalog.CreateBrand(r.Context(), brand); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, brand)
}

// handleUpdateBrand changes the title or status. Switching status off
// records inactivated_at.
func (s *Server) handleUpdateBrand(w http.ResponseWriter, r *http.Request) {
	var patch catalog.BrandPatch
	if !s.decodeAndValidate(w, r, &patch) {
		return
	}
	brand, err := s.catalog.UpdateBrand(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

func (s *Server) handleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteBrand(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Categories ────────────────────────────────────────────────────

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories, "count": len(categories)})
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.catalog.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	category := &catalog.Category{
		Name:           req.Name,
		Description:    req.Description,
		HasSubcategory: req.HasSubcategory,
	}
	if err := s.catalog.CreateCategory(r.Context(), category); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// handleUpdateCategory applies a partial update. has_subcategory cannot be
// cleared while subcategories exist.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch catalog.CategoryPatch
	if !s.decodeAndValidate(w, r, &patch) {
		return
	}
	category, err := s.catalog.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// handleDeleteCategory refuses categories that still have subcategories.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategorySubcategories(w http.ResponseWriter, r *http.Request) {
	subs, err := s.catalog.ListSubcategoriesByCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subcategories": subs, "count": len(subs)})
}

// ─── Subcategories ─────────────────────────────────────────────────

func (s *Server) handleListSubcategories(w http.ResponseWriter, r *http.Request) {
	subs, err := s.catalog.ListSubcategories(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subcategories": subs, "count": len(subs)})
}

func (s *Server) handleGetSubcategory(w http.ResponseWriter, r *http.Request) {
	sub, err := s.catalog.GetSubcategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handleCreateSubcategory files a subcategory under a category that has
// has_subcategory set.
func (s *Server) handleCreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req createSubcategoryRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	sub := &catalog.Subcategory{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.catalog.CreateSubcategory(r.Context(), sub); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleUpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	var patch catalog.SubcategoryPatch
	if !s.decodeAndValidate(w, r, &patch) {
		return
	}
	sub, err := s.catalog.UpdateSubcategory(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteSubcategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
