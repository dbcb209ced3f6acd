package handlers

import (
	"net/http"
	"strings"

	"github.com/onecrateapp/onecrate/internal/catalog"
)

type productResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Price       int    `json:"price"`
	MRP         int    `json:"mrp"`
	Savings     int    `json:"savings"`
}

type kitItemResponse struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Quantity  int    `json:"quantity"`
}

type kitResponse struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       int               `json:"price"`
	MRP         int               `json:"mrp"`
	Savings     int               `json:"savings"`
	Items       []kitItemResponse `json:"items"`
}

// ListProducts returns the catalog, optionally filtered by subcategory
// or a case-insensitive name search.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	subcategory := strings.TrimSpace(r.URL.Query().Get("subcategory"))
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	products := h.catalog.Products()
	out := make([]productResponse, 0, len(products))
	for _, product := range products {
		if subcategory != "" && subcategory != "all" && product.Subcategory != subcategory {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(product.Name), query) {
			continue
		}
		out = append(out, toProductResponse(product))
	}

	h.respondJSON(w, r, http.StatusOK, map[string]any{"products": out})
}

// ListKits returns the prebuilt kits with their resolved item lines.
func (h *Handlers) ListKits(w http.ResponseWriter, r *http.Request) {
	kits := h.catalog.Kits()
	out := make([]kitResponse, 0, len(kits))
	for _, kit := range kits {
		resp := kitResponse{
			ID:          kit.ID,
			Name:        kit.Name,
			Description: kit.Description,
			Price:       kit.UnitPrice,
			MRP:         kit.ReferencePrice,
			Savings:     kit.Savings(),
		}
		for _, item := range kit.Items {
			line := kitItemResponse{ProductID: item.ProductID, Quantity: item.Quantity}
			if product, ok := h.catalog.Product(item.ProductID); ok {
				line.Name = product.Name
				line.Unit = product.Unit
			}
			resp.Items = append(resp.Items, line)
		}
		out = append(out, resp)
	}

	h.respondJSON(w, r, http.StatusOK, map[string]any{"kits": out})
}

func toProductResponse(product catalog.ProductConfig) productResponse {
	return productResponse{
		ID:          product.ID,
		Name:        product.Name,
		Unit:        product.Unit,
		Category:    product.Category,
		Subcategory: product.Subcategory,
		Price:       product.UnitPrice,
		MRP:         product.ReferencePrice,
		Savings:     product.Savings(),
	}
}
