package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/vytor/visionize/internal/errors"
	"github.com/vytor/visionize/internal/logger"
)

const maxBodyBytes = 1 << 16

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

// decodeJSON reads a small JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

// pagination parses page and per_page the same way for every listing.
func pagination(r *http.Request) (page, perPage int) {
	page = 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	perPage = 25
	switch r.URL.Query().Get("per_page") {
	case "10":
		perPage = 10
	case "25":
		perPage = 25
	case "50":
		perPage = 50
	case "100":
		perPage = 100
	}
	return page, perPage
}

func totalPages(totalCount, perPage int) int {
	pages := totalCount / perPage
	if totalCount%perPage != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}
