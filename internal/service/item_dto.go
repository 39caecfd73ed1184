package service

import (
	"time"

	"panjar/internal/model"
)

// ItemInput is one line item as submitted by the requester.
type ItemInput struct {
	ItemName      string `json:"item_name" binding:"required,max=255"`
	Spesification string `json:"spesification"`
	Description   string `json:"description"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
	Unit          string `json:"unit" binding:"max=30"`
	Price         string `json:"price" binding:"required"` // decimal string, e.g. "15000.00"
}

// UpdateItemRequest edits an item. Nil fields are left untouched.
type UpdateItemRequest struct {
	ItemName      *string `json:"item_name" binding:"omitempty,min=1,max=255"`
	Spesification *string `json:"spesification"`
	Description   *string `json:"description"`
	Quantity      *int    `json:"quantity" binding:"omitempty,gt=0"`
	Unit          *string `json:"unit" binding:"omitempty,max=30"`
	Price         *string `json:"price"`
	Status        *string `json:"status" binding:"omitempty,oneof=pending verified approved rejected revision"`
}

func (r UpdateItemRequest) hasFieldChanges() bool {
	return r.ItemName != nil || r.Spesification != nil || r.Description != nil ||
		r.Quantity != nil || r.Unit != nil || r.Price != nil
}

type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required,oneof=pending verified approved rejected revision"`
	Note    string `json:"note"`
	Version *int   `json:"version"` // when set, must match the item's current version
}

type BulkStatusItem struct {
	ID      string `json:"id" binding:"required,uuid"`
	Status  string `json:"status" binding:"required,oneof=pending verified approved rejected revision"`
	Note    string `json:"note"`
	Version *int   `json:"version"`
}

type BulkStatusRequest struct {
	Items []BulkStatusItem `json:"items" binding:"required,min=1,dive"`
}

type ItemResponse struct {
	ID              string `json:"id"`
	PanjarRequestID string `json:"panjar_request_id"`
	LineNo          int    `json:"line_no"`
	ItemName        string `json:"item_name"`
	Spesification   string `json:"spesification"`
	Description     string `json:"description"`
	Quantity        int    `json:"quantity"`
	Unit            string `json:"unit"`
	Price           string `json:"price"`
	Total           string `json:"total"`
	Status          string `json:"status"`
	Version         int    `json:"version"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toItemResponse(i model.PanjarItem) ItemResponse {
	return ItemResponse{
		ID:              i.ID.String(),
		PanjarRequestID: i.PanjarRequestID.String(),
		LineNo:          i.LineNo,
		ItemName:        i.ItemName,
		Spesification:   i.Spesification,
		Description:     i.Description,
		Quantity:        i.Quantity,
		Unit:            i.Unit,
		Price:           i.Price.StringFixed(2),
		Total:           i.Total.StringFixed(2),
		Status:          string(i.Status),
		Version:         i.Version,
		CreatedAt:       i.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       i.UpdatedAt.Format(time.RFC3339),
	}
}
