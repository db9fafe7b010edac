package server

import (
	"github.com/rezonia/einvoice-extractor/internal/model"
	"github.com/rezonia/einvoice-extractor/internal/processor"
)

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error string          `json:"error"`
	Code  model.ErrorCode `json:"code,omitempty"`
}

// BatchItem is the outcome for one uploaded file
type BatchItem struct {
	Index  int             `json:"index"`
	File   string          `json:"file"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   model.ErrorCode `json:"code,omitempty"`
}

// BatchResponse is the response for the batch endpoint
type BatchResponse struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// InfoResponse is the response for info endpoint
type InfoResponse = processor.Info
