package handlers

import (
	"github.com/fatflowers/vipclub/internal/app/service/reconcile"
	"github.com/fatflowers/vipclub/internal/app/service/statistics"
	"github.com/fatflowers/vipclub/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespLevelInfo wraps the member level read model in the standard envelope.
type RespLevelInfo struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    reconcile.LevelInfo      `json:"data"`
}

// RespInvoice wraps the hosted invoice result in the standard envelope.
type RespInvoice struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    SwaggerInvoice           `json:"data"`
}

// SwaggerInvoice is a simplified view of gateway.Invoice for documentation
// purposes.
type SwaggerInvoice struct {
	OrderReference string `json:"order_reference"`
	InvoiceURL     string `json:"invoice_url"`
}

// RespTierTable wraps the tier ladder in the standard envelope.
type RespTierTable struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []SwaggerTier            `json:"data"`
}

// SwaggerTier is a simplified view of tier.Tier for documentation purposes.
type SwaggerTier struct {
	Level           int    `json:"level"`
	DiscountPercent int    `json:"discount_percent"`
	Bonus           string `json:"bonus"`
}

// RespListMembers wraps the admin member listing in the standard envelope.
type RespListMembers struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespStatisticsOverview wraps the statistics overview in the standard envelope.
type RespStatisticsOverview struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    statistics.Overview      `json:"data"`
}
