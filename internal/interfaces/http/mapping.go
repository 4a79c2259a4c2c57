package http

import (
	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
)

func toStockResponse(r *entity.StockRecord) dto.StockRecordResponse {
	return dto.StockRecordResponse{
		ID:           r.ID,
		WarehouseID:  r.WarehouseID,
		Name:         r.Identity.Name,
		Category:     r.Identity.Category,
		Quantity:     r.Quantity,
		Unit:         r.Unit,
		MinThreshold: r.MinThreshold,
		Lot:          r.Lot,
		ExpiresOn:    r.ExpiresOn,
		Notes:        r.Notes,
		Version:      r.Version,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toTransferResponse(t *entity.TransferRecord) dto.TransferResponse {
	return dto.TransferResponse{
		ID:                t.ID,
		Name:              t.Identity.Name,
		Category:          t.Identity.Category,
		Quantity:          t.Quantity,
		Unit:              t.Unit,
		SourceWarehouseID: t.SourceWarehouseID,
		DestWarehouseID:   t.DestWarehouseID,
		Actor:             t.Actor,
		Timestamp:         t.Timestamp,
		Notes:             t.Notes,
	}
}

func toLineItems(in []dto.PurchaseLineItemRequest) []entity.PurchaseLineItem {
	out := make([]entity.PurchaseLineItem, 0, len(in))
	for _, l := range in {
		out = append(out, entity.PurchaseLineItem{
			Identity:     domain.Identity{Name: l.Name, Category: l.Category},
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			Lot:          l.Lot,
			ExpiresOn:    l.ExpiresOn,
			MinThreshold: l.MinThreshold,
		})
	}
	return out
}

func toReceiptResponse(res *inventory.ReceiptResult) dto.ReceiptResponse {
	out := dto.ReceiptResponse{
		PurchaseID:      res.PurchaseID,
		DestWarehouseID: res.DestWarehouseID,
		Duplicate:       res.Duplicate,
		Completed:       res.Completed,
		Lines:           make([]dto.ReceiptLineResponse, 0, len(res.Lines)),
	}
	for _, l := range res.Lines {
		line := dto.ReceiptLineResponse{
			LineNo:   l.LineNo,
			Name:     l.Identity.Name,
			Category: l.Identity.Category,
			Quantity: l.Quantity,
			Unit:     l.Unit,
			Status:   l.Status,
		}
		if l.Record != nil {
			line.StockID = l.Record.ID
		}
		if l.Err != nil {
			_, er := toErrorResponse(l.Err)
			line.Error = &er
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}
