package billing

import (
	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/domain/entity"
)

func toDocumentResponse(doc *entity.Document) *dto.DocumentResponse {
	resp := &dto.DocumentResponse{
		ID:                doc.ID,
		CompanyID:         doc.CompanyID,
		CustomerID:        doc.CustomerID,
		TypeCode:          string(doc.TypeCode),
		TypeLabel:         doc.TypeCode.Label(),
		Number:            doc.Number,
		IssueDate:         doc.IssueDate,
		Status:            string(doc.Status),
		GenerationCode:    doc.GenerationCode,
		ControlNumber:     doc.ControlNumber,
		ReceptionSeal:     doc.ReceptionSeal,
		Invalidated:       doc.Invalidated,
		Items:             make([]dto.DocumentItemResponse, 0, len(doc.Items)),
		Observations:      doc.Observations,
		RelatedDocumentID: doc.RelatedDocumentID,
		LastError:         doc.LastError,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
		Totals: dto.TotalsResponse{
			TotalAmount:     doc.Totals.TotalAmount,
			SubTotal:        doc.Totals.SubTotal,
			Tax:             doc.Totals.Tax,
			ReteRenta:       doc.Totals.ReteRenta,
			IvaRete1:        doc.Totals.IvaRete1,
			TotalWithoutTax: doc.Totals.TotalWithoutTax,
			TotalPagar:      doc.Totals.TotalPagar,
		},
	}
	for _, it := range doc.Items {
		resp.Items = append(resp.Items, dto.DocumentItemResponse{
			Position:    it.Position,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
			Observation: it.Observation,
		})
	}
	if doc.Delivery != (entity.Delivery{}) {
		resp.Delivery = &dto.DeliveryInput{
			DeliveredBy:         doc.Delivery.DeliveredBy,
			DeliveredByDocument: doc.Delivery.DeliveredByDocument,
			ReceivedBy:          doc.Delivery.ReceivedBy,
			ReceivedByDocument:  doc.Delivery.ReceivedByDocument,
		}
	}
	return resp
}

func toDelivery(in dto.DeliveryInput) entity.Delivery {
	return entity.Delivery{
		DeliveredBy:         in.DeliveredBy,
		DeliveredByDocument: in.DeliveredByDocument,
		ReceivedBy:          in.ReceivedBy,
		ReceivedByDocument:  in.ReceivedByDocument,
	}
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:             c.ID,
		CompanyID:      c.CompanyID,
		Name:           c.Name,
		DocumentType:   c.DocumentType,
		DocumentNumber: c.DocumentNumber,
		NRC:            c.NRC,
		ActivityCode:   c.ActivityCode,
		ActivityDesc:   c.ActivityDesc,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		HasRetention:   c.HasRetention,
	}
}
