package invoices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderInvoiceHTML(t *testing.T) {
	inv := Invoice{
		InvoiceNumber: "HD000007",
		OrderNumber:   "DH000012",
		CustomerName:  "Công ty ABC",
		AgentName:     "Đại lý Quận 1",
		Items: []Item{
			{ProductID: 1, ProductName: "Dấu tròn C20", Quantity: 3, UnitPrice: 2000, TotalPrice: 6000},
		},
		Subtotal:    6000,
		VATAmount:   600,
		ShippingFee: 500,
		TotalAmount: 7100,
		CreatedAt:   time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC),
	}

	html, err := RenderInvoiceHTML(inv)
	require.NoError(t, err)
	require.Contains(t, html, "HD000007")
	require.Contains(t, html, "Công ty ABC")
	require.Contains(t, html, "Đại lý Quận 1")
	require.Contains(t, html, "15/03/2025")
	require.Contains(t, html, "6.000 ₫")
	require.Contains(t, html, "7.100 ₫")
}

func TestNewPDFClientDisabledWithoutURL(t *testing.T) {
	require.Nil(t, NewPDFClient(""))
	require.NotNil(t, NewPDFClient("http://localhost:3000"))
}
