package invoices

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// PDFClient converts rendered invoice HTML into PDF documents through a
// Gotenberg instance.
type PDFClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPDFClient constructs a client for the given Gotenberg base URL. An empty
// URL returns nil, which disables PDF rendering.
func NewPDFClient(baseURL string) *PDFClient {
	if baseURL == "" {
		return nil
	}
	return &PDFClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks whether the remote Gotenberg service is reachable.
func (c *PDFClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts raw HTML into a PDF document.
func (c *PDFClient) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewBufferString(html)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/forms/chromium/convert/html", c.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("render failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"vnd": FormatVND,
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="vi">
<head>
<meta charset="utf-8">
<title>{{.Invoice.InvoiceNumber}}</title>
<style>
body { font-family: "Times New Roman", serif; font-size: 13px; margin: 24px; }
h1 { font-size: 18px; text-align: center; text-transform: uppercase; }
.meta { margin-bottom: 12px; }
table { width: 100%; border-collapse: collapse; margin-top: 8px; }
th, td { border: 1px solid #333; padding: 4px 6px; }
th { background: #eee; }
td.num { text-align: right; }
.totals td { border: none; }
.totals td.num { font-weight: bold; }
</style>
</head>
<body>
<h1>Hóa đơn bán hàng</h1>
<div class="meta">
<p>Số hóa đơn: <strong>{{.Invoice.InvoiceNumber}}</strong><br>
Đơn hàng: {{.Invoice.OrderNumber}}<br>
Khách hàng: {{.Invoice.CustomerName}}{{if .Invoice.AgentName}}<br>
Đại lý: {{.Invoice.AgentName}}{{end}}<br>
Ngày lập: {{.IssuedAt}}</p>
</div>
<table>
<tr><th>STT</th><th>Tên hàng</th><th>SL</th><th>Đơn giá</th><th>Thành tiền</th></tr>
{{range $i, $item := .Invoice.Items}}
<tr>
<td class="num">{{inc $i}}</td>
<td>{{$item.ProductName}}</td>
<td class="num">{{$item.Quantity}}</td>
<td class="num">{{vnd $item.UnitPrice}}</td>
<td class="num">{{vnd $item.TotalPrice}}</td>
</tr>
{{end}}
</table>
<table class="totals">
<tr><td>Cộng tiền hàng</td><td class="num">{{.Display.Subtotal}}</td></tr>
<tr><td>Thuế GTGT (10%)</td><td class="num">{{.Display.VATAmount}}</td></tr>
<tr><td>Phí vận chuyển</td><td class="num">{{.Display.ShippingFee}}</td></tr>
<tr><td>Tổng thanh toán</td><td class="num">{{.Display.TotalAmount}}</td></tr>
</table>
</body>
</html>`))

// RenderInvoiceHTML produces the printable HTML layout for an invoice.
func RenderInvoiceHTML(inv Invoice) (string, error) {
	data := struct {
		Invoice  Invoice
		Display  RenderAmounts
		IssuedAt string
	}{
		Invoice:  inv,
		Display:  Render(inv),
		IssuedAt: inv.CreatedAt.Format("02/01/2006"),
	}
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
