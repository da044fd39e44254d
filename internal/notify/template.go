package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/kmalyshev/pricetrack/internal/currency"
)

var priceDropTmpl = template.Must(template.New("pricedrop").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Price Drop Alert</title>
</head>
<body style="font-family:-apple-system,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;background-color:#f4f7f9;margin:0;padding:0;">
  <div style="max-width:600px;margin:20px auto;background:#ffffff;border-radius:12px;overflow:hidden;">
    <div style="background:#FF6B6B;color:#ffffff;padding:40px 20px;text-align:center;">
      <h1 style="margin:0;font-size:24px;">Great News! Price Drop Alert</h1>
      <p>Something you've been watching just got cheaper.</p>
    </div>
    <div style="padding:30px;text-align:center;">
      {{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.ProductName}}" style="width:200px;height:200px;object-fit:contain;margin-bottom:20px;">{{end}}
      <a href="{{.ProductURL}}" style="font-size:20px;font-weight:600;color:#1a202c;text-decoration:none;display:block;">{{.ProductName}}</a>
      <div style="color:#008489;font-weight:700;margin-top:10px;">Save {{.DropPercent}}%</div>
      <div style="margin:20px 0;">
        <span style="font-size:18px;color:#718096;text-decoration:line-through;">{{.OldFormatted}}</span>
        <span style="font-size:28px;color:#FF6B6B;font-weight:800;margin-left:15px;">{{.NewFormatted}}</span>
      </div>
      <a href="{{.ProductURL}}" style="display:inline-block;background-color:#FF6B6B;color:#ffffff;padding:16px 32px;border-radius:8px;text-decoration:none;font-weight:600;margin-top:25px;">View Product Deal</a>
    </div>
    <div style="background-color:#f8fafc;padding:20px;text-align:center;font-size:12px;color:#a0aec0;">
      <p>You received this email because you're tracking this product.</p>
      <p>&copy; {{.Year}} PriceTrack. All rights reserved.</p>
    </div>
  </div>
</body>
</html>
`))

type priceDropView struct {
	ProductName  string
	ProductURL   string
	ImageURL     string
	OldFormatted string
	NewFormatted string
	DropPercent  string
	Year         int
}

func renderPriceDrop(d PriceDrop) (string, error) {
	pct := 0.0
	if d.OldPrice > 0 {
		pct = (d.OldPrice - d.NewPrice) / d.OldPrice * 100
	}
	view := priceDropView{
		ProductName:  d.ProductName,
		ProductURL:   d.ProductURL,
		ImageURL:     d.ImageURL,
		OldFormatted: currency.Format(d.OldPrice, d.Currency),
		NewFormatted: currency.Format(d.NewPrice, d.Currency),
		DropPercent:  fmt.Sprintf("%.1f", pct),
		Year:         time.Now().Year(),
	}
	var sb strings.Builder
	if err := priceDropTmpl.Execute(&sb, view); err != nil {
		return "", err
	}
	return sb.String(), nil
}
