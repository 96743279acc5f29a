package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// money renders minor currency units with dot thousand separators,
// e.g. 12990 -> $12.990.
func money(v int64) string {
	s := fmt.Sprintf("%d", v)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	return "$" + string(out)
}

var tmplFuncs = template.FuncMap{"money": money}

var customerTmpl = template.Must(template.New("customer").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Thank you for your purchase!</h1>
    <p>Hi <strong>{{.Order.Customer.Name}}</strong>,</p>
    <p>Your order is confirmed and we are preparing it for shipment.</p>
    <h3>Order details</h3>
    <p><strong>Order number:</strong> {{.Order.Reference}}</p>
    <p><strong>Total:</strong> {{money .Order.Total}}</p>
    <p><strong>Shipping address:</strong><br>
      {{.Order.Customer.Address}}<br>
      {{.Order.Customer.City}}, {{.Order.Customer.Region}}
    </p>
    <p>We will email you again once your order has been dispatched.</p>
  </div>
</body>
</html>`))

var adminTmpl = template.Must(template.New("admin").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>New sale</h1>
    <h3>Order</h3>
    <p><strong>Reference:</strong> {{.Order.Reference}}</p>
    <p><strong>Payment id:</strong> {{.Payment.ID}}</p>
    <p><strong>Total:</strong> {{money .Order.Total}}</p>
    <h3>Customer</h3>
    <p><strong>Name:</strong> {{.Order.Customer.Name}}</p>
    <p><strong>Email:</strong> {{.Order.Customer.Email}}</p>
    <p><strong>Phone:</strong> {{.Order.Customer.Phone}}</p>
    <h3>Shipping</h3>
    <p>{{.Order.Customer.Address}}</p>
    <p>{{.Order.Customer.City}}, {{.Order.Customer.Region}}</p>
  </div>
</body>
</html>`))

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
