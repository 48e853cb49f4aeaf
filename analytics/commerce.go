package analytics

import (
	"context"

	"go.uber.org/zap"

	"instantanalytics/api/measurement"
	"instantanalytics/api/models"
)

const (
	commerceCategory     = "Commerce"
	actionPurchase       = "Purchase"
	actionAddToCart      = "Add to Cart"
	actionRemoveFromCart = "Remove from Cart"
)

// ProductData extracts sku, name and a two-decimal price from a product or
// variant.
func ProductData(pv models.ProductOrVariant) (measurement.Product, bool) {
	v, ok := pv.Resolve()
	if !ok {
		return measurement.Product{}, false
	}
	return measurement.Product{
		SKU:   v.SKU,
		Name:  v.Title,
		Price: v.Price.Round(2),
	}, true
}

// LineItemProduct maps an order line item to a product entry. Products whose
// type has variants report the product title as the name and the purchasable
// title as the variant.
func LineItemProduct(item *models.LineItem) (measurement.Product, bool) {
	if item == nil || item.Purchasable == nil {
		return measurement.Product{}, false
	}
	p := measurement.Product{
		SKU:      item.Purchasable.SKU,
		Price:    item.SalePrice,
		Quantity: item.Qty,
	}
	if !item.Purchasable.HasVariants() {
		p.Name = item.Purchasable.Title
	} else {
		p.Name = item.Purchasable.Product.Title
		p.Variant = item.Purchasable.Title
	}
	return p, true
}

// AddProductImpression adds a product impression to hit.
func (g *Gateway) AddProductImpression(hit *measurement.Hit, pv models.ProductOrVariant) *measurement.Hit {
	if hit == nil {
		return nil
	}
	p, ok := ProductData(pv)
	if !ok {
		g.log.Info("no purchasable for product impression")
		return nil
	}
	hit.AddImpression(p)
	g.log.Info("product impression added", zap.String("sku", p.SKU), zap.String("name", p.Name))
	return hit
}

// AddProductDetailView adds a product to hit and marks it as a detail view.
func (g *Gateway) AddProductDetailView(hit *measurement.Hit, pv models.ProductOrVariant) *measurement.Hit {
	if hit == nil {
		return nil
	}
	p, ok := ProductData(pv)
	if !ok {
		g.log.Info("no purchasable for product detail view")
		return nil
	}
	hit.SetProductAction(measurement.ProductActionDetail).AddProduct(p)
	g.log.Info("product detail view added", zap.String("sku", p.SKU), zap.String("name", p.Name))
	return hit
}

// AddLineItem adds item to hit and returns the product name it was reported
// under, or "" when nothing was added.
func (g *Gateway) AddLineItem(hit *measurement.Hit, item *models.LineItem) string {
	if hit == nil {
		return ""
	}
	p, ok := LineItemProduct(item)
	if !ok {
		return ""
	}
	hit.AddProduct(p)
	return p.Name
}

// AddCheckoutStep adds every line item of order plus the checkout step to hit.
func (g *Gateway) AddCheckoutStep(hit *measurement.Hit, order *models.Order, step int, option string) *measurement.Hit {
	if hit == nil || order == nil {
		return nil
	}
	for i := range order.LineItems {
		g.AddLineItem(hit, &order.LineItems[i])
	}
	hit.SetCheckoutStep(step)
	if option != "" {
		hit.SetCheckoutStepOption(option)
	}
	hit.SetProductAction(measurement.ProductActionCheckout)
	g.log.Info("checkout step added", zap.Int("step", step), zap.String("option", option))
	return hit
}

// AddOrder adds the transaction totals and every line item of order to hit.
func (g *Gateway) AddOrder(hit *measurement.Hit, order *models.Order) *measurement.Hit {
	if hit == nil || order == nil {
		return nil
	}
	hit.SetTransactionID(order.Number).
		SetRevenue(order.TotalPrice).
		SetTax(order.TotalTax).
		SetShipping(order.TotalShippingCost)
	if order.CouponCode != "" {
		hit.SetCouponCode(order.CouponCode)
	}
	for i := range order.LineItems {
		g.AddLineItem(hit, &order.LineItems[i])
	}
	return hit
}

// OrderComplete sends one purchase event carrying the whole order.
func (g *Gateway) OrderComplete(ctx context.Context, order *models.Order) *measurement.Hit {
	if order == nil {
		return nil
	}
	hit := g.Event(commerceCategory, actionPurchase, order.Number, order.TotalPrice.IntPart())
	if hit == nil {
		return nil
	}
	g.AddOrder(hit, order)
	g.send(ctx, hit)
	g.log.Info("order complete",
		zap.String("number", order.Number),
		zap.String("total", order.TotalPrice.String()),
		zap.Int("line_items", len(order.LineItems)),
	)
	return hit
}

// AddToCart sends one event for a line item added to the cart.
func (g *Gateway) AddToCart(ctx context.Context, order *models.Order, item *models.LineItem) *measurement.Hit {
	return g.cartEvent(ctx, order, item, actionAddToCart, measurement.ProductActionAdd)
}

// RemoveFromCart sends one event for a line item removed from the cart.
func (g *Gateway) RemoveFromCart(ctx context.Context, order *models.Order, item *models.LineItem) *measurement.Hit {
	return g.cartEvent(ctx, order, item, actionRemoveFromCart, measurement.ProductActionRemove)
}

func (g *Gateway) cartEvent(ctx context.Context, order *models.Order, item *models.LineItem, action string, productAction measurement.ProductAction) *measurement.Hit {
	if item == nil || item.Purchasable == nil {
		return nil
	}
	hit := g.Event(commerceCategory, action, item.Purchasable.Title, int64(item.Qty))
	if hit == nil {
		return nil
	}
	name := g.AddLineItem(hit, item)
	hit.SetEventLabel(name).SetProductAction(productAction)
	g.send(ctx, hit)

	fields := []zap.Field{zap.String("action", action), zap.String("name", name), zap.Int("qty", item.Qty)}
	if order != nil {
		fields = append(fields, zap.String("order", order.Number))
	}
	g.log.Info("cart event", fields...)
	return hit
}
