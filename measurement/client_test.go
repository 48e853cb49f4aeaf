package measurement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendPostsFormEncodedHit(t *testing.T) {
	var got url.Values
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hit := NewHit("UA-1234-1").
		SetType(HitPageview).
		SetClientID("111.222").
		SetIPOverride("10.0.0.1").
		SetUserAgentOverride("test-agent").
		SetDocumentPath("/p?q=1").
		SetDocumentTitle("Home")

	err := NewClient(srv.URL, srv.Client()).Send(context.Background(), hit)
	require.NoError(t, err)

	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
	assert.Equal(t, "1", got.Get("v"))
	assert.Equal(t, "UA-1234-1", got.Get("tid"))
	assert.Equal(t, "111.222", got.Get("cid"))
	assert.Equal(t, "pageview", got.Get("t"))
	assert.Equal(t, "/p?q=1", got.Get("dp"))
	assert.Equal(t, "Home", got.Get("dt"))
	assert.Equal(t, "10.0.0.1", got.Get("uip"))
	assert.Empty(t, got.Get("ec"))
}

func TestClient_SendReportsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, srv.Client()).Send(context.Background(), NewHit("UA-1").SetType(HitEvent))
	assert.Error(t, err)
}

func TestClient_SendNilHitIsNoop(t *testing.T) {
	assert.NoError(t, NewClient("http://127.0.0.1:1/collect", nil).Send(context.Background(), nil))
}

func TestHit_ValuesEncodesCommerceFields(t *testing.T) {
	hit := NewHit("UA-1").
		SetType(HitEvent).
		SetEventCategory("Commerce").
		SetEventAction("Purchase").
		SetEventLabel("1001").
		SetEventValue(42).
		SetTransactionID("1001").
		SetRevenue(decimal.RequireFromString("42.5")).
		SetTax(decimal.RequireFromString("2.5")).
		SetShipping(decimal.NewFromInt(5)).
		SetCouponCode("SAVE10").
		SetProductAction(ProductActionCheckout).
		SetCheckoutStep(2).
		SetCheckoutStepOption("Visa").
		AddProduct(Product{SKU: "A", Name: "Shirt", Variant: "Blue", Price: decimal.NewFromInt(10), Quantity: 2}).
		AddProduct(Product{SKU: "B", Name: "Hat", Price: decimal.RequireFromString("22.5"), Quantity: 1})

	v := hit.Values()
	assert.Equal(t, "42", v.Get("ev"))
	assert.Equal(t, "1001", v.Get("ti"))
	assert.Equal(t, "42.50", v.Get("tr"))
	assert.Equal(t, "2.50", v.Get("tt"))
	assert.Equal(t, "5.00", v.Get("ts"))
	assert.Equal(t, "SAVE10", v.Get("tcc"))
	assert.Equal(t, "checkout", v.Get("pa"))
	assert.Equal(t, "2", v.Get("cos"))
	assert.Equal(t, "Visa", v.Get("col"))
	assert.Equal(t, "Shirt", v.Get("pr1nm"))
	assert.Equal(t, "Blue", v.Get("pr1va"))
	assert.Equal(t, "10.00", v.Get("pr1pr"))
	assert.Equal(t, "2", v.Get("pr1qt"))
	assert.Equal(t, "B", v.Get("pr2id"))
	assert.Empty(t, v.Get("pr2va"))
}

func TestHit_SetProductActionKeepsOnlyLatest(t *testing.T) {
	hit := NewHit("UA-1").
		SetProductAction(ProductActionDetail).
		SetProductAction(ProductActionAdd)

	assert.Equal(t, ProductActionAdd, hit.ProductAction)
	assert.Equal(t, "add", hit.Values().Get("pa"))
}

func TestProduct_JSONPriceHasTwoDecimals(t *testing.T) {
	tests := map[string]string{
		"10":    `"price":"10.00"`,
		"9.999": `"price":"10.00"`,
		"4.5":   `"price":"4.50"`,
	}
	for in, want := range tests {
		raw, err := json.Marshal(Product{SKU: "POSTER", Name: "Poster", Price: decimal.RequireFromString(in)})
		require.NoError(t, err)
		assert.Contains(t, string(raw), want, in)
		assert.Contains(t, string(raw), `"sku":"POSTER"`)
		assert.NotContains(t, string(raw), "quantity")
	}
}
