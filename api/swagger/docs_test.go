package swagger

import (
	"encoding/json"
	"testing"
)

func TestDocumentListsRoutes(t *testing.T) {
	var doc struct {
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}
	if err := json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}

	routes := map[string]string{
		"/login":                         "post",
		"/api/pos/quote":                 "post",
		"/api/pos/checkout":              "post",
		"/api/shifts/start":              "post",
		"/api/shifts/end":                "post",
		"/api/endorsements/{phase}":      "post",
		"/api/inventory/daily":           "get",
		"/api/imports":                   "post",
		"/api/receivables/{id}/payments": "post",
		"/api/reports/sales":             "get",
	}
	for path, method := range routes {
		if _, ok := doc.Paths[path][method]; !ok {
			t.Errorf("missing %s %s", method, path)
		}
	}
	for _, def := range []string{"response.Response", "service.CheckoutRequest", "service.CartOp", "model.Sale"} {
		if _, ok := doc.Definitions[def]; !ok {
			t.Errorf("missing definition %s", def)
		}
	}
}
