package sfmc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, fake *fakeSFMC) *Client {
	t.Helper()
	return NewClient(NewSession(fake.config()), nil)
}

func TestSearchPostsQueryBody(t *testing.T) {
	fake := newFakeSFMC(t)
	fake.assetBody = `{
		"count": 2, "page": 1, "pageSize": 20,
		"items": [
			{"id": 101, "name": "Spring Newsletter", "assetType": {"name": "email"},
			 "modifiedDate": "2024-03-01T10:00:00Z", "createdBy": {"name": "Ann"},
			 "category": {"name": "Campaigns"}},
			{"id": 102, "name": "Summer Newsletter", "assetType": {"name": "email"}}
		]
	}`
	client := newTestClient(t, fake)

	page, err := client.Search(context.Background(), SimpleSearch{Name: "newsletter", PageSize: 20})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if fake.lastPath() != queryPath {
		t.Errorf("expected POST to %s, got %s", queryPath, fake.lastPath())
	}
	if !strings.HasPrefix(fake.lastAuthHeader(), "Bearer ") {
		t.Errorf("expected bearer authorization, got %q", fake.lastAuthHeader())
	}

	var body struct {
		Page  Page                   `json:"page"`
		Query map[string]interface{} `json:"query"`
	}
	if err := json.Unmarshal(fake.queryBody(), &body); err != nil {
		t.Fatalf("outbound body is not JSON: %v", err)
	}
	if body.Query["property"] != "name" || body.Query["simpleOperator"] != "contains" || body.Query["value"] != "newsletter" {
		t.Errorf("unexpected outbound query: %v", body.Query)
	}
	if body.Page.PageSize != 20 {
		t.Errorf("expected page size 20 in outbound body, got %d", body.Page.PageSize)
	}

	if page.Count != 2 || len(page.Items) != 2 {
		t.Fatalf("expected 2 results, got count=%d items=%d", page.Count, len(page.Items))
	}
	first := page.Items[0]
	if first.ID != "101" || first.Name != "Spring Newsletter" || first.AssetType != "email" {
		t.Errorf("unexpected projection: %+v", first)
	}
	if first.Category != "Campaigns" || first.CreatedBy != "Ann" {
		t.Errorf("unexpected projection details: %+v", first)
	}
	if len(first.Raw) == 0 {
		t.Error("expected raw payload passthrough on the asset")
	}
}

func TestQueryPaginationRoundTrip(t *testing.T) {
	fake := newFakeSFMC(t)
	client := newTestClient(t, fake)

	req, err := ParseQueryBody([]byte(`{
		"page": {"page": 4, "pageSize": 12},
		"query": {"property": "name", "simpleOperator": "contains", "value": "x"}
	}`))
	if err != nil {
		t.Fatalf("ParseQueryBody failed: %v", err)
	}

	if _, err := client.Query(context.Background(), req); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	var body struct {
		Page Page `json:"page"`
	}
	if err := json.Unmarshal(fake.queryBody(), &body); err != nil {
		t.Fatalf("outbound body is not JSON: %v", err)
	}
	if body.Page.Page != 4 || body.Page.PageSize != 12 {
		t.Errorf("pagination did not round-trip: got %+v, want {4 12}", body.Page)
	}
}

func TestMalformedQueryRejectedBeforeHTTP(t *testing.T) {
	fake := newFakeSFMC(t)

	_, err := ParseQueryBody([]byte(`{"query": {"property": "name", "simpleOperator": "contains"}}`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if got := fake.tokenRequestCount(); got != 0 {
		t.Errorf("expected no token request for malformed query, got %d", got)
	}
	if got := fake.assetRequestCount(); got != 0 {
		t.Errorf("expected no search request for malformed query, got %d", got)
	}
}

func TestSearchUnauthorizedSurfacesAuthError(t *testing.T) {
	fake := newFakeSFMC(t)
	fake.assetStatus = http.StatusUnauthorized
	fake.assetBody = `{"message": "Not Authorized"}`
	client := newTestClient(t, fake)

	_, err := client.Search(context.Background(), SimpleSearch{Name: "x"})
	if err == nil {
		t.Fatal("expected an error on 401")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", authErr.Status)
	}
}

func TestSearchUpstreamErrorSurfacedVerbatim(t *testing.T) {
	fake := newFakeSFMC(t)
	fake.assetStatus = http.StatusBadGateway
	fake.assetBody = `{"message": "upstream exploded"}`
	client := newTestClient(t, fake)

	_, err := client.Search(context.Background(), SimpleSearch{Name: "x"})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upErr.Status != http.StatusBadGateway || !strings.Contains(upErr.Body, "upstream exploded") {
		t.Errorf("upstream body not surfaced verbatim: %+v", upErr)
	}
}

func TestSearchReusesTokenAcrossCalls(t *testing.T) {
	fake := newFakeSFMC(t)
	client := newTestClient(t, fake)

	ctx := context.Background()
	if _, err := client.Search(ctx, SimpleSearch{Name: "a"}); err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	if _, err := client.Search(ctx, SimpleSearch{Name: "b"}); err != nil {
		t.Fatalf("second search failed: %v", err)
	}

	if got := fake.tokenRequestCount(); got != 1 {
		t.Errorf("expected 1 token request across 2 searches, got %d", got)
	}
	if got := fake.assetRequestCount(); got != 2 {
		t.Errorf("expected 2 search requests, got %d", got)
	}
}

func TestGetAsset(t *testing.T) {
	fake := newFakeSFMC(t)
	fake.assetBody = `{"id": 12345, "name": "Welcome Email"}`
	client := newTestClient(t, fake)

	raw, err := client.GetAsset(context.Background(), "12345")
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}

	if fake.lastPath() != assetsPath+"/12345" {
		t.Errorf("unexpected asset path: %s", fake.lastPath())
	}
	var asset map[string]interface{}
	if err := json.Unmarshal(raw, &asset); err != nil {
		t.Fatalf("asset payload is not JSON: %v", err)
	}
	if asset["name"] != "Welcome Email" {
		t.Errorf("unexpected asset payload: %v", asset)
	}
}

func TestGetAssetEmptyID(t *testing.T) {
	fake := newFakeSFMC(t)
	client := newTestClient(t, fake)

	_, err := client.GetAsset(context.Background(), "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for empty id, got %v", err)
	}
	if got := fake.assetRequestCount(); got != 0 {
		t.Errorf("expected no HTTP call for empty id, got %d", got)
	}
}
