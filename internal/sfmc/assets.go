package sfmc

import "encoding/json"

// assetEnvelope mirrors the fields of an SFMC asset object that the search
// tools project out. The full object is retained separately as raw JSON.
type assetEnvelope struct {
	ID        json.Number `json:"id"`
	Name      string      `json:"name"`
	AssetType struct {
		Name string `json:"name"`
	} `json:"assetType"`
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
	Status struct {
		Name string `json:"name"`
	} `json:"status"`
	CreatedDate  string `json:"createdDate"`
	ModifiedDate string `json:"modifiedDate"`
	CreatedBy    struct {
		Name string `json:"name"`
	} `json:"createdBy"`
	ModifiedBy struct {
		Name string `json:"name"`
	} `json:"modifiedBy"`
	FileProperties struct {
		FileSize int64 `json:"fileSize"`
	} `json:"fileProperties"`
}

// Asset is the read projection of one search hit. Raw carries the complete
// SFMC payload untouched.
type Asset struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	AssetType    string          `json:"asset_type,omitempty"`
	Category     string          `json:"category,omitempty"`
	Status       string          `json:"status,omitempty"`
	CreatedDate  string          `json:"created_date,omitempty"`
	ModifiedDate string          `json:"modified_date,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty"`
	ModifiedBy   string          `json:"modified_by,omitempty"`
	FileSize     int64           `json:"file_size,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

// AssetPage is one page of search results with SFMC's page metadata passed
// through unchanged. No client-side aggregation across pages happens.
type AssetPage struct {
	Count    int
	Page     int
	PageSize int
	Items    []Asset

	// Raw is the complete response body as SFMC returned it.
	Raw json.RawMessage
}

// SearchSummary is the header block of a formatted search result.
type SearchSummary struct {
	TotalFound int `json:"total_found"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// SearchResult is the display-friendly shape returned by the search tools.
type SearchResult struct {
	Summary SearchSummary `json:"search_summary"`
	Assets  []Asset       `json:"assets"`
}

// searchResponse is the wire shape of an asset query response.
type searchResponse struct {
	Count    int               `json:"count"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	Items    []json.RawMessage `json:"items"`
}

// parseAssetPage projects a raw query response into an AssetPage.
func parseAssetPage(body []byte) (*AssetPage, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &UpstreamError{Status: 0, Body: "unparseable search response: " + err.Error()}
	}

	page := &AssetPage{
		Count:    resp.Count,
		Page:     resp.Page,
		PageSize: resp.PageSize,
		Items:    make([]Asset, 0, len(resp.Items)),
		Raw:      json.RawMessage(body),
	}

	for _, raw := range resp.Items {
		var env assetEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		page.Items = append(page.Items, Asset{
			ID:           env.ID.String(),
			Name:         env.Name,
			AssetType:    env.AssetType.Name,
			Category:     env.Category.Name,
			Status:       env.Status.Name,
			CreatedDate:  env.CreatedDate,
			ModifiedDate: env.ModifiedDate,
			CreatedBy:    env.CreatedBy.Name,
			ModifiedBy:   env.ModifiedBy.Name,
			FileSize:     env.FileProperties.FileSize,
			Raw:          raw,
		})
	}

	return page, nil
}

// Summary computes the display summary for this page.
func (p *AssetPage) Summary() SearchSummary {
	s := SearchSummary{
		TotalFound: p.Count,
		Page:       p.Page,
		PageSize:   p.PageSize,
	}
	if s.Page == 0 {
		s.Page = 1
	}
	if s.PageSize > 0 {
		s.TotalPages = (p.Count + s.PageSize - 1) / s.PageSize
	}
	return s
}

// Result packages the page as a display-friendly search result.
func (p *AssetPage) Result() SearchResult {
	return SearchResult{Summary: p.Summary(), Assets: p.Items}
}
