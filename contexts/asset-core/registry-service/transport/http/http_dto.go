package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterAssetRequest struct {
	AssetID      uint64 `json:"asset_id"`
	Seller       string `json:"seller"`
	Price        uint64 `json:"price"`
	MetadataHash string `json:"metadata_hash"`
}

type AssetDTO struct {
	AssetID      uint64 `json:"asset_id"`
	Seller       string `json:"seller"`
	Owner        string `json:"owner"`
	Price        uint64 `json:"price"`
	MetadataHash string `json:"metadata_hash"`
	Registered   bool   `json:"registered"`
	RegisteredAt string `json:"registered_at"`
	UpdatedAt    string `json:"updated_at"`
}

type RegisterAssetResponse struct {
	Status string   `json:"status"`
	Data   AssetDTO `json:"data"`
}

type GetAssetResponse struct {
	Status string   `json:"status"`
	Data   AssetDTO `json:"data"`
}

type AssetMetadataResponse struct {
	Status string `json:"status"`
	Data   struct {
		AssetID      uint64 `json:"asset_id"`
		MetadataHash string `json:"metadata_hash"`
	} `json:"data"`
}

type AssetExistsResponse struct {
	Status string `json:"status"`
	Data   struct {
		AssetID uint64 `json:"asset_id"`
		Exists  bool   `json:"exists"`
	} `json:"data"`
}

type ListAssetsRequest struct {
	Cursor string
	Limit  int
}

type ListAssetsResponse struct {
	Status     string     `json:"status"`
	Data       []AssetDTO `json:"data"`
	NextCursor string     `json:"next_cursor,omitempty"`
}
