package models

// TipSettings holds up to three restaurant-configured tip percentages
// offered as quick-select presets.
type TipSettings struct {
	Option1 float64 `json:"opcion1"`
	Option2 float64 `json:"opcion2"`
	Option3 float64 `json:"opcion3"`
}

// TaxSettings holds the restaurant-wide tax policy.
type TaxSettings struct {
	VATPercentage float64 `json:"porcentajeIVA"`
}

// SystemConfiguration is the restaurant-wide policy fetched from
// GET /configuracion and mirrored into the shared cache.
type SystemConfiguration struct {
	Taxes TaxSettings `json:"impuestos"`
	Tips  TipSettings `json:"propinas"`
}

// CachedConfiguration is the cache envelope for SystemConfiguration,
// matching the shape the terminal UI historically wrote to local storage.
type CachedConfiguration struct {
	Data      *SystemConfiguration `json:"datos"`
	UpdatedAt int64                `json:"actualizadoEn"`
}
