package models

// SeedLocation một dòng dữ liệu địa điểm khi seed.
// Address là địa chỉ thô, dùng để điền các trường còn trống.
type SeedLocation struct {
	Code      string   `json:"code" yaml:"code"`
	Name      string   `json:"name" yaml:"name"`
	District  string   `json:"district,omitempty" yaml:"district,omitempty"`
	State     string   `json:"state,omitempty" yaml:"state,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Address   string   `json:"address,omitempty" yaml:"address,omitempty"`
}

// SeedCollege một dòng dữ liệu college khi seed
type SeedCollege struct {
	Name      string   `json:"name" yaml:"name"`
	Category  string   `json:"category,omitempty" yaml:"category,omitempty"`
	Code      string   `json:"code,omitempty" yaml:"code,omitempty"`
	Locality  string   `json:"locality,omitempty" yaml:"locality,omitempty"`
	District  string   `json:"district,omitempty" yaml:"district,omitempty"`
	State     string   `json:"state,omitempty" yaml:"state,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Address   string   `json:"address,omitempty" yaml:"address,omitempty"`
}

// SeedFile nội dung file seed (yaml hoặc json)
type SeedFile struct {
	Locations []SeedLocation `json:"locations" yaml:"locations"`
	Colleges  []SeedCollege  `json:"colleges" yaml:"colleges"`
}
