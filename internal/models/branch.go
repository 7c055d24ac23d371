package models

import "time"

// Branch is a physical location of a Brand inside a District of a Region.
type Branch struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`

	RegionID uint    `gorm:"not null;index" json:"region_id"`
	Region   *Region `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"region,omitempty"`

	DistrictID uint      `gorm:"not null;index" json:"district_id"`
	District   *District `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"district,omitempty"`

	BrandID uint   `gorm:"not null;index" json:"brand_id"`
	Brand   *Brand `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"brand,omitempty"`

	Images []BranchImage `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BranchImage stores only the generated file name; the folder comes from the
// asset category.
type BranchImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Image     string    `gorm:"size:255;not null" json:"image"`
	BranchID  uint      `gorm:"not null;index" json:"branch_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
