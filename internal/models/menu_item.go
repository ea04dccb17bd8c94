package models

// MenuItem is a product offered in the chat menu. Prices are integer minor units.
type MenuItem struct {
	BaseModel
	ItemID      string `gorm:"uniqueIndex;not null" json:"item_id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	IsAvailable bool   `gorm:"index" json:"is_available"`
	SortOrder   int    `json:"sort_order"`
}
