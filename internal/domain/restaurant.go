package domain

import "github.com/shopspring/decimal"

// Restaurant is the canonical restaurant shape, normalized from the loose
// wire variants the storefront backend has served over time.
type Restaurant struct {
	ID           string
	Name         string
	Description  string
	Cuisine      string
	Rating       float64
	DeliveryMins int
	ImageRef     string
	Menu         []MenuCategory
}

type MenuCategory struct {
	Name  string
	Items []MenuItem
}

// MenuItem is a browsable menu entry.
type MenuItem struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageRef    string
}
