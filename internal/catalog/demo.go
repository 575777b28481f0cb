package catalog

import "github.com/shopspring/decimal"

// Demo is the sample catalog loaded by cmd/seed and by the memory store.
func Demo() []Product {
	return []Product{
		{ID: "p1", SKU: "COF-GAYO-250", Name: "Kopi Gayo 250g", Category: "coffee", Price: decimal.NewFromInt(100), Discount: decimal.NewFromInt(20), Stock: 5, Status: StatusActive},
		{ID: "p2", SKU: "TEA-TARIK-10", Name: "Teh Tarik isi 10", Category: "tea", Price: decimal.NewFromInt(45), Stock: 40, Status: StatusActive},
		{ID: "p3", SKU: "MUG-ENAMEL", Name: "Enamel Mug", Category: "merch", Price: decimal.RequireFromString("65.50"), Discount: decimal.RequireFromString("5.50"), Stock: 12, Status: StatusActive},
		{ID: "p4", SKU: "GRD-HAND", Name: "Hand Grinder", Category: "equipment", Price: decimal.NewFromInt(350), Stock: 0, Status: StatusActive},
		{ID: "p5", SKU: "COF-TORAJA-OLD", Name: "Kopi Toraja (discontinued)", Category: "coffee", Price: decimal.NewFromInt(90), Stock: 3, Status: StatusInactive},
	}
}
