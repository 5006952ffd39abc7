package models

// FieldKey names an editable profile field.
type FieldKey string

const (
	FieldShopName        FieldKey = "shopName"
	FieldBusinessType    FieldKey = "businessType"
	FieldLocationCity    FieldKey = "locationCity"
	FieldSellingChannels FieldKey = "sellingChannels"
	FieldInventorySize   FieldKey = "inventorySize"
	FieldPrimaryGoal     FieldKey = "primaryGoal"
	FieldDisplayName     FieldKey = "displayName" // profile editor only
)

// AnswerFields returns the onboarding answer fields in step order.
func AnswerFields() []FieldKey {
	return []FieldKey{
		FieldShopName,
		FieldBusinessType,
		FieldLocationCity,
		FieldSellingChannels,
		FieldInventorySize,
		FieldPrimaryGoal,
	}
}

// IsValid reports whether k is an answer field or displayName.
func (k FieldKey) IsValid() bool {
	if k == FieldDisplayName {
		return true
	}
	for _, f := range AnswerFields() {
		if k == f {
			return true
		}
	}
	return false
}

// IsMultiSelect reports whether the field holds a set of values.
func (k FieldKey) IsMultiSelect() bool {
	return k == FieldSellingChannels
}

var (
	businessTypes   = []string{"Kirana / Grocery", "Restaurant", "Salon", "Pharmacy", "Boutique", "Other"}
	sellingChannels = []string{"In-store", "WhatsApp", "Instagram", "Zomato", "Swiggy", "ONDC"}
	inventorySizes  = []string{"<50", "50-200", "200+"}
	primaryGoals    = []string{"Faster billing", "More online orders", "Track inventory", "Grow repeat customers"}
)

// BusinessTypes returns the fixed business type options.
func BusinessTypes() []string { return append([]string(nil), businessTypes...) }

// SellingChannels returns the fixed selling channel options.
func SellingChannels() []string { return append([]string(nil), sellingChannels...) }

// InventorySizes returns the fixed inventory size buckets.
func InventorySizes() []string { return append([]string(nil), inventorySizes...) }

// PrimaryGoals returns the fixed primary goal options.
func PrimaryGoals() []string { return append([]string(nil), primaryGoals...) }

// IsSellingChannel reports whether v is one of the known channels.
func IsSellingChannel(v string) bool {
	for _, c := range sellingChannels {
		if c == v {
			return true
		}
	}
	return false
}
