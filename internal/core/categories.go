package core

// Category identifies an account in the fixed chart of accounts.
type Category string

// CategoryInfo pairs an account ID with its display name.
type CategoryInfo struct {
	ID   Category `json:"id"`
	Name string   `json:"name"`
}

const (
	CategorySales       Category = "sales"
	CategoryService     Category = "service"
	CategoryOtherIncome Category = "other_income"

	CategoryCOGS          Category = "cogs"
	CategorySalary        Category = "salary"
	CategoryPartTime      Category = "part_time"
	CategoryRent          Category = "rent"
	CategoryStationery    Category = "stationery"
	CategoryTravel        Category = "travel"
	CategoryShipping      Category = "shipping"
	CategoryPostage       Category = "postage"
	CategoryRepair        Category = "repair"
	CategoryAdvertisement Category = "advertisement"
	CategoryEntertainment Category = "entertainment"
	CategoryTax           Category = "tax"
	CategoryUtilities     Category = "utilities"
	CategoryOtherExpense  Category = "other_expense"
)

var IncomeCategories = []CategoryInfo{
	{ID: CategorySales, Name: "銷貨收入"},
	{ID: CategoryService, Name: "勞務收入"},
	{ID: CategoryOtherIncome, Name: "其他收入"},
}

var ExpenseCategories = []CategoryInfo{
	{ID: CategoryCOGS, Name: "進貨成本"},
	{ID: CategorySalary, Name: "薪資支出"},
	{ID: CategoryPartTime, Name: "兼職/勞務費"},
	{ID: CategoryRent, Name: "租金支出"},
	{ID: CategoryStationery, Name: "文具用品"},
	{ID: CategoryTravel, Name: "旅費/交通費"},
	{ID: CategoryShipping, Name: "運費"},
	{ID: CategoryPostage, Name: "郵電費"},
	{ID: CategoryRepair, Name: "修繕費"},
	{ID: CategoryAdvertisement, Name: "廣告費"},
	{ID: CategoryEntertainment, Name: "交際費"},
	{ID: CategoryTax, Name: "稅捐"},
	{ID: CategoryUtilities, Name: "水電瓦斯"},
	{ID: CategoryOtherExpense, Name: "其他費用"},
}

// CategoriesFor returns the chart of accounts for a transaction type.
func CategoriesFor(t TransactionType) []CategoryInfo {
	if t == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

// CategoryName returns the display name of id, or id itself when unknown.
func CategoryName(id Category, t TransactionType) string {
	for _, c := range CategoriesFor(t) {
		if c.ID == id {
			return c.Name
		}
	}
	return string(id)
}

// IsValidCategory reports whether id belongs to the chart for t.
func IsValidCategory(t TransactionType, id Category) bool {
	if !t.IsValid() {
		return false
	}
	for _, c := range CategoriesFor(t) {
		if c.ID == id {
			return true
		}
	}
	return false
}

// DefaultCategory is the first account of the chart for t.
func DefaultCategory(t TransactionType) Category {
	return CategoriesFor(t)[0].ID
}
