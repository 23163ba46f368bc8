package models

import (
	"time"
)

// Table names
const (
	TableProviders    = "providers"
	TableReceivers    = "receivers"
	TableFoodListings = "food_listings"
	TableClaims       = "claims"
)

// Claim statuses
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Food types
const (
	FoodTypeVegetarian    = "Vegetarian"
	FoodTypeNonVegetarian = "Non-Vegetarian"
	FoodTypeVegan         = "Vegan"
)

// Meal types
const (
	MealTypeBreakfast = "Breakfast"
	MealTypeLunch     = "Lunch"
	MealTypeDinner    = "Dinner"
	MealTypeSnacks    = "Snacks"
)

var (
	ClaimStatuses = []string{StatusPending, StatusCompleted, StatusCancelled}
	FoodTypes     = []string{FoodTypeVegetarian, FoodTypeNonVegetarian, FoodTypeVegan}
	MealTypes     = []string{MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnacks}
)

// Provider is an organisation that donates food. Provider_ID is indexed
// but not unique: submitting an existing id appends another row.
type Provider struct {
	ProviderID int    `gorm:"column:provider_id;not null;index" json:"Provider_ID" validate:"gte=1"`
	Name       string `gorm:"column:name;type:varchar(100);not null" json:"Name" validate:"required,max=100"`
	Type       string `gorm:"column:type;type:varchar(50)" json:"Type" validate:"max=50"`
	Address    string `gorm:"column:address;type:varchar(255)" json:"Address" validate:"max=255"`
	City       string `gorm:"column:city;type:varchar(50)" json:"City" validate:"max=50"`
	Contact    string `gorm:"column:contact;type:varchar(50)" json:"Contact" validate:"max=50"`
}

func (Provider) TableName() string { return TableProviders }

// Receiver is an organisation or individual that claims food. Like
// providers, ids are not unique.
type Receiver struct {
	ReceiverID int    `gorm:"column:receiver_id;not null;index" json:"Receiver_ID" validate:"gte=1"`
	Name       string `gorm:"column:name;type:varchar(100);not null" json:"Name" validate:"required,max=100"`
	Type       string `gorm:"column:type;type:varchar(50)" json:"Type" validate:"max=50"`
	City       string `gorm:"column:city;type:varchar(50)" json:"City" validate:"max=50"`
	Contact    string `gorm:"column:contact;type:varchar(50)" json:"Contact" validate:"max=50"`
}

func (Receiver) TableName() string { return TableReceivers }

// FoodListing is a quantity of a food item available for claiming.
// Provider_Type and Location are copies and may diverge from the provider.
type FoodListing struct {
	FoodID       int    `gorm:"column:food_id;primaryKey;autoIncrement:false" json:"Food_ID" validate:"gte=1"`
	FoodName     string `gorm:"column:food_name;type:varchar(100);not null" json:"Food_Name" validate:"required,max=100"`
	Quantity     int    `gorm:"column:quantity;not null" json:"Quantity" validate:"gte=1"`
	ExpiryDate   Date   `gorm:"column:expiry_date;not null" json:"Expiry_Date" validate:"required"`
	ProviderID   int    `gorm:"column:provider_id;not null;index" json:"Provider_ID" validate:"gte=1"`
	ProviderType string `gorm:"column:provider_type;type:varchar(50)" json:"Provider_Type" validate:"max=50"`
	Location     string `gorm:"column:location;type:varchar(50)" json:"Location" validate:"max=50"`
	FoodType     string `gorm:"column:food_type;type:varchar(50)" json:"Food_Type" validate:"oneof=Vegetarian Non-Vegetarian Vegan"`
	MealType     string `gorm:"column:meal_type;type:varchar(50)" json:"Meal_Type" validate:"oneof=Breakfast Lunch Dinner Snacks"`
}

func (FoodListing) TableName() string { return TableFoodListings }

// Claim is a receiver's request against a listing.
type Claim struct {
	ClaimID    int       `gorm:"column:claim_id;primaryKey;autoIncrement:false" json:"Claim_ID" validate:"gte=1"`
	FoodID     int       `gorm:"column:food_id;not null;index" json:"Food_ID" validate:"gte=1"`
	ReceiverID int       `gorm:"column:receiver_id;not null;index" json:"Receiver_ID" validate:"gte=1"`
	Status     string    `gorm:"column:status;type:varchar(20);not null" json:"Status" validate:"oneof=Pending Completed Cancelled"`
	Timestamp  time.Time `gorm:"column:timestamp;not null" json:"Timestamp"`
}

func (Claim) TableName() string { return TableClaims }

// All returns one value of every managed model, in creation order.
func All() []interface{} {
	return []interface{}{
		&Provider{},
		&Receiver{},
		&FoodListing{},
		&Claim{},
	}
}

// Tables returns the managed table names, in creation order.
func Tables() []string {
	return []string{TableProviders, TableReceivers, TableFoodListings, TableClaims}
}
