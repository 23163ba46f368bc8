package reports_test

import (
	"context"
	"testing"
	"time"

	"example.com/backstage/foodshare/config"
	"example.com/backstage/foodshare/internal/database"
	"example.com/backstage/foodshare/internal/models"
	"example.com/backstage/foodshare/internal/reports"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	handles, err := database.Connect(config.DatabaseConfig{Path: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handles.Close() })
	require.NoError(t, models.EnsureSchema(context.Background(), handles.Write))
	return handles.Write
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 12, 0, 0, 0, time.Local) }
}

func listing(id int, name string, qty int, expiry string, provider int, ptype, location, food, meal string) *models.FoodListing {
	return &models.FoodListing{
		FoodID:       id,
		FoodName:     name,
		Quantity:     qty,
		ExpiryDate:   models.MustParseDate(expiry),
		ProviderID:   provider,
		ProviderType: ptype,
		Location:     location,
		FoodType:     food,
		MealType:     meal,
	}
}

func claim(id, food, receiver int, status string) *models.Claim {
	return &models.Claim{
		ClaimID:    id,
		FoodID:     food,
		ReceiverID: receiver,
		Status:     status,
		Timestamp:  time.Date(2023, 12, 31, 9, 0, 0, 0, time.UTC),
	}
}

func insert(t *testing.T, db *gorm.DB, rows ...interface{}) {
	t.Helper()
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
}

// seed loads a small dataset; today is 2024-01-01
func seed(t *testing.T) (*gorm.DB, *reports.Engine, []*models.FoodListing) {
	db := newTestDB(t)
	insert(t, db,
		&models.Provider{ProviderID: 1, Name: "Alpha", Type: "Restaurant", Address: "1 Main", City: "NYC", Contact: "111"},
		&models.Provider{ProviderID: 2, Name: "Beta", Type: "Grocery Store", Address: "2 Main", City: "NYC", Contact: "222"},
		&models.Provider{ProviderID: 3, Name: "Gamma", Type: "Supermarket", Address: "3 Main", City: "LA", Contact: "333"},
		&models.Receiver{ReceiverID: 1, Name: "Shelter", Type: "NGO", City: "LA"},
		&models.Receiver{ReceiverID: 2, Name: "Pantry", Type: "NGO", City: "NYC"},
		&models.Receiver{ReceiverID: 3, Name: "Joe", Type: "Individual", City: "NYC"},
	)

	listings := []*models.FoodListing{
		listing(1, "Bread", 10, "2024-01-02", 1, "Restaurant", "NYC", models.FoodTypeVegetarian, models.MealTypeLunch),
		listing(2, "Soup", 5, "2024-01-04", 1, "Restaurant", "NYC", models.FoodTypeVegan, models.MealTypeDinner),
		listing(3, "Rice", 20, "2023-12-30", 2, "Grocery Store", "NYC", models.FoodTypeNonVegetarian, models.MealTypeLunch),
		listing(4, "Fruit", 8, "2024-01-01", 3, "Supermarket", "LA", models.FoodTypeVegan, models.MealTypeBreakfast),
		listing(5, "Cake", 3, "2024-01-10", 9, "Catering", "LA", models.FoodTypeVegetarian, models.MealTypeSnacks),
	}
	for _, l := range listings {
		insert(t, db, l)
	}

	insert(t, db,
		claim(1, 1, 1, models.StatusCompleted),
		claim(2, 1, 2, models.StatusPending),
		claim(3, 2, 1, models.StatusCancelled),
		claim(4, 3, 3, models.StatusCompleted),
		claim(5, 4, 1, models.StatusPending),
	)

	return db, reports.NewEngine(db, reports.WithClock(fixedClock(2024, time.January, 1))), listings
}

func TestCatalog(t *testing.T) {
	catalog := reports.Catalog()
	require.Len(t, catalog, 16)

	charts := 0
	for i, def := range catalog {
		require.Equal(t, i+1, def.ID)
		require.NotEmpty(t, def.Slug)
		require.NotEmpty(t, def.Columns)
		if def.Chart {
			charts++
		}
	}
	require.Equal(t, 6, charts)

	def, err := reports.LookupSlug("near-expiry")
	require.NoError(t, err)
	require.Equal(t, reports.NearExpiryID, def.ID)

	_, err = reports.Lookup(17)
	require.ErrorIs(t, err, reports.ErrUnknownReport)
}

func TestExampleFixture(t *testing.T) {
	db := newTestDB(t)
	insert(t, db,
		&models.Provider{ProviderID: 1, Name: "A", Type: "Restaurant", Address: "X", City: "NYC", Contact: "555"},
		listing(1, "Bread", 10, "2099-01-01", 1, "Restaurant", "NYC", models.FoodTypeVegetarian, models.MealTypeLunch),
		&models.Claim{ClaimID: 1, FoodID: 1, ReceiverID: 1, Status: models.StatusCompleted, Timestamp: time.Date(2099, 1, 1, 10, 0, 0, 0, time.UTC)},
	)
	engine := reports.NewEngine(db)
	ctx := context.Background()

	perFood, err := engine.ClaimsPerFood(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.FoodClaims{{FoodID: 1, FoodName: "Bread", TotalClaims: 1}}, perFood)

	unclaimed, err := engine.UnclaimedListings(ctx)
	require.NoError(t, err)
	require.Empty(t, unclaimed)
}

func TestCityReports(t *testing.T) {
	_, engine, _ := seed(t)
	ctx := context.Background()

	providers, err := engine.ProvidersPerCity(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.CityProviders{{City: "NYC", TotalProviders: 2}, {City: "LA", TotalProviders: 1}}, providers)

	receivers, err := engine.ReceiversPerCity(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.CityReceivers{{City: "NYC", TotalReceivers: 2}, {City: "LA", TotalReceivers: 1}}, receivers)

	listings, err := engine.ListingsPerCity(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.CityListings{{City: "NYC", ListingsCount: 3}, {City: "LA", ListingsCount: 2}}, listings)

	contacts, err := engine.ProviderContacts(ctx, "NYC")
	require.NoError(t, err)
	require.Equal(t, []reports.ProviderContact{
		{Name: "Alpha", Contact: "111", Type: "Restaurant", Address: "1 Main"},
		{Name: "Beta", Contact: "222", Type: "Grocery Store", Address: "2 Main"},
	}, contacts)

	none, err := engine.ProviderContacts(ctx, "")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestListingsPerProviderTypeFallsBackToListingCopy(t *testing.T) {
	_, engine, _ := seed(t)

	got, err := engine.ListingsPerProviderType(context.Background())
	require.NoError(t, err)
	require.Equal(t, []reports.ProviderTypeListings{
		{ProviderType: "Restaurant", TotalListings: 2},
		{ProviderType: "Catering", TotalListings: 1},
		{ProviderType: "Grocery Store", TotalListings: 1},
		{ProviderType: "Supermarket", TotalListings: 1},
	}, got)
}

func TestClaimReports(t *testing.T) {
	_, engine, _ := seed(t)
	ctx := context.Background()

	top, err := engine.TopReceiversByClaims(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.ReceiverClaims{
		{ReceiverID: 1, Name: "Shelter", TotalClaims: 3},
		{ReceiverID: 2, Name: "Pantry", TotalClaims: 1},
		{ReceiverID: 3, Name: "Joe", TotalClaims: 1},
	}, top)

	perFood, err := engine.ClaimsPerFood(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.FoodClaims{
		{FoodID: 1, FoodName: "Bread", TotalClaims: 2},
		{FoodID: 2, FoodName: "Soup", TotalClaims: 1},
		{FoodID: 3, FoodName: "Rice", TotalClaims: 1},
		{FoodID: 4, FoodName: "Fruit", TotalClaims: 1},
		{FoodID: 5, FoodName: "Cake", TotalClaims: 0},
	}, perFood)

	completed, err := engine.TopProvidersByCompletedClaims(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.ProviderCompletedClaims{
		{ProviderID: 1, Name: "Alpha", CompletedClaims: 1},
		{ProviderID: 2, Name: "Beta", CompletedClaims: 1},
	}, completed)

	meals, err := engine.ClaimsByMealType(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.MealTypeClaims{
		{MealType: models.MealTypeLunch, ClaimsCount: 3},
		{MealType: models.MealTypeBreakfast, ClaimsCount: 1},
		{MealType: models.MealTypeDinner, ClaimsCount: 1},
	}, meals)

	averages, err := engine.AverageQuantityPerReceiver(ctx)
	require.NoError(t, err)
	require.Len(t, averages, 3)
	require.Equal(t, 3, averages[0].ReceiverID)
	require.InDelta(t, 20.0, averages[0].AvgQuantityPerClaim, 0.001)
	require.Equal(t, 2, averages[1].ReceiverID)
	require.InDelta(t, 10.0, averages[1].AvgQuantityPerClaim, 0.001)
	require.Equal(t, 1, averages[2].ReceiverID)
	require.InDelta(t, 7.67, averages[2].AvgQuantityPerClaim, 0.001)
}

func TestClaimStatusDistributionSumsToHundred(t *testing.T) {
	_, engine, _ := seed(t)

	shares, err := engine.ClaimStatusDistribution(context.Background())
	require.NoError(t, err)
	require.Len(t, shares, 3)
	require.Equal(t, models.StatusCompleted, shares[0].Status)
	require.Equal(t, int64(2), shares[0].Count)
	require.InDelta(t, 40.0, shares[0].Pct, 0.001)
	require.Equal(t, models.StatusCancelled, shares[2].Status)
	require.InDelta(t, 20.0, shares[2].Pct, 0.001)

	var total float64
	for _, s := range shares {
		total += s.Pct
	}
	require.InDelta(t, 100.0, total, 0.01)
}

func TestQuantityReports(t *testing.T) {
	_, engine, listings := seed(t)
	ctx := context.Background()

	donated, err := engine.QuantityDonatedPerProvider(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.ProviderDonation{
		{ProviderID: 2, Name: "Beta", TotalQuantityDonated: 20},
		{ProviderID: 1, Name: "Alpha", TotalQuantityDonated: 15},
		{ProviderID: 3, Name: "Gamma", TotalQuantityDonated: 8},
	}, donated)

	types, err := engine.FoodTypeDistribution(ctx)
	require.NoError(t, err)
	require.Equal(t, []reports.FoodTypeCount{
		{FoodType: models.FoodTypeVegan, Occurrences: 2},
		{FoodType: models.FoodTypeVegetarian, Occurrences: 2},
		{FoodType: models.FoodTypeNonVegetarian, Occurrences: 1},
	}, types)

	// Cross-check against a direct computation over the fixture
	today := engine.Today()
	var expected int64
	for _, l := range listings {
		if !l.ExpiryDate.Before(today) {
			expected += int64(l.Quantity)
		}
	}
	total, err := engine.TotalAvailableQuantity(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(26), expected)
	require.Equal(t, expected, total)
}

func TestTotalAvailableQuantityEmpty(t *testing.T) {
	engine := reports.NewEngine(newTestDB(t))
	total, err := engine.TotalAvailableQuantity(context.Background())
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestNearExpiry(t *testing.T) {
	_, engine, _ := seed(t)
	ctx := context.Background()

	got, err := engine.NearExpiry(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Fruit", got[0].FoodName)
	require.Equal(t, "2024-01-01", got[0].ExpiryDate.String())
	require.Equal(t, "Bread", got[1].FoodName)
	require.Equal(t, "2024-01-02", got[1].ExpiryDate.String())

	defaulted, err := engine.NearExpiry(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, got, defaulted)

	wider, err := engine.NearExpiry(ctx, 3)
	require.NoError(t, err)
	require.Len(t, wider, 3)
	require.Equal(t, "Soup", wider[2].FoodName)

	_, err = engine.NearExpiry(ctx, 31)
	require.ErrorIs(t, err, reports.ErrInvalidParameter)
	_, err = engine.NearExpiry(ctx, -1)
	require.ErrorIs(t, err, reports.ErrInvalidParameter)
}

func TestValidateNearExpiryDays(t *testing.T) {
	for _, days := range []int{0, -1, 31} {
		require.ErrorIs(t, reports.ValidateNearExpiryDays(days), reports.ErrInvalidParameter, days)
	}
	for _, days := range []int{1, 2, 30} {
		require.NoError(t, reports.ValidateNearExpiryDays(days), days)
	}

	def, err := reports.Lookup(reports.NearExpiryID)
	require.NoError(t, err)
	require.True(t, def.Takes(reports.ParamDays))
	require.False(t, def.Takes(reports.ParamCity))

	def, err = reports.Lookup(reports.ProviderContactsID)
	require.NoError(t, err)
	require.True(t, def.Takes(reports.ParamCity))
	require.False(t, def.Takes(reports.ParamDays))
}

func TestNearExpiryWindowBoundaries(t *testing.T) {
	db := newTestDB(t)
	insert(t, db,
		listing(1, "In", 1, "2024-01-02", 1, "", "NYC", models.FoodTypeVegan, models.MealTypeLunch),
		listing(2, "Out", 1, "2024-01-04", 1, "", "NYC", models.FoodTypeVegan, models.MealTypeLunch),
	)
	engine := reports.NewEngine(db, reports.WithClock(fixedClock(2024, time.January, 1)))

	got, err := engine.NearExpiry(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, got[0].FoodID)
}

func TestUnclaimedListings(t *testing.T) {
	_, engine, _ := seed(t)

	got, err := engine.UnclaimedListings(context.Background())
	require.NoError(t, err)
	ids := make([]int, 0, len(got))
	for _, row := range got {
		ids = append(ids, row.FoodID)
	}
	require.Equal(t, []int{4, 2, 5}, ids)
}

func TestRunReturnsTable(t *testing.T) {
	_, engine, _ := seed(t)
	ctx := context.Background()

	table, err := engine.Run(ctx, reports.ProvidersPerCityID, reports.Params{})
	require.NoError(t, err)
	require.Equal(t, []string{"City", "total_providers"}, table.Columns)
	require.Equal(t, [][]interface{}{{"NYC", int64(2)}, {"LA", int64(1)}}, table.Rows)

	table, err = engine.Run(ctx, reports.NearExpiryID, reports.Params{Days: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"Food_ID", "Food_Name", "Quantity", "Expiry_Date", "Location"}, table.Columns)
	require.Len(t, table.Rows, 2)
	require.Equal(t, "2024-01-01", table.Rows[0][3])

	table, err = engine.Run(ctx, reports.ProviderContactsID, reports.Params{})
	require.NoError(t, err)
	require.Equal(t, []string{"Name", "Contact", "Type", "Address"}, table.Columns)
	require.Empty(t, table.Rows)

	for _, def := range reports.Catalog() {
		table, err := engine.Run(ctx, def.ID, reports.Params{City: "NYC", Days: 5})
		require.NoError(t, err, def.Slug)
		require.Equal(t, def.Columns, table.Columns, def.Slug)
	}

	_, err = engine.Run(ctx, 0, reports.Params{})
	require.ErrorIs(t, err, reports.ErrUnknownReport)
	_, err = engine.Run(ctx, reports.NearExpiryID, reports.Params{Days: 45})
	require.ErrorIs(t, err, reports.ErrInvalidParameter)
}
