package repositories_test

import (
	"context"
	"testing"
	"time"

	"example.com/backstage/foodshare/config"
	"example.com/backstage/foodshare/internal/database"
	"example.com/backstage/foodshare/internal/models"
	"example.com/backstage/foodshare/internal/repositories"

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

func bread() *models.FoodListing {
	return &models.FoodListing{
		FoodID:       1,
		FoodName:     "Bread",
		Quantity:     10,
		ExpiryDate:   models.MustParseDate("2099-01-01"),
		ProviderID:   1,
		ProviderType: "Restaurant",
		Location:     "NYC",
		FoodType:     models.FoodTypeVegetarian,
		MealType:     models.MealTypeLunch,
	}
}

func TestProviderAppendOrInsert(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewProviderRepository(db, db)
	ctx := context.Background()

	p := &models.Provider{ProviderID: 1, Name: "A", Type: "Restaurant", Address: "X", City: "NYC", Contact: "555"}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.Read(ctx, repositories.ProviderFilter{ProviderID: 1})
	require.NoError(t, err)
	require.Equal(t, []models.Provider{*p}, got)

	// Same key appends a second row
	dup := *p
	dup.Name = "A2"
	require.NoError(t, repo.AppendOrInsert(ctx, &dup))

	got, err = repo.Read(ctx, repositories.ProviderFilter{ProviderID: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)

	deleted, err := repo.Delete(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	got, err = repo.Read(ctx, repositories.ProviderFilter{ProviderID: 1})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestProviderReadFilters(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewProviderRepository(db, db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Provider{ProviderID: 1, Name: "A", Type: "Restaurant", City: "NYC"}))
	require.NoError(t, repo.Create(ctx, &models.Provider{ProviderID: 2, Name: "B", Type: "Grocery Store", City: "NYC"}))
	require.NoError(t, repo.Create(ctx, &models.Provider{ProviderID: 3, Name: "C", Type: "Restaurant", City: "LA"}))

	all, err := repo.Read(ctx, repositories.ProviderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	nyc, err := repo.Read(ctx, repositories.ProviderFilter{City: "NYC"})
	require.NoError(t, err)
	require.Len(t, nyc, 2)

	nycRestaurants, err := repo.Read(ctx, repositories.ProviderFilter{City: "NYC", Type: "Restaurant"})
	require.NoError(t, err)
	require.Len(t, nycRestaurants, 1)
	require.Equal(t, "A", nycRestaurants[0].Name)
}

func TestReceiverCRUD(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewReceiverRepository(db, db)
	ctx := context.Background()

	r := &models.Receiver{ReceiverID: 7, Name: "Shelter", Type: "NGO", City: "LA", Contact: "1"}
	require.NoError(t, repo.Create(ctx, r))
	require.NoError(t, repo.Create(ctx, r))

	got, err := repo.Read(ctx, repositories.ReceiverFilter{ReceiverID: 7})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, *r, got[0])

	deleted, err := repo.Delete(ctx, 99)
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestFoodListingInsertStrict(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewFoodListingRepository(db, db)
	ctx := context.Background()

	listing := bread()
	require.NoError(t, repo.Create(ctx, listing))

	got, err := repo.Read(ctx, repositories.FoodListingFilter{FoodID: 1})
	require.NoError(t, err)
	require.Equal(t, []models.FoodListing{*listing}, got)

	err = repo.InsertStrict(ctx, bread())
	require.ErrorIs(t, err, repositories.ErrDuplicateKey)

	got, err = repo.Read(ctx, repositories.FoodListingFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestFoodListingInsertStrictWithoutPrimaryKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Imported tables carry no primary key constraint
	require.NoError(t, db.Migrator().DropTable(models.TableFoodListings))
	require.NoError(t, db.Exec(`CREATE TABLE food_listings (
		food_id INTEGER, food_name TEXT, quantity INTEGER, expiry_date DATE, provider_id INTEGER,
		provider_type TEXT, location TEXT, food_type TEXT, meal_type TEXT)`).Error)

	repo := repositories.NewFoodListingRepository(db, db)
	require.NoError(t, repo.InsertStrict(ctx, bread()))
	require.ErrorIs(t, repo.InsertStrict(ctx, bread()), repositories.ErrDuplicateKey)
}

func TestFoodListingReadFilters(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewFoodListingRepository(db, db)
	ctx := context.Background()

	first := bread()
	second := bread()
	second.FoodID = 2
	second.Location = "LA"
	second.MealType = models.MealTypeDinner
	third := bread()
	third.FoodID = 3
	third.FoodType = models.FoodTypeVegan
	for _, l := range []*models.FoodListing{first, second, third} {
		require.NoError(t, repo.Create(ctx, l))
	}

	byCity, err := repo.Read(ctx, repositories.FoodListingFilter{City: "NYC"})
	require.NoError(t, err)
	require.Len(t, byCity, 2)

	byMeal, err := repo.Read(ctx, repositories.FoodListingFilter{MealType: models.MealTypeDinner})
	require.NoError(t, err)
	require.Len(t, byMeal, 1)
	require.Equal(t, 2, byMeal[0].FoodID)

	combined, err := repo.Read(ctx, repositories.FoodListingFilter{City: "NYC", FoodType: models.FoodTypeVegan})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	require.Equal(t, 3, combined[0].FoodID)
}

func TestFoodListingUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewFoodListingRepository(db, db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, bread()))

	affected, err := repo.Update(ctx, 1, repositories.FoodListingUpdate{
		Quantity:   3,
		ExpiryDate: models.MustParseDate("2099-02-01"),
		Location:   "Boston",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	got, err := repo.Read(ctx, repositories.FoodListingFilter{FoodID: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 3, got[0].Quantity)
	require.Equal(t, "2099-02-01", got[0].ExpiryDate.String())
	require.Equal(t, "Boston", got[0].Location)
	require.Equal(t, "Bread", got[0].FoodName)

	affected, err = repo.Update(ctx, 42, repositories.FoodListingUpdate{Quantity: 1, ExpiryDate: models.MustParseDate("2099-02-01")})
	require.NoError(t, err)
	require.Zero(t, affected)

	deleted, err := repo.Delete(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	got, err = repo.Read(ctx, repositories.FoodListingFilter{FoodID: 1})
	require.NoError(t, err)
	require.Empty(t, got)

	deleted, err = repo.Delete(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestClaimLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewClaimRepository(db, db)
	ctx := context.Background()

	ts := time.Date(2099, 1, 1, 10, 0, 0, 0, time.UTC)
	claim := &models.Claim{ClaimID: 1, FoodID: 1, ReceiverID: 1, Status: models.StatusPending, Timestamp: ts}
	require.NoError(t, repo.Create(ctx, claim))
	require.ErrorIs(t, repo.Create(ctx, claim), repositories.ErrDuplicateKey)

	got, err := repo.Read(ctx, repositories.ClaimFilter{ClaimID: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, claim.FoodID, got[0].FoodID)
	require.Equal(t, claim.ReceiverID, got[0].ReceiverID)
	require.Equal(t, claim.Status, got[0].Status)
	require.True(t, ts.Equal(got[0].Timestamp), "got %s", got[0].Timestamp)

	later := ts.Add(2 * time.Hour)
	affected, err := repo.Update(ctx, 1, repositories.ClaimUpdate{Status: models.StatusCompleted, Timestamp: later})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	completed, err := repo.Read(ctx, repositories.ClaimFilter{Status: models.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.True(t, later.Equal(completed[0].Timestamp))

	affected, err = repo.Update(ctx, 2, repositories.ClaimUpdate{Status: models.StatusCancelled, Timestamp: later})
	require.NoError(t, err)
	require.Zero(t, affected)

	deleted, err := repo.Delete(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
}

func TestReferenceChecker(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Provider{ProviderID: 1, Name: "A"}).Error)
	require.NoError(t, db.Create(&models.Receiver{ReceiverID: 1, Name: "R"}).Error)
	listing := bread()
	require.NoError(t, db.Create(listing).Error)
	orphan := bread()
	orphan.FoodID = 2
	orphan.ProviderID = 9
	require.NoError(t, db.Create(orphan).Error)
	require.NoError(t, db.Create(&models.Claim{ClaimID: 1, FoodID: 1, ReceiverID: 1, Status: models.StatusPending, Timestamp: time.Now()}).Error)
	require.NoError(t, db.Create(&models.Claim{ClaimID: 2, FoodID: 5, ReceiverID: 3, Status: models.StatusPending, Timestamp: time.Now()}).Error)

	report, err := repositories.NewReferenceChecker(db).Check(ctx)
	require.NoError(t, err)
	require.False(t, report.Consistent())
	require.Equal(t, []repositories.DanglingReference{
		{Table: "food_listings", Key: 2, Column: "provider_id", Value: 9},
		{Table: "claims", Key: 2, Column: "food_id", Value: 5},
		{Table: "claims", Key: 2, Column: "receiver_id", Value: 3},
	}, report.Dangling)
}
