package importer

import (
	"testing"
	"time"

	"example.com/backstage/foodshare/internal/database"
	"example.com/backstage/foodshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferKind(t *testing.T) {
	records := [][]string{
		{"1", "1.5", "x", "", "7"},
		{"2", "3", "4", "", ""},
		{"", "-2", "5", "", "8"},
	}
	assert.Equal(t, kindInteger, inferKind(records, 0))
	assert.Equal(t, kindReal, inferKind(records, 1))
	assert.Equal(t, kindText, inferKind(records, 2))
	assert.Equal(t, kindText, inferKind(records, 3))
	assert.Equal(t, kindInteger, inferKind(records, 4))
}

func TestCoercedKind(t *testing.T) {
	k, ok := coercedKind(models.TableFoodListings, "expiry_date")
	assert.True(t, ok)
	assert.Equal(t, kindDate, k)

	k, ok = coercedKind(models.TableClaims, "timestamp")
	assert.True(t, ok)
	assert.Equal(t, kindTimestamp, k)

	_, ok = coercedKind(models.TableProviders, "expiry_date")
	assert.False(t, ok)
}

func TestConvert(t *testing.T) {
	v, err := convert("", kindInteger)
	require.NoError(t, err)
	assert.Nil(t, v)

	for _, k := range []kind{kindInteger, kindReal, kindDate, kindTimestamp} {
		v, err = convert("  ", k)
		require.NoError(t, err, k.String())
		assert.Nil(t, v, k.String())
	}

	v, err = convert(" 42 ", kindInteger)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = convert("2.25", kindReal)
	require.NoError(t, err)
	assert.Equal(t, 2.25, v)

	v, err = convert(" keep spaces ", kindText)
	require.NoError(t, err)
	assert.Equal(t, " keep spaces ", v)

	v, err = convert("2024-01-02", kindDate)
	require.NoError(t, err)
	assert.Equal(t, models.MustParseDate("2024-01-02"), v)

	v, err = convert("2024-01-02 13:45:00", kindDate)
	require.NoError(t, err)
	assert.Equal(t, models.MustParseDate("2024-01-02"), v)

	v, err = convert("2024-01-02 13:45:00", kindTimestamp)
	require.NoError(t, err)
	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 13, ts.Hour())

	_, err = convert("soon", kindDate)
	assert.Error(t, err)
}

func TestSQLType(t *testing.T) {
	assert.Equal(t, "INTEGER", kindInteger.sqlType(database.DialectSQLite))
	assert.Equal(t, "BIGINT", kindInteger.sqlType(database.DialectPostgres))
	assert.Equal(t, "DOUBLE PRECISION", kindReal.sqlType(database.DialectPostgres))
	assert.Equal(t, "DATETIME", kindTimestamp.sqlType(database.DialectSQLite))
	assert.Equal(t, "TIMESTAMPTZ", kindTimestamp.sqlType(database.DialectPostgres))
	assert.Equal(t, "DATE", kindDate.sqlType(database.DialectSQLite))
	assert.Equal(t, "TEXT", kindText.sqlType(database.DialectSQLite))
}
