package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

func intPtr(i int) *int { return &i }

func monthlyOptPtr(o models.MonthlyOption) *models.MonthlyOption { return &o }

func TestDueDatesWeeklyInterval(t *testing.T) {
	cfg := models.PaymentConfig{ClassID: "class-1", Type: models.PaymentWeekly, WeeklyInterval: intPtr(2)}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	january, err := DueDates(cfg, start, nil, time.January, 2024)
	require.NoError(t, err)
	assert.Equal(t, []models.DateKey{"2024-01-01", "2024-01-15", "2024-01-29"}, january)

	// The anchor carries across months: the cadence continues from the
	// class start, not from each month's first day.
	february, err := DueDates(cfg, start, nil, time.February, 2024)
	require.NoError(t, err)
	assert.Equal(t, []models.DateKey{"2024-02-12", "2024-02-26"}, february)
}

func TestDueDatesMonthlyOptions(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	first := models.PaymentConfig{ClassID: "c", Type: models.PaymentMonthly, MonthlyOption: monthlyOptPtr(models.MonthlyFirst)}
	dues, err := DueDates(first, start, nil, time.March, 2024)
	require.NoError(t, err)
	assert.Equal(t, []models.DateKey{"2024-03-01"}, dues)

	fifteen := models.PaymentConfig{ClassID: "c", Type: models.PaymentMonthly, MonthlyOption: monthlyOptPtr(models.MonthlyFifteen)}
	dues, err = DueDates(fifteen, start, nil, time.March, 2024)
	require.NoError(t, err)
	assert.Equal(t, []models.DateKey{"2024-03-15"}, dues)
}

func TestDueDatesMonthlyLastHandlesLeapYears(t *testing.T) {
	cfg := models.PaymentConfig{ClassID: "c", Type: models.PaymentMonthly, MonthlyOption: monthlyOptPtr(models.MonthlyLast)}
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	leap, err := DueDates(cfg, start, nil, time.February, 2024)
	require.NoError(t, err)
	assert.Equal(t, []models.DateKey{"2024-02-29"}, leap)

	common, err := DueDates(cfg, start, nil, time.February, 2023)
	require.NoError(t, err)
	assert.Equal(t, []models.DateKey{"2023-02-28"}, common)
}

func TestDueDatesRespectClassBounds(t *testing.T) {
	cfg := models.PaymentConfig{ClassID: "c", Type: models.PaymentMonthly, MonthlyOption: monthlyOptPtr(models.MonthlyFirst)}

	// Class starts after the due date: nothing is owed yet.
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	dues, err := DueDates(cfg, start, nil, time.January, 2024)
	require.NoError(t, err)
	assert.Empty(t, dues)

	// Class ended before the due date.
	end := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	weekly := models.PaymentConfig{ClassID: "c", Type: models.PaymentWeekly, WeeklyInterval: intPtr(1)}
	dues, err = DueDates(weekly, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), &end, time.February, 2024)
	require.NoError(t, err)
	assert.Equal(t, []models.DateKey{"2024-02-05", "2024-02-12", "2024-02-19"}, dues)
}

func TestDueDatesInvalidConfig(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := DueDates(models.PaymentConfig{ClassID: "c", Type: models.PaymentWeekly}, start, nil, time.January, 2024)
	require.Error(t, err)
	var cfgErr *InvalidPaymentConfigError
	require.ErrorAs(t, err, &cfgErr)

	_, err = DueDates(models.PaymentConfig{ClassID: "c", Type: models.PaymentMonthly}, start, nil, time.January, 2024)
	require.Error(t, err)

	_, err = DueDates(models.PaymentConfig{ClassID: "c", Type: models.PaymentType("yearly")}, start, nil, time.January, 2024)
	require.Error(t, err)
}
