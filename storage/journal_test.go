package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/savilov/binance-futures-cli/domain"
)

type journalTestCredentials struct{}

func (journalTestCredentials *journalTestCredentials) GetDatabaseDSN() string {
	return ""
}

func (journalTestCredentials *journalTestCredentials) GetJournalPath() string {
	return "file::memory:?cache=shared"
}

func newTestJournal(t *testing.T) *Journal {
	journal, err := NewJournal(&journalTestCredentials{})
	assert.Nil(t, err)

	journal.dataBase.Migrator().DropTable(&domain.OrderInfo{})
	journal.dataBase.AutoMigrate(&domain.OrderInfo{})

	return journal
}

func TestFindFamily(t *testing.T) {
	journal := newTestJournal(t)

	_, found := journal.FindFamily(1001)
	assert.False(t, found)

	err := journal.NewOrderInfo(&domain.OrderInfo{
		Family:   domain.OrderFamilyAlgo,
		OrderID:  1001,
		Symbol:   "BTCUSDT",
		Side:     domain.OrderSideSell,
		Type:     domain.OrderTypeStopMarket,
		Status:   "NEW",
		Quantity: decimal.RequireFromString("0.002"),
		PlacedAt: time.Now(),
	})
	assert.Nil(t, err)

	err = journal.NewOrderInfo(&domain.OrderInfo{
		Family:   domain.OrderFamilyStandard,
		OrderID:  1002,
		Symbol:   "BTCUSDT",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeLimit,
		Status:   "NEW",
		Quantity: decimal.RequireFromString("0.01"),
		PlacedAt: time.Now(),
	})
	assert.Nil(t, err)

	family, found := journal.FindFamily(1001)
	assert.True(t, found)
	assert.Equal(t, domain.OrderFamilyAlgo, family)

	family, found = journal.FindFamily(1002)
	assert.True(t, found)
	assert.Equal(t, domain.OrderFamilyStandard, family)
}

func TestRecentOrderInfos(t *testing.T) {
	journal := newTestJournal(t)

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, orderID := range []int64{2001, 2002, 2003} {
		err := journal.NewOrderInfo(&domain.OrderInfo{
			Family:   domain.OrderFamilyStandard,
			OrderID:  orderID,
			Symbol:   "ETHUSDT",
			Side:     domain.OrderSideBuy,
			Type:     domain.OrderTypeMarket,
			Status:   "FILLED",
			Quantity: decimal.RequireFromString("0.1"),
			PlacedAt: base.Add(time.Duration(i) * time.Minute),
		})
		assert.Nil(t, err)
	}

	orderInfos, err := journal.RecentOrderInfos(2)
	assert.Nil(t, err)
	assert.Len(t, orderInfos, 2)
	assert.Equal(t, int64(2003), orderInfos[0].OrderID)
	assert.Equal(t, int64(2002), orderInfos[1].OrderID)
}

func TestUpdateStatus(t *testing.T) {
	journal := newTestJournal(t)

	err := journal.NewOrderInfo(&domain.OrderInfo{
		Family:   domain.OrderFamilyStandard,
		OrderID:  3001,
		Symbol:   "BTCUSDT",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeLimit,
		Status:   "NEW",
		Quantity: decimal.RequireFromString("0.01"),
		PlacedAt: time.Now(),
	})
	assert.Nil(t, err)

	err = journal.UpdateStatus(3001, "CANCELED")
	assert.Nil(t, err)

	orderInfos, err := journal.RecentOrderInfos(1)
	assert.Nil(t, err)
	assert.Len(t, orderInfos, 1)
	assert.Equal(t, "CANCELED", orderInfos[0].Status)
}
