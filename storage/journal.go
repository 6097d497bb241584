package storage

import (
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/savilov/binance-futures-cli/domain"
)

type journalCredentials interface {
	GetDatabaseDSN() string
	GetJournalPath() string
}

// Journal keeps a local record of placed orders. Its main job besides
// history is remembering which endpoint family an order id belongs to, so
// cancels can be routed without asking the user.
type Journal struct {
	dataBase *gorm.DB
}

func NewJournal(journalCredentials journalCredentials) (*Journal, error) {
	var dialector gorm.Dialector

	if dsn := journalCredentials.GetDatabaseDSN(); dsn != "" {
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	} else {
		dialector = sqlite.Open(journalCredentials.GetJournalPath())
	}

	dataBase, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, err
	}

	if err := dataBase.AutoMigrate(&domain.OrderInfo{}); err != nil {
		return nil, err
	}

	return &Journal{dataBase: dataBase}, nil
}

func (journal *Journal) NewOrderInfo(orderInfo *domain.OrderInfo) error {
	result := journal.dataBase.Create(orderInfo)

	return result.Error
}

// FindFamily reports which endpoint family an order id was placed on,
// based on the local record.
func (journal *Journal) FindFamily(orderID int64) (domain.OrderFamily, bool) {
	var orderInfo domain.OrderInfo

	result := journal.dataBase.Where("order_id = ?", orderID).Take(&orderInfo)
	if result.Error != nil {
		return "", false
	}

	return orderInfo.Family, true
}

func (journal *Journal) RecentOrderInfos(limit int) ([]domain.OrderInfo, error) {
	var orderInfos []domain.OrderInfo

	result := journal.dataBase.Order("placed_at desc").Limit(limit).Find(&orderInfos)
	if result.Error != nil {
		return nil, result.Error
	}

	return orderInfos, nil
}

func (journal *Journal) UpdateStatus(orderID int64, status string) error {
	result := journal.dataBase.Model(&domain.OrderInfo{}).Where("order_id = ?", orderID).Update("status", status)

	return result.Error
}
