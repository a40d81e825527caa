package accounts

import (
	"errors"

	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateAccount(account *types.Account) error {
	return d.db.Create(account).Error
}

func (d *Database) GetAccount(accountID, userID string) (*types.Account, error) {
	var account types.Account
	if err := d.db.Where("account_id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (d *Database) GetAccountByName(name, userID string) (*types.Account, error) {
	var account types.Account
	if err := d.db.Where("name = ? AND user_id = ?", name, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (d *Database) ListAccounts(userID string) ([]types.Account, error) {
	var accounts []types.Account
	if err := d.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (d *Database) SaveAccount(account *types.Account) error {
	return d.db.Save(account).Error
}

func (d *Database) DeleteAccount(account *types.Account) error {
	return d.db.Delete(account).Error
}

func (d *Database) GetPreference(userID, key string) (*types.UserPreference, error) {
	var pref types.UserPreference
	if err := d.db.Where("user_id = ? AND key = ?", userID, key).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

func (d *Database) SavePreference(pref *types.UserPreference) error {
	return d.db.Save(pref).Error
}
