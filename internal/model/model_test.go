package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockTransaction(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := &Product{ID: 7, Name: "Coffee"}

	tests := []struct {
		name          string
		before, after int
		want          *StockTransaction
	}{
		{"unchanged", 10, 10, nil},
		{"increase", 10, 25, &StockTransaction{
			ProductID: 7, ProductName: "Coffee", QuantityChanged: 15, Action: ActionAdd,
			StockBefore: 10, StockAfter: 25, CreatedBy: "u-1", Timestamp: at,
		}},
		{"decrease", 50, 35, &StockTransaction{
			ProductID: 7, ProductName: "Coffee", QuantityChanged: 15, Action: ActionDeduct,
			StockBefore: 50, StockAfter: 35, CreatedBy: "u-1", Timestamp: at,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewStockTransaction(p, tt.before, tt.after, "u-1", at))
		})
	}
}

func TestStockAction_Valid(t *testing.T) {
	assert.True(t, ActionAdd.Valid())
	assert.True(t, ActionDeduct.Valid())
	assert.False(t, StockAction("restock").Valid())
}

func TestProduct_StockLevel(t *testing.T) {
	assert.Equal(t, StockLevelLow, (&Product{Quantity: 0}).StockLevel())
	assert.Equal(t, StockLevelLow, (&Product{Quantity: LowStockThreshold - 1}).StockLevel())
	assert.Equal(t, StockLevelOK, (&Product{Quantity: LowStockThreshold}).StockLevel())
}

func TestUser_Password(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("secret123"))

	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("secret124"))
}

func TestUser_ToResponseHidesPassword(t *testing.T) {
	u := &User{BaseModel: BaseModel{ID: uuid.New()}, Username: "maria", Password: "hash", IDNumber: "EMP-001"}

	resp := u.ToResponse()
	assert.Equal(t, u.ID, resp.ID)
	assert.Equal(t, "maria", resp.Username)
	assert.Equal(t, "EMP-001", resp.IDNumber)
}

func TestBaseModel_BeforeCreateKeepsExistingID(t *testing.T) {
	id := uuid.New()
	b := &BaseModel{ID: id}
	require.NoError(t, b.BeforeCreate(nil))
	assert.Equal(t, id, b.ID)

	fresh := &BaseModel{}
	require.NoError(t, fresh.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, fresh.ID)
}
